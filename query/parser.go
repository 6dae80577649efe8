// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Query is a parsed query string.
type Query struct {
	// Root matches every product of the result.
	Root Predicate
	// Terms are the free-text clauses, lower-cased.
	Terms []string
	// Sort is set by a trailing ORDER BY.
	Sort *SortKey
}

type parser struct {
	tokens []token
	pos    int
	terms  []string
}

// Parse parses clauses joined left-associatively by AND / OR, followed by
// an optional ORDER BY <field> [ASC|DESC]. An empty query matches everything.
func Parse(input string) (*Query, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	q := &Query{Root: matchAll{}}
	if !p.atEnd() {
		if q.Root, err = p.parseClauses(); err != nil {
			return nil, err
		}
	}
	if p.atOrderBy() {
		if q.Sort, err = p.parseOrderBy(); err != nil {
			return nil, err
		}
	}
	if t := p.peek(); t.typ != tokenEOF {
		return nil, p.errorf(t, "unexpected token")
	}
	q.Terms = p.terms
	return q, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if i := p.pos + offset; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) atOrderBy() bool {
	return p.peek().is("order") && p.peekAt(1).is("by")
}

// atEnd reports whether no clause follows.
func (p *parser) atEnd() bool {
	return p.peek().typ == tokenEOF || p.atOrderBy()
}

func (p *parser) errorf(t token, format string, args ...any) *ParseError {
	return &ParseError{Token: t.raw, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func isConnective(t token) bool {
	return t.is("and") || t.is("or")
}

func operatorOf(t token) (Operator, bool) {
	switch t.typ {
	case tokenOperator:
		op, ok := operatorSymbols[t.text]
		return op, ok
	case tokenWord:
		op, ok := operatorKeywords[strings.ToLower(t.text)]
		return op, ok
	default:
		return 0, false
	}
}

// isValue reports whether t can be part of a value or a free-text clause.
func (p *parser) isValue(t token) bool {
	if t.typ == tokenString {
		return true
	}
	if t.typ != tokenWord || isConnective(t) {
		return false
	}
	if _, isOp := operatorOf(t); isOp {
		return false
	}
	return !(t.is("order") && p.tokens[min(p.pos+1, len(p.tokens)-1)].is("by"))
}

// values consumes consecutive value tokens.
func (p *parser) values() []token {
	var values []token
	for p.isValue(p.peek()) {
		values = append(values, p.next())
	}
	return values
}

func (p *parser) parseClauses() (Predicate, error) {
	left, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	for isConnective(p.peek()) {
		t := p.next()
		connective := And
		if t.is("or") {
			connective = Or
		}
		if p.atEnd() {
			return nil, p.errorf(t, "missing clause after %v", connective)
		}
		right, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		left = &Logical{Connective: connective, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseClause() (Predicate, error) {
	t := p.peek()
	switch {
	case t.typ == tokenLParen || t.typ == tokenRParen:
		return nil, p.errorf(t, "parentheses are not supported")
	case t.typ == tokenEOF:
		return nil, p.errorf(t, "missing clause")
	case isConnective(t):
		return nil, p.errorf(t, "missing clause before %s", strings.ToUpper(t.text))
	case t.typ == tokenOperator:
		return nil, p.errorf(t, "missing field before operator")
	}
	if _, isOp := operatorOf(p.peekAt(1)); t.typ == tokenWord && isOp {
		return p.parseComparison()
	}
	return p.parseText()
}

func (p *parser) parseComparison() (Predicate, error) {
	fieldToken := p.next()
	field, ok := LookupField(fieldToken.text)
	if !ok {
		return nil, p.errorf(fieldToken, "unknown field")
	}
	opToken := p.next()
	op, _ := operatorOf(opToken)
	switch {
	case field.Kind == KindString && op.ordering():
		return nil, p.errorf(opToken, "operator %v is not supported on string field %s", op, field.Name)
	case field.Kind != KindString && op == Contains:
		return nil, p.errorf(opToken, "operator %v is not supported on numeric field %s", op, field.Name)
	}
	values := p.values()
	if len(values) == 0 {
		return nil, p.errorf(p.peek(), "missing value for %s", field.Name)
	}
	if t := p.peek(); t.typ == tokenOperator {
		return nil, p.errorf(t, "unexpected operator")
	}
	c := &Comparison{Field: field, Operator: op}
	if field.Kind == KindString {
		c.Text = strings.Join(lo.Map(values, func(t token, _ int) string { return t.text }), " ")
		return c, nil
	}
	if len(values) > 1 {
		return nil, p.errorf(values[1], "%s expects a single value", field.Name)
	}
	number, err := strconv.ParseFloat(values[0].text, 64)
	valid := err == nil && !math.IsNaN(number) && !math.IsInf(number, 0)
	switch {
	case field.Kind == KindInt && (!valid || number != math.Trunc(number)):
		return nil, p.errorf(values[0], "%s expects an int value", field.Name)
	case !valid:
		return nil, p.errorf(values[0], "%s expects a float value", field.Name)
	}
	c.Number = number
	return c, nil
}

func (p *parser) parseText() (Predicate, error) {
	values := p.values()
	if len(values) == 0 {
		return nil, p.errorf(p.peek(), "unexpected token")
	}
	if t := p.peek(); t.typ == tokenOperator {
		return nil, p.errorf(t, "unexpected operator, a comparison must start its clause")
	}
	term := strings.ToLower(strings.Join(lo.Map(values, func(t token, _ int) string { return t.text }), " "))
	if strings.TrimSpace(term) == "" {
		return nil, p.errorf(values[0], "empty text")
	}
	p.terms = append(p.terms, term)
	return &TextMatch{Term: term}, nil
}

func (p *parser) parseOrderBy() (*SortKey, error) {
	p.next()
	by := p.next()
	t := p.next()
	if t.typ != tokenWord {
		return nil, p.errorf(by, "missing sort field")
	}
	key, err := sortKeyOf(t.text)
	if err != nil {
		return nil, p.errorf(t, "unknown sort field")
	}
	switch d := p.peek(); {
	case d.is("asc"):
		p.next()
		key.Desc = false
	case d.is("desc"):
		p.next()
		key.Desc = true
	}
	return &key, nil
}
