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
	"strconv"
	"strings"

	"github.com/gorse-io/prodrec/dataset"
)

// Predicate is a node of a parsed query.
type Predicate interface {
	Match(p *dataset.Product) bool
	String() string
}

// Comparison is a <field> <operator> <value> clause.
type Comparison struct {
	Field    *Field
	Operator Operator
	Text     string
	Number   float64
}

func (c *Comparison) Match(p *dataset.Product) bool {
	if c.Field.Kind != KindString {
		return c.Operator.compare(c.Field.Number(p), c.Number)
	}
	value := c.Field.Text(p)
	switch c.Operator {
	case Equal, NotEqual:
		var equal bool
		if c.Field.CaseSensitive {
			equal = value == c.Text
		} else {
			equal = strings.EqualFold(value, c.Text)
		}
		return equal == (c.Operator == Equal)
	case Contains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Text))
	default:
		panic("unsupported string operator " + c.Operator.String())
	}
}

func (c *Comparison) String() string {
	if c.Field.Kind == KindString {
		return fmt.Sprintf("%s %v %s", c.Field.Name, c.Operator, strconv.Quote(c.Text))
	}
	return fmt.Sprintf("%s %v %s", c.Field.Name, c.Operator, strconv.FormatFloat(c.Number, 'g', -1, 64))
}

// TextMatch is a free-text clause over title and category.
type TextMatch struct {
	Term string
}

func (t *TextMatch) Match(p *dataset.Product) bool {
	return strings.Contains(p.SearchText(), t.Term)
}

func (t *TextMatch) String() string {
	return "text " + strconv.Quote(t.Term)
}

type Connective int

const (
	And Connective = iota
	Or
)

func (c Connective) String() string {
	if c == And {
		return "AND"
	}
	return "OR"
}

type Logical struct {
	Connective Connective
	Left       Predicate
	Right      Predicate
}

func (l *Logical) Match(p *dataset.Product) bool {
	if l.Connective == And {
		return l.Left.Match(p) && l.Right.Match(p)
	}
	return l.Left.Match(p) || l.Right.Match(p)
}

func (l *Logical) String() string {
	return fmt.Sprintf("(%v %v %v)", l.Left, l.Connective, l.Right)
}

type matchAll struct{}

func (matchAll) Match(*dataset.Product) bool { return true }

func (matchAll) String() string { return "*" }
