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
	"strings"
	"unicode"
)

// ParseError reports a malformed query. Pos is the byte offset of Token in
// the query, or its length when the query ended early.
type ParseError struct {
	Token string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at end of query: %s", e.Msg)
	}
	return fmt.Sprintf("parse error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenWord
	tokenString
	tokenOperator
	tokenLParen
	tokenRParen
)

type token struct {
	typ  tokenType
	text string
	// raw is the token as written, including quotes.
	raw string
	pos int
}

func (t token) is(keyword string) bool {
	return t.typ == tokenWord && strings.EqualFold(t.text, keyword)
}

func isOperatorRune(r rune) bool {
	return r == '=' || r == '!' || r == '<' || r == '>' || r == '~'
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !isOperatorRune(r) && r != '(' && r != ')' && r != '"' && r != '\''
}

// lex splits a query into tokens. Quoted strings may contain any rune and
// escape their own quote by doubling it.
func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	// byte offsets of each rune
	offsets := make([]int, len(runes)+1)
	for i, n := 0, 0; i < len(runes); i++ {
		offsets[i] = n
		n += len(string(runes[i]))
		offsets[i+1] = n
	}
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{typ: tokenLParen, text: "(", raw: "(", pos: offsets[i]})
			i++
		case r == ')':
			tokens = append(tokens, token{typ: tokenRParen, text: ")", raw: ")", pos: offsets[i]})
			i++
		case r == '"' || r == '\'':
			start := i
			var sb strings.Builder
			closed := false
			for i++; i < len(runes); i++ {
				if runes[i] == r {
					if i+1 < len(runes) && runes[i+1] == r {
						sb.WriteRune(r)
						i++
						continue
					}
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
			}
			if !closed {
				return nil, &ParseError{Token: string(runes[start:]), Pos: offsets[start], Msg: "unterminated string"}
			}
			tokens = append(tokens, token{typ: tokenString, text: sb.String(), raw: string(runes[start:i]), pos: offsets[start]})
		case isOperatorRune(r):
			start := i
			for i < len(runes) && isOperatorRune(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			if _, ok := operatorSymbols[text]; !ok {
				return nil, &ParseError{Token: text, Pos: offsets[start], Msg: "unknown operator"}
			}
			tokens = append(tokens, token{typ: tokenOperator, text: text, raw: text, pos: offsets[start]})
		default:
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			text := string(runes[start:i])
			tokens = append(tokens, token{typ: tokenWord, text: text, raw: text, pos: offsets[start]})
		}
	}
	tokens = append(tokens, token{typ: tokenEOF, pos: len(input)})
	return tokens, nil
}
