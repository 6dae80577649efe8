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
	"math"
	"strings"

	"github.com/gorse-io/prodrec/dataset"
)

type Operator int

const (
	Equal Operator = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
	Contains
)

var operatorSymbols = map[string]Operator{
	"=":  Equal,
	"==": Equal,
	"!=": NotEqual,
	"<":  Less,
	"<=": LessOrEqual,
	">":  Greater,
	">=": GreaterOrEqual,
	"~":  Contains,
}

// operator keywords, matched case-insensitively
var operatorKeywords = map[string]Operator{
	"contains": Contains,
	"like":     Contains,
}

func (op Operator) String() string {
	switch op {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	case Contains:
		return "CONTAINS"
	default:
		return "?"
	}
}

func (op Operator) ordering() bool {
	return op == Less || op == LessOrEqual || op == Greater || op == GreaterOrEqual
}

func (op Operator) compare(x, y float64) bool {
	switch op {
	case Equal:
		return x == y
	case NotEqual:
		return x != y
	case Less:
		return x < y
	case LessOrEqual:
		return x <= y
	case Greater:
		return x > y
	case GreaterOrEqual:
		return x >= y
	default:
		panic("unsupported numeric operator " + op.String())
	}
}

type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// Field is a queryable product attribute.
type Field struct {
	Name string
	Kind Kind
	// CaseSensitive fields compare with exact case on equality.
	CaseSensitive bool
	text          func(p *dataset.Product) string
	number        func(p *dataset.Product) float64
}

func (f *Field) Text(p *dataset.Product) string {
	return f.text(p)
}

func (f *Field) Number(p *dataset.Product) float64 {
	return f.number(p)
}

var (
	FieldID = &Field{Name: "id", Kind: KindString, CaseSensitive: true,
		text: func(p *dataset.Product) string { return p.ID }}
	FieldTitle = &Field{Name: "title", Kind: KindString,
		text: func(p *dataset.Product) string { return p.Title }}
	FieldCategory = &Field{Name: "category", Kind: KindString,
		text: func(p *dataset.Product) string { return p.Category }}
	FieldPrice = &Field{Name: "price", Kind: KindFloat,
		number: func(p *dataset.Product) float64 { return p.Price }}
	FieldRating = &Field{Name: "rating", Kind: KindFloat,
		number: func(p *dataset.Product) float64 { return p.Rating }}
	FieldReviewCount = &Field{Name: "review_count", Kind: KindInt,
		number: func(p *dataset.Product) float64 { return float64(p.ReviewCount) }}
	// unranked products compare as +Inf
	FieldSalesRank = &Field{Name: "salesrank", Kind: KindInt,
		number: func(p *dataset.Product) float64 {
			if !p.Ranked() {
				return math.Inf(1)
			}
			return float64(p.SalesRank)
		}}
)

var fields = map[string]*Field{
	"id":            FieldID,
	"asin":          FieldID,
	"title":         FieldTitle,
	"category":      FieldCategory,
	"group":         FieldCategory,
	"price":         FieldPrice,
	"rating":        FieldRating,
	"avg_rating":    FieldRating,
	"review_count":  FieldReviewCount,
	"reviews":       FieldReviewCount,
	"num_reviews":   FieldReviewCount,
	"total_reviews": FieldReviewCount,
	"salesrank":     FieldSalesRank,
	"sales_rank":    FieldSalesRank,
}

// LookupField resolves a field name or alias, case-insensitively.
func LookupField(name string) (*Field, bool) {
	f, ok := fields[strings.ToLower(name)]
	return f, ok
}
