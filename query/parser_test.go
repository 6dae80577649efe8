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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		query    string
		expected string
	}{
		{"", "*"},
		{"category = Books", `category = "Books"`},
		{"category = Books AND price <= 30", `(category = "Books" AND price <= 30)`},
		{"a OR b AND c", `((text "a" OR text "b") AND text "c")`},
		{"group == 'Movies & TV'", `category = "Movies & TV"`},
		{"category = Movies & TV", `category = "Movies & TV"`},
		{"avg_rating >= 4.5", "rating >= 4.5"},
		{"total_reviews > 10", "review_count > 10"},
		{"sales_rank < 100", "salesrank < 100"},
		{"title CONTAINS Go", `title CONTAINS "Go"`},
		{"title like go", `title CONTAINS "go"`},
		{"Wireless Headphones", `text "wireless headphones"`},
		{"id != B001", `id != "B001"`},
		{"price > \"30\"", "price > 30"},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			q, err := Parse(c.query)
			require.NoError(t, err)
			assert.Equal(t, c.expected, q.Root.String())
		})
	}
}

func TestParseTerms(t *testing.T) {
	q, err := Parse("Smart Phone AND rating > 3 OR 'Gaming'")
	require.NoError(t, err)
	assert.Equal(t, []string{"smart phone", "gaming"}, q.Terms)
	assert.Nil(t, q.Sort)
}

func TestParseOrderBy(t *testing.T) {
	q, err := Parse("category = Books ORDER BY salesrank")
	require.NoError(t, err)
	assert.Equal(t, &SortKey{Field: FieldSalesRank}, q.Sort)
	q, err = Parse("order by price DESC")
	require.NoError(t, err)
	assert.Equal(t, "*", q.Root.String())
	assert.Equal(t, &SortKey{Field: FieldPrice, Desc: true}, q.Sort)
	q, err = Parse("headphones ORDER BY relevance asc")
	require.NoError(t, err)
	assert.Equal(t, &SortKey{}, q.Sort)
	// "order" is plain text unless followed by "by"
	q, err = Parse("law and order")
	require.NoError(t, err)
	assert.Equal(t, `(text "law" AND text "order")`, q.Root.String())
}

func TestParseError(t *testing.T) {
	cases := []struct {
		query string
		token string
		msg   string
	}{
		{"colour = red", "colour", "unknown field"},
		{"price > abc", "abc", "price expects a float value"},
		{"review_count > 3.5", "3.5", "review_count expects an int value"},
		{"salesrank = ten", "ten", "salesrank expects an int value"},
		{"price >", "", "missing value for price"},
		{"> 3", ">", "missing field before operator"},
		{"AND price > 3", "AND", "missing clause before AND"},
		{"price > 3 AND", "AND", "missing clause after AND"},
		{"price > 3 OR ORDER BY price", "OR", "missing clause after OR"},
		{"title < b", "<", "operator < is not supported on string field title"},
		{"price ~ 3", "~", "operator CONTAINS is not supported on numeric field price"},
		{"(price > 3)", "(", "parentheses are not supported"},
		{"price > 3 )", ")", "unexpected token"},
		{"price > 3 4", "4", "price expects a single value"},
		{"cheap price > 3", ">", "unexpected operator, a comparison must start its clause"},
		{"price > 3 < 4", "<", "unexpected operator"},
		{"ORDER BY colour", "colour", "unknown sort field"},
		{"ORDER BY", "BY", "missing sort field"},
		{"price > NaN", "NaN", "price expects a float value"},
		{`""`, `""`, "empty text"},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			_, err := Parse(c.query)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "%v", err)
			assert.Equal(t, c.token, parseErr.Token)
			assert.Equal(t, c.msg, parseErr.Msg)
		})
	}
}
