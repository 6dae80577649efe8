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
	"sort"
	"strings"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
)

// SortKey orders search results. A nil Field sorts by relevance.
type SortKey struct {
	Field *Field
	Desc  bool
}

// Relevance is the default ordering.
var Relevance = SortKey{Desc: true}

func (k SortKey) String() string {
	name := "relevance"
	if k.Field != nil {
		name = k.Field.Name
	}
	if k.Desc {
		return name + " desc"
	}
	return name + " asc"
}

func sortKeyOf(name string) (SortKey, error) {
	if strings.EqualFold(name, "relevance") {
		return Relevance, nil
	}
	field, ok := LookupField(name)
	if !ok {
		return SortKey{}, errors.NotValidf("sort field %q", name)
	}
	return SortKey{Field: field}, nil
}

// ParseSortKey parses "<field> [asc|desc]" or "-<field>" for descending.
// Fields sort ascending and relevance descending unless stated.
func ParseSortKey(s string) (SortKey, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return SortKey{}, errors.NotValidf("sort key %q", s)
	}
	name, desc := parts[0], false
	if strings.HasPrefix(name, "-") {
		name, desc = name[1:], true
	}
	key, err := sortKeyOf(name)
	if err != nil {
		return SortKey{}, err
	}
	if desc {
		key.Desc = true
	}
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "asc":
			key.Desc = false
		case "desc":
			key.Desc = true
		default:
			return SortKey{}, errors.NotValidf("sort direction %q", parts[1])
		}
	}
	return key, nil
}

type Options struct {
	DefaultLimit int
	MaxLimit     int
}

type Result struct {
	Product *dataset.Product `json:"product"`
	Score   float64          `json:"relevance_score"`
}

// Searcher evaluates queries against a catalog.
type Searcher struct {
	catalog *dataset.Catalog
	opts    Options
}

func NewSearcher(catalog *dataset.Catalog, opts Options) *Searcher {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &Searcher{catalog: catalog, opts: opts}
}

// Search returns the products matching query. An explicit sort key
// overrides ORDER BY in the query. Limit 0 uses the default limit and larger
// limits are clamped to the maximum.
func (s *Searcher) Search(input string, sortKey *SortKey, limit int) ([]Result, error) {
	q, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return s.Run(q, sortKey, limit), nil
}

// Run evaluates a parsed query.
func (s *Searcher) Run(q *Query, sortKey *SortKey, limit int) []Result {
	switch {
	case limit <= 0:
		limit = s.opts.DefaultLimit
	case limit > s.opts.MaxLimit:
		limit = s.opts.MaxLimit
	}
	key := Relevance
	if sortKey != nil {
		key = *sortKey
	} else if q.Sort != nil {
		key = *q.Sort
	}
	var results []Result
	for _, p := range s.catalog.Products() {
		if q.Root.Match(p) {
			results = append(results, Result{Product: p, Score: relevance(p, q.Terms)})
		}
	}
	sortResults(results, key)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// relevance scores text match quality, rating and review count when the
// query has free text, otherwise rating, review count and sales rank.
func relevance(p *dataset.Product, terms []string) float64 {
	reviews := math.Log1p(float64(p.ReviewCount))
	if len(terms) == 0 {
		salesRank := 1e6
		if p.Ranked() {
			salesRank = float64(p.SalesRank)
		}
		return p.Rating*0.4 + reviews*0.3 + 1000/(1+salesRank)*0.3
	}
	searchText := p.SearchText()
	var text float64
	for _, term := range terms {
		if strings.Contains(searchText, term) {
			text += 2 * float64(len(term)) / float64(len(term)+len(searchText))
		}
	}
	text /= float64(len(terms))
	return text*0.5 + p.Rating/5*0.3 + reviews/10*0.2
}

// sortResults orders by key, breaking ties by ascending product id.
// Products arrive ordered by id, so a stable sort keeps the tie-break.
// Missing numbers, such as unranked sales ranks, go last in either direction.
func sortResults(results []Result, key SortKey) {
	missing := func(r Result) bool {
		return key.Field != nil && key.Field.Kind != KindString && math.IsInf(key.Field.Number(r.Product), 0)
	}
	compare := func(a, b Result) int {
		switch {
		case key.Field == nil:
			return cmpFloat(a.Score, b.Score)
		case key.Field.Kind == KindString:
			return strings.Compare(strings.ToLower(key.Field.Text(a.Product)), strings.ToLower(key.Field.Text(b.Product)))
		default:
			return cmpFloat(key.Field.Number(a.Product), key.Field.Number(b.Product))
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if mi, mj := missing(results[i]), missing(results[j]); mi != mj {
			return mj
		}
		c := compare(results[i], results[j])
		if key.Desc {
			return c > 0
		}
		return c < 0
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
