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

package dataset

import (
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Product is a catalog entry. SalesRank is 0 for unranked products.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	SalesRank   int      `json:"salesrank,omitempty"`
	SimilarIDs  []string `json:"similar_ids,omitempty"`
}

// Ranked reports whether the product has a sales rank.
func (p *Product) Ranked() bool {
	return p.SalesRank > 0
}

// SearchText is the lower-cased text matched by free-text queries.
func (p *Product) SearchText() string {
	return strings.ToLower(p.Title + " " + p.Category)
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.NotValidf("empty product id")
	}
	if p.Price < 0 {
		return errors.NotValidf("price %v of product %s", p.Price, p.ID)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return errors.NotValidf("rating %v of product %s", p.Rating, p.ID)
	}
	if p.ReviewCount < 0 {
		return errors.NotValidf("review count %v of product %s", p.ReviewCount, p.ID)
	}
	return nil
}

// Catalog is the immutable product table, ordered by product id.
type Catalog struct {
	products   []*Product
	index      map[string]int
	categories []string
}

func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]*Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for i := range products {
		p := products[i]
		if err := p.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
		if _, exist := c.index[p.ID]; exist {
			return nil, errors.AlreadyExistsf("product %s", p.ID)
		}
		c.index[p.ID] = -1
		c.products = append(c.products, &p)
	}
	sort.Slice(c.products, func(i, j int) bool {
		return c.products[i].ID < c.products[j].ID
	})
	for i, p := range c.products {
		c.index[p.ID] = i
	}
	c.categories = lo.Uniq(lo.Map(c.products, func(p *Product, _ int) string {
		return p.Category
	}))
	sort.Strings(c.categories)
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Get(id string) (*Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.products[i], true
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Products returns every product ordered by id. The slice must not be modified.
func (c *Catalog) Products() []*Product {
	return c.products
}

func (c *Catalog) Categories() []string {
	return c.categories
}

type CategoryStats struct {
	Category     string  `json:"category"`
	Products     int     `json:"total_products"`
	AvgRating    float64 `json:"avg_rating"`
	TotalReviews int     `json:"total_reviews"`
	Ranked       int     `json:"products_with_salesrank"`
}

// CategoryStats aggregates products per category, largest category first.
func (c *Catalog) CategoryStats() []CategoryStats {
	groups := lo.GroupBy(c.products, func(p *Product) string {
		return p.Category
	})
	stats := make([]CategoryStats, 0, len(groups))
	for _, category := range c.categories {
		group := groups[category]
		s := CategoryStats{Category: category, Products: len(group)}
		for _, p := range group {
			s.AvgRating += p.Rating
			s.TotalReviews += p.ReviewCount
			if p.Ranked() {
				s.Ranked++
			}
		}
		s.AvgRating /= float64(len(group))
		stats = append(stats, s)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Products > stats[j].Products
	})
	return stats
}
