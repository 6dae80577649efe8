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
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
)

var (
	categories = []string{
		"Books", "Electronics", "Movies & TV", "Music", "Home & Kitchen",
		"Sports & Outdoors", "Tools & Home Improvement", "Toys & Games",
		"Clothing, Shoes & Jewelry", "Health & Personal Care",
	}
	titles = []string{
		"The Great Adventure", "Ultimate Guide to Success", "Wireless Headphones",
		"Professional Camera", "Gaming Console", "Kitchen Mixer", "Smart Phone",
		"Laptop Computer", "Running Shoes", "Cooking Set", "Mystery Novel",
		"Science Textbook", "Action Movie", "Classical Music Collection",
	}
)

type GenerateOptions struct {
	Products     int
	Users        int
	Interactions int
	Seed         int64
	// Progress receives progress bars, nil discards them.
	Progress io.Writer
}

// Generate creates a synthetic catalog and interaction table. Product rating
// and review count are aggregated from the generated interactions. The same
// options always generate the same data.
func Generate(opts GenerateOptions) ([]Product, []Interaction, error) {
	if opts.Products <= 0 || opts.Users <= 0 || opts.Interactions < 0 {
		return nil, nil, errors.NotValidf("generate options %+v", opts)
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	fake := faker.NewWithSeed(rand.NewSource(opts.Seed))

	products := make([]Product, opts.Products)
	bar := progressbar.NewOptions(opts.Products,
		progressbar.OptionSetWriter(opts.Progress),
		progressbar.OptionSetDescription("generate products"))
	for i := range products {
		p := &products[i]
		p.ID = fmt.Sprintf("B%08d", i)
		p.Category = fake.RandomStringElement(categories)
		p.Title = fmt.Sprintf("%s %d", fake.RandomStringElement(titles), i+1)
		p.Price = fake.Float64(2, 1, 999)
		if fake.IntBetween(0, 1) == 1 {
			p.SalesRank = fake.IntBetween(1, 100000)
		}
		for n := fake.IntBetween(0, 5); n > 0; n-- {
			if similar := fmt.Sprintf("B%08d", fake.IntBetween(0, opts.Products-1)); similar != p.ID {
				p.SimilarIDs = append(p.SimilarIDs, similar)
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	users := make([]string, opts.Users)
	for i := range users {
		users[i] = fmt.Sprintf("A%010d", i)
	}
	type key struct{ user, item int }
	seen := make(map[key]struct{}, opts.Interactions)
	sums := make([]float64, opts.Products)
	interactions := make([]Interaction, 0, opts.Interactions)
	bar = progressbar.NewOptions(opts.Interactions,
		progressbar.OptionSetWriter(opts.Progress),
		progressbar.OptionSetDescription("generate interactions"))
	for i := 0; i < opts.Interactions; i++ {
		k := key{fake.IntBetween(0, opts.Users-1), fake.IntBetween(0, opts.Products-1)}
		_ = bar.Add(1)
		if _, exist := seen[k]; exist {
			continue
		}
		seen[k] = struct{}{}
		rating := generateRating(fake)
		interactions = append(interactions, Interaction{
			UserID: users[k.user],
			ItemID: products[k.item].ID,
			Rating: rating,
		})
		sums[k.item] += rating
		products[k.item].ReviewCount++
	}
	_ = bar.Finish()
	for i := range products {
		if products[i].ReviewCount > 0 {
			products[i].Rating = math.Round(sums[i]/float64(products[i].ReviewCount)*10) / 10
		}
	}
	return products, interactions, nil
}

// generateRating is skewed toward high ratings: 5%, 5%, 15%, 35%, 40%.
func generateRating(fake faker.Faker) float64 {
	switch n := fake.IntBetween(1, 100); {
	case n <= 5:
		return 1
	case n <= 10:
		return 2
	case n <= 25:
		return 3
	case n <= 60:
		return 4
	default:
		return 5
	}
}
