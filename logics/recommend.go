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

package logics

import (
	"sort"
	"strings"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

const (
	// ErrUnknownUser is returned for users absent from the interaction table.
	ErrUnknownUser = errors.ConstError("unknown user")
	// ErrInsufficientHistory is returned for users below the minimum number of interactions.
	ErrInsufficientHistory = errors.ConstError("insufficient history")
)

// Strategy is a personalized recommendation method.
type Strategy int

const (
	UserCF Strategy = iota
	ItemCF
	CoPurchase
	Hybrid
	numStrategies
)

var strategyNames = [numStrategies]string{
	UserCF:     "user_cf",
	ItemCF:     "item_cf",
	CoPurchase: "co_purchase",
	Hybrid:     "hybrid",
}

func (s Strategy) Valid() bool {
	return s >= 0 && s < numStrategies
}

func (s Strategy) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return strategyNames[s]
}

func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range strategyNames {
		if name == s {
			return Strategy(i), nil
		}
	}
	return 0, errors.NotValidf("recommendation strategy %q", s)
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	strategy, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = strategy
	return nil
}

// PopularityField breaks ties between equally scored recommendations.
type PopularityField int

const (
	// ByReviewCount ranks products with more reviews first.
	ByReviewCount PopularityField = iota
	// BySalesRank ranks products with a lower sales rank first, unranked last.
	BySalesRank
)

func (f PopularityField) String() string {
	switch f {
	case ByReviewCount:
		return "review_count"
	case BySalesRank:
		return "salesrank"
	default:
		return "unknown"
	}
}

func ParsePopularityField(s string) (PopularityField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "review_count":
		return ByReviewCount, nil
	case "salesrank":
		return BySalesRank, nil
	default:
		return 0, errors.NotValidf("popularity field %q", s)
	}
}

func (f PopularityField) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *PopularityField) UnmarshalText(text []byte) error {
	field, err := ParsePopularityField(string(text))
	if err != nil {
		return err
	}
	*f = field
	return nil
}

// compare returns a negative number when a is more popular than b.
func (f PopularityField) compare(a, b *dataset.Product) int {
	switch f {
	case ByReviewCount:
		return b.ReviewCount - a.ReviewCount
	case BySalesRank:
		switch {
		case a.Ranked() && b.Ranked():
			return a.SalesRank - b.SalesRank
		case a.Ranked():
			return -1
		case b.Ranked():
			return 1
		}
		return 0
	default:
		panic("unsupported popularity field " + f.String())
	}
}

// Neighborhood finds the nearest neighbors of users and items.
type Neighborhood interface {
	Neighbors(metric similarity.Metric, axis similarity.Axis, id string, k int) ([]similarity.Neighbor, error)
}

type Options struct {
	Metric similarity.Metric
	// Neighbors is the number of nearest users or items consulted.
	Neighbors int
	// DefaultK is the list length when the caller asks for k <= 0.
	DefaultK int
	// MinInteractions is required by the collaborative filtering strategies.
	MinInteractions int
	// MinSimilarity is exclusive.
	MinSimilarity float64
	Popularity    PopularityField
	BestSellers   NonPersonalizedOptions
	// NumJobs is the number of workers used by evaluation.
	NumJobs int
}

type Score struct {
	Product *dataset.Product `json:"product"`
	Score   float64          `json:"score"`
}

// Recommender produces ranked recommendations from immutable stores.
type Recommender struct {
	catalog      *dataset.Catalog
	interactions *dataset.Interactions
	neighborhood Neighborhood
	opts         Options
	bestSellers  *NonPersonalized
}

func NewRecommender(catalog *dataset.Catalog, interactions *dataset.Interactions, neighborhood Neighborhood, opts Options) (*Recommender, error) {
	if !opts.Metric.Valid() {
		return nil, errors.NotValidf("similarity metric %v", opts.Metric)
	}
	if opts.Popularity != ByReviewCount && opts.Popularity != BySalesRank {
		return nil, errors.NotValidf("popularity field %v", opts.Popularity)
	}
	if opts.Neighbors <= 0 || opts.DefaultK <= 0 {
		return nil, errors.NotValidf("neighbors %d and default k %d", opts.Neighbors, opts.DefaultK)
	}
	opts.MinInteractions = max(opts.MinInteractions, 1)
	opts.NumJobs = max(opts.NumJobs, 1)
	if opts.BestSellers.Score == "" {
		opts.BestSellers = BestSellersOptions
	}
	bestSellers, err := NewNonPersonalized(opts.BestSellers)
	if err != nil {
		return nil, errors.Annotate(err, "best sellers")
	}
	return &Recommender{
		catalog:      catalog,
		interactions: interactions,
		neighborhood: neighborhood,
		opts:         opts,
		bestSellers:  bestSellers,
	}, nil
}

// Recommend returns up to k products the user has not rated. k <= 0 uses the
// configured default. Users below the interaction threshold get
// ErrInsufficientHistory, never an empty list.
func (r *Recommender) Recommend(userID string, strategy Strategy, k int) ([]Score, error) {
	if !strategy.Valid() {
		panic("unsupported recommendation strategy " + strategy.String())
	}
	if k <= 0 {
		k = r.opts.DefaultK
	}
	if !r.interactions.HasUser(userID) {
		return nil, errors.Annotatef(ErrUnknownUser, "user %s", userID)
	}
	count := r.interactions.Count(userID)
	threshold := r.opts.MinInteractions
	if strategy == CoPurchase {
		threshold = 1
	}
	if count < threshold {
		return nil, errors.Annotatef(ErrInsufficientHistory, "user %s has %d of %d interactions", userID, count, threshold)
	}
	var (
		scores map[string]float64
		err    error
	)
	switch strategy {
	case UserCF:
		scores, err = r.userBased(userID)
	case ItemCF:
		scores, err = r.itemBased(userID)
	case CoPurchase:
		scores, err = r.coPurchase(userID)
	case Hybrid:
		scores, err = r.hybrid(userID)
	}
	if err != nil {
		return nil, err
	}
	return r.rank(scores, k), nil
}

// rank orders scores descending, then by popularity, then by product id.
func (r *Recommender) rank(scores map[string]float64, k int) []Score {
	ranked := make([]Score, 0, len(scores))
	for id, score := range scores {
		if p, ok := r.catalog.Get(id); ok {
			ranked = append(ranked, Score{Product: p, Score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := r.opts.Popularity.compare(a.Product, b.Product); c != 0 {
			return c < 0
		}
		return a.Product.ID < b.Product.ID
	})
	return lo.Slice(ranked, 0, k)
}

// neighbors returns the neighbors of id above the similarity threshold.
func (r *Recommender) neighbors(axis similarity.Axis, id string, metric similarity.Metric) ([]similarity.Neighbor, error) {
	neighbors, err := r.neighborhood.Neighbors(metric, axis, id, r.opts.Neighbors)
	if err != nil {
		return nil, err
	}
	// neighbors are sorted by descending score
	n := sort.Search(len(neighbors), func(i int) bool {
		return neighbors[i].Score <= r.opts.MinSimilarity
	})
	return neighbors[:n], nil
}
