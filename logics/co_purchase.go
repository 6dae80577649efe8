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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/prodrec/common/heap"
	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// associations returns the products associated with a product: its similar
// products from the catalog, or its Jaccard neighbors when it lists none.
func (r *Recommender) associations(productID string) ([]string, error) {
	if p, ok := r.catalog.Get(productID); ok && len(p.SimilarIDs) > 0 {
		return lo.Uniq(lo.Filter(p.SimilarIDs, func(id string, _ int) bool {
			return id != productID && r.catalog.Contains(id)
		})), nil
	}
	neighbors, err := r.neighbors(similarity.ItemAxis, productID, similarity.Jaccard)
	if errors.Is(err, similarity.ErrInsufficientData) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(neighbors, func(n similarity.Neighbor, _ int) string {
		return n.ID
	}), nil
}

// coPurchase scores each unrated product by how many of the user's rated
// products it is associated with.
func (r *Recommender) coPurchase(userID string) (map[string]float64, error) {
	rated := r.interactions.Rated(userID)
	scores := make(map[string]float64)
	for _, rating := range r.interactions.Ratings(userID) {
		associated, err := r.associations(rating.ItemID)
		if err != nil {
			return nil, err
		}
		for _, id := range associated {
			if !rated.Contains(id) {
				scores[id]++
			}
		}
	}
	return scores, nil
}

type CoPurchaser struct {
	UserID string `json:"user_id"`
	Shared int    `json:"shared"`
}

// CoPurchaseAnalysis summarizes the users who bought the same products as a
// user and what else they bought.
type CoPurchaseAnalysis struct {
	UserID          string        `json:"user_id"`
	TotalPurchases  int           `json:"total_purchases"`
	CoPurchasers    int           `json:"co_purchasers"`
	TopCoPurchasers []CoPurchaser `json:"top_co_purchasers"`
	Items           []Score       `json:"items"`
}

const (
	topCoPurchasers     = 5
	topCoPurchasedItems = 10
)

// AnalyzeCoPurchase finds users sharing purchases with a user. Items are
// scored by the number of co-purchasers who bought them and exclude the
// user's own purchases.
func (r *Recommender) AnalyzeCoPurchase(userID string) (*CoPurchaseAnalysis, error) {
	if !r.interactions.HasUser(userID) {
		return nil, errors.Annotatef(ErrUnknownUser, "user %s", userID)
	}
	purchases := r.interactions.Ratings(userID)
	rated := r.interactions.Rated(userID)
	shared := make(map[string]int)
	for _, purchase := range purchases {
		for _, buyer := range r.interactions.Raters(purchase.ItemID) {
			if buyer.UserID != userID {
				shared[buyer.UserID]++
			}
		}
	}
	frequency := make(map[string]float64)
	for buyer := range shared {
		for _, item := range r.interactions.Ratings(buyer) {
			if !rated.Contains(item.ItemID) {
				frequency[item.ItemID]++
			}
		}
	}
	filter := heap.NewTopKFilter[string, int](topCoPurchasers)
	for buyer, n := range shared {
		filter.Push(buyer, n)
	}
	top := lo.Map(filter.PopAll(), func(e heap.Elem[string, int], _ int) CoPurchaser {
		return CoPurchaser{UserID: e.Value, Shared: e.Weight}
	})
	return &CoPurchaseAnalysis{
		UserID:          userID,
		TotalPurchases:  len(purchases),
		CoPurchasers:    len(shared),
		TopCoPurchasers: top,
		Items:           r.rank(frequency, topCoPurchasedItems),
	}, nil
}

// ProductCoPurchase counts the reviewers of a product who also reviewed one
// of its similar products.
type ProductCoPurchase struct {
	ProductID         string   `json:"product_id"`
	SimilarProducts   []string `json:"similar_products"`
	SimilarCount      int      `json:"similar_count"`
	CoPurchasers      int      `json:"co_purchasers"`
	OriginalReviewers int      `json:"original_reviewers"`
	SimilarReviewers  int      `json:"similar_reviewers"`
}

const maxSimilarProducts = 10

func (r *Recommender) CoPurchasers(productID string) (*ProductCoPurchase, error) {
	p, ok := r.catalog.Get(productID)
	if !ok {
		return nil, errors.NotFoundf("product %s", productID)
	}
	similar := lo.Uniq(p.SimilarIDs)
	result := &ProductCoPurchase{
		ProductID:       productID,
		SimilarProducts: lo.Slice(similar, 0, maxSimilarProducts),
		SimilarCount:    len(similar),
	}
	if len(similar) == 0 {
		return result, nil
	}
	original := mapset.NewThreadUnsafeSet[string]()
	for _, rating := range r.interactions.Raters(productID) {
		original.Add(rating.UserID)
	}
	reviewers := mapset.NewThreadUnsafeSet[string]()
	for _, id := range similar {
		for _, rating := range r.interactions.Raters(id) {
			reviewers.Add(rating.UserID)
		}
	}
	result.OriginalReviewers = r.interactions.Popularity(productID)
	result.SimilarReviewers = reviewers.Cardinality()
	result.CoPurchasers = original.Intersect(reviewers).Cardinality()
	return result, nil
}

// sortedKeys is used where map iteration order would leak into results.
func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
