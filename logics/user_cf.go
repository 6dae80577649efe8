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
	"math"

	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
)

// userBased predicts ratings from the most similar users. The prediction for
// an item is the similarity-weighted sum of the neighbors' ratings divided by
// the total weight of all neighbors, so neighbors who did not rate the item
// pull its score down.
func (r *Recommender) userBased(userID string) (map[string]float64, error) {
	neighbors, err := r.neighbors(similarity.UserAxis, userID, r.opts.Metric)
	if errors.Is(err, similarity.ErrInsufficientData) {
		return nil, errors.Annotatef(ErrInsufficientHistory, "user %s", userID)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	rated := r.interactions.Rated(userID)
	sum := make(map[string]float64)
	var total float64
	for _, neighbor := range neighbors {
		total += math.Abs(neighbor.Score)
		for _, rating := range r.interactions.Ratings(neighbor.ID) {
			if rated.Contains(rating.ItemID) {
				continue
			}
			sum[rating.ItemID] += neighbor.Score * rating.Rating
		}
	}
	scores := make(map[string]float64, len(sum))
	if total == 0 {
		return scores, nil
	}
	for id, s := range sum {
		scores[id] = s / total
	}
	return scores, nil
}
