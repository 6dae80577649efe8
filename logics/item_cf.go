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

	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// itemBased aggregates the neighbors of every item the user rated. Each rated
// item contributes its rating weighted by its similarity to the candidate.
func (r *Recommender) itemBased(userID string) (map[string]float64, error) {
	ratings := r.interactions.Ratings(userID)
	rated := r.interactions.Rated(userID)
	sum := make(map[string]float64)
	weight := make(map[string]float64)
	skipped := 0
	for _, rating := range ratings {
		neighbors, err := r.neighbors(similarity.ItemAxis, rating.ItemID, r.opts.Metric)
		if errors.Is(err, similarity.ErrInsufficientData) {
			skipped++
			continue
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		for _, neighbor := range neighbors {
			if rated.Contains(neighbor.ID) {
				continue
			}
			sum[neighbor.ID] += neighbor.Score * rating.Rating
			weight[neighbor.ID] += math.Abs(neighbor.Score)
		}
	}
	if skipped > 0 {
		log.Logger().Debug("skip items with insufficient data",
			zap.String("user_id", userID), zap.Int("skipped", skipped), zap.Int("rated", len(ratings)))
	}
	return weightedAverage(sum, weight), nil
}

func weightedAverage(sum, weight map[string]float64) map[string]float64 {
	scores := make(map[string]float64, len(sum))
	for id, s := range sum {
		if w := weight[id]; w > 0 {
			scores[id] = s / w
		}
	}
	return scores
}
