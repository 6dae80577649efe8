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
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/prodrec/common/parallel"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// LikedRating is the lowest rating counted as relevant in evaluation.
const LikedRating = 4

type Evaluation struct {
	Strategy  Strategy `json:"strategy"`
	K         int      `json:"k"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	Users     int      `json:"users"`
	Skipped   int      `json:"skipped"`
}

// Evaluate measures recommendations against held-out interactions that are
// not part of the recommender's stores. Only users with at least one liked
// held-out item are counted; users who cannot receive recommendations are
// reported as skipped.
func (r *Recommender) Evaluate(ctx context.Context, heldOut []dataset.Interaction, strategy Strategy, k int) (*Evaluation, error) {
	if k <= 0 {
		k = r.opts.DefaultK
	}
	liked := make(map[string]mapset.Set[string])
	for _, row := range heldOut {
		if row.Rating < LikedRating {
			continue
		}
		if _, ok := liked[row.UserID]; !ok {
			liked[row.UserID] = mapset.NewThreadUnsafeSet[string]()
		}
		liked[row.UserID].Add(row.ItemID)
	}
	type hitRate struct {
		precision float64
		recall    float64
		skipped   bool
		err       error
	}
	users := sortedKeys(liked)
	rates := make([]hitRate, len(users))
	err := parallel.ForEach(ctx, users, r.opts.NumJobs, func(i int, userID string) {
		items, err := r.Recommend(userID, strategy, k)
		if errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrInsufficientHistory) {
			rates[i].skipped = true
			return
		} else if err != nil {
			rates[i].err = err
			return
		}
		recommended := mapset.NewThreadUnsafeSet(lo.Map(items, func(s Score, _ int) string {
			return s.Product.ID
		})...)
		hits := float64(liked[userID].Intersect(recommended).Cardinality())
		if len(items) > 0 {
			rates[i].precision = hits / float64(len(items))
		}
		rates[i].recall = hits / float64(liked[userID].Cardinality())
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := &Evaluation{Strategy: strategy, K: k}
	var precision, recall float64
	for _, rate := range rates {
		if rate.err != nil {
			return nil, rate.err
		} else if rate.skipped {
			result.Skipped++
			continue
		}
		precision += rate.precision
		recall += rate.recall
		result.Users++
	}
	if result.Users > 0 {
		result.Precision = precision / float64(result.Users)
		result.Recall = recall / float64(result.Users)
	}
	if result.Precision+result.Recall > 0 {
		result.F1 = 2 * result.Precision * result.Recall / (result.Precision + result.Recall)
	}
	return result, nil
}
