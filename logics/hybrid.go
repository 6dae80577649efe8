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

import "github.com/juju/errors"

// hybrid merges user-based and item-based predictions. An item predicted by
// both strategies scores the mean of the two predictions.
func (r *Recommender) hybrid(userID string) (map[string]float64, error) {
	users, err := r.userBased(userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	items, err := r.itemBased(userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scores := make(map[string]float64, len(users)+len(items))
	for id, score := range users {
		scores[id] = score
	}
	for id, score := range items {
		if other, ok := scores[id]; ok {
			scores[id] = (score + other) / 2
		} else {
			scores[id] = score
		}
	}
	return scores, nil
}
