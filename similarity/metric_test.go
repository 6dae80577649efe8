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

package similarity

import (
	"math"
	"testing"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatrix(t *testing.T, rows ...dataset.Interaction) *dataset.Matrix {
	interactions, err := dataset.NewInteractions(rows, dataset.DuplicateLast)
	require.NoError(t, err)
	return interactions.Matrix()
}

func userVector(t *testing.T, m *dataset.Matrix, id string) *dataset.Vector {
	index, ok := m.UserIndex(id)
	require.True(t, ok)
	return m.Row(index)
}

func TestCosine(t *testing.T) {
	m := newMatrix(t,
		dataset.Interaction{UserID: "a", ItemID: "1", Rating: 1},
		dataset.Interaction{UserID: "a", ItemID: "2", Rating: 2},
		dataset.Interaction{UserID: "b", ItemID: "1", Rating: 2},
		dataset.Interaction{UserID: "b", ItemID: "3", Rating: 3},
		dataset.Interaction{UserID: "c", ItemID: "4", Rating: 3},
		dataset.Interaction{UserID: "d", ItemID: "1", Rating: 0},
	)
	a, b, c, d := userVector(t, m, "a"), userVector(t, m, "b"), userVector(t, m, "c"), userVector(t, m, "d")
	// norms include items outside the intersection
	score, ok := Cosine.Compute(a, b)
	assert.True(t, ok)
	assert.InDelta(t, 2/math.Sqrt(65), score, 1e-12)
	// empty intersection
	_, ok = Cosine.Compute(a, c)
	assert.False(t, ok)
	// zero norm
	_, ok = Cosine.Compute(a, d)
	assert.False(t, ok)
}

func TestPearson(t *testing.T) {
	m := newMatrix(t,
		dataset.Interaction{UserID: "a", ItemID: "1", Rating: 1},
		dataset.Interaction{UserID: "a", ItemID: "2", Rating: 2},
		dataset.Interaction{UserID: "a", ItemID: "3", Rating: 3},
		dataset.Interaction{UserID: "b", ItemID: "1", Rating: 3},
		dataset.Interaction{UserID: "b", ItemID: "2", Rating: 2},
		dataset.Interaction{UserID: "b", ItemID: "3", Rating: 1},
		dataset.Interaction{UserID: "c", ItemID: "1", Rating: 2},
		dataset.Interaction{UserID: "c", ItemID: "2", Rating: 4},
		dataset.Interaction{UserID: "c", ItemID: "3", Rating: 6},
		dataset.Interaction{UserID: "d", ItemID: "1", Rating: 4},
		dataset.Interaction{UserID: "d", ItemID: "2", Rating: 4},
		dataset.Interaction{UserID: "e", ItemID: "1", Rating: 5},
	)
	a, b, c, d, e := userVector(t, m, "a"), userVector(t, m, "b"), userVector(t, m, "c"), userVector(t, m, "d"), userVector(t, m, "e")
	score, ok := Pearson.Compute(a, b)
	assert.True(t, ok)
	assert.InDelta(t, -1, score, 1e-12)
	score, ok = Pearson.Compute(a, c)
	assert.True(t, ok)
	assert.InDelta(t, 1, score, 1e-12)
	// zero variance
	_, ok = Pearson.Compute(a, d)
	assert.False(t, ok)
	// fewer than two common items
	_, ok = Pearson.Compute(a, e)
	assert.False(t, ok)
}

func TestJaccard(t *testing.T) {
	m := newMatrix(t,
		dataset.Interaction{UserID: "a", ItemID: "1", Rating: 1},
		dataset.Interaction{UserID: "a", ItemID: "2", Rating: 5},
		dataset.Interaction{UserID: "b", ItemID: "2", Rating: 1},
		dataset.Interaction{UserID: "b", ItemID: "3", Rating: 1},
		dataset.Interaction{UserID: "c", ItemID: "4", Rating: 1},
	)
	interactions, err := dataset.NewInteractions([]dataset.Interaction{
		{UserID: "a", ItemID: "1", Rating: 1},
	}, dataset.DuplicateLast, "x", "y")
	require.NoError(t, err)
	a, b, c := userVector(t, m, "a"), userVector(t, m, "b"), userVector(t, m, "c")
	score, ok := Jaccard.Compute(a, b)
	assert.True(t, ok)
	assert.InDelta(t, 1.0/3, score, 1e-12)
	// disjoint but non-empty union is defined
	score, ok = Jaccard.Compute(a, c)
	assert.True(t, ok)
	assert.Zero(t, score)
	// empty union
	empty := interactions.Matrix()
	_, ok = Jaccard.Compute(userVector(t, empty, "x"), userVector(t, empty, "y"))
	assert.False(t, ok)
}

func TestParseMetric(t *testing.T) {
	for _, m := range []Metric{Cosine, Pearson, Jaccard} {
		text, err := m.MarshalText()
		assert.NoError(t, err)
		var parsed Metric
		assert.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, m, parsed)
	}
	metric, err := ParseMetric(" Pearson ")
	assert.NoError(t, err)
	assert.Equal(t, Pearson, metric)
	_, err = ParseMetric("euclidean")
	assert.Error(t, err)
	assert.Panics(t, func() { Metric(42).Func() })
	assert.Equal(t, "unknown", Metric(-1).String())

	axis, err := ParseAxis("item")
	assert.NoError(t, err)
	assert.Equal(t, ItemAxis, axis)
	_, err = ParseAxis("shelf")
	assert.Error(t, err)
}
