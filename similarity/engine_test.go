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
	"sync"
	"testing"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	interactions *dataset.Interactions
	engine       *Engine
}

func (suite *EngineTestSuite) SetupTest() {
	_, rows, err := dataset.Generate(dataset.GenerateOptions{Products: 30, Users: 25, Interactions: 400, Seed: 7})
	suite.Require().NoError(err)
	suite.interactions, err = dataset.NewInteractions(rows, dataset.DuplicateLast)
	suite.Require().NoError(err)
	suite.engine = NewEngine(suite.interactions.Matrix(), 3)
}

func (suite *EngineTestSuite) ids(axis Axis) []string {
	m := suite.interactions.Matrix()
	if axis == UserAxis {
		return suite.interactions.Users()
	}
	ids := make([]string, m.CountItems())
	for i := range ids {
		ids[i] = m.ItemID(int32(i))
	}
	return ids
}

func (suite *EngineTestSuite) TestSymmetryAndBounds() {
	for _, metric := range []Metric{Cosine, Pearson, Jaccard} {
		for _, axis := range []Axis{UserAxis, ItemAxis} {
			ids := suite.ids(axis)
			for _, a := range ids {
				for _, b := range ids {
					ab, definedAB, errAB := suite.engine.Similarity(metric, axis, a, b)
					ba, definedBA, errBA := suite.engine.Similarity(metric, axis, b, a)
					suite.Equal(errAB == nil, errBA == nil)
					if errAB != nil {
						suite.True(errors.Is(errAB, ErrInsufficientData))
						continue
					}
					suite.Equal(definedAB, definedBA)
					suite.InDelta(ab, ba, 1e-12)
					if !definedAB {
						continue
					}
					if metric == Jaccard {
						suite.GreaterOrEqual(ab, 0.0)
						suite.LessOrEqual(ab, 1.0)
					} else {
						suite.GreaterOrEqual(ab, -1.0)
						suite.LessOrEqual(ab, 1.0)
					}
				}
			}
		}
	}
}

func (suite *EngineTestSuite) TestNeighborsOrder() {
	for _, metric := range []Metric{Cosine, Pearson, Jaccard} {
		for _, id := range suite.ids(UserAxis) {
			neighbors, err := suite.engine.Neighbors(metric, UserAxis, id, 0)
			if err != nil {
				suite.True(errors.Is(err, ErrInsufficientData))
				continue
			}
			for i, neighbor := range neighbors {
				suite.NotEqual(id, neighbor.ID)
				suite.GreaterOrEqual(suite.interactions.Count(neighbor.ID), 3)
				if i > 0 {
					prev := neighbors[i-1]
					suite.True(prev.Score > neighbor.Score || (prev.Score == neighbor.Score && prev.ID < neighbor.ID))
				}
			}
			top, err := suite.engine.Neighbors(metric, UserAxis, id, 3)
			suite.NoError(err)
			suite.Equal(neighbors[:min(3, len(neighbors))], top)
		}
	}
}

func (suite *EngineTestSuite) TestComputeOnce() {
	id := suite.interactions.Users()[0]
	counter := NeighborComputations.WithLabelValues(Cosine.String(), UserAxis.String())
	before := testutil.ToFloat64(counter)
	var wg sync.WaitGroup
	results := make([][]Neighbor, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = suite.engine.Neighbors(Cosine, UserAxis, id, 5)
		}(i)
	}
	wg.Wait()
	suite.Equal(before+1, testutil.ToFloat64(counter))
	for _, result := range results {
		suite.Equal(results[0], result)
	}
	// cached until invalidated
	_, _ = suite.engine.Neighbors(Cosine, UserAxis, id, 10)
	suite.Equal(before+1, testutil.ToFloat64(counter))
	suite.engine.Invalidate()
	_, _ = suite.engine.Neighbors(Cosine, UserAxis, id, 10)
	suite.Equal(before+2, testutil.ToFloat64(counter))
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestEngineErrors(t *testing.T) {
	interactions, err := dataset.NewInteractions([]dataset.Interaction{
		{UserID: "a", ItemID: "1", Rating: 5},
		{UserID: "a", ItemID: "2", Rating: 4},
		{UserID: "b", ItemID: "1", Rating: 5},
	}, dataset.DuplicateLast, "c")
	require.NoError(t, err)
	engine := NewEngine(interactions.Matrix(), 2)
	_, err = engine.Neighbors(Cosine, UserAxis, "unknown", 5)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
	_, err = engine.Neighbors(Cosine, UserAxis, "b", 5)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	_, err = engine.Neighbors(Cosine, UserAxis, "c", 5)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	_, _, err = engine.Similarity(Cosine, ItemAxis, "1", "3")
	assert.True(t, errors.Is(err, ErrUnknownEntity))
	neighbors, err := engine.Neighbors(Jaccard, UserAxis, "a", 5)
	assert.NoError(t, err)
	assert.Empty(t, neighbors)
	assert.Panics(t, func() { _, _ = engine.Neighbors(Metric(9), UserAxis, "a", 5) })
	assert.Panics(t, func() { _, _ = engine.Neighbors(Cosine, Axis(9), "a", 5) })
}

func TestEngineReset(t *testing.T) {
	first, err := dataset.NewInteractions([]dataset.Interaction{
		{UserID: "a", ItemID: "1", Rating: 5},
		{UserID: "b", ItemID: "1", Rating: 5},
	}, dataset.DuplicateLast)
	require.NoError(t, err)
	second, err := dataset.NewInteractions([]dataset.Interaction{
		{UserID: "a", ItemID: "1", Rating: 5},
		{UserID: "c", ItemID: "1", Rating: 5},
	}, dataset.DuplicateLast)
	require.NoError(t, err)
	engine := NewEngine(first.Matrix(), 1)
	neighbors, err := engine.Neighbors(Jaccard, UserAxis, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []Neighbor{{ID: "b", Score: 1}}, neighbors)
	engine.Reset(second.Matrix())
	neighbors, err = engine.Neighbors(Jaccard, UserAxis, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []Neighbor{{ID: "c", Score: 1}}, neighbors)
}
