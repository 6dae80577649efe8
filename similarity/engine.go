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
	"sort"
	"sync"

	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// ErrInsufficientData is returned for entities below the minimum number of interactions.
	ErrInsufficientData = errors.ConstError("insufficient data")
	// ErrUnknownEntity is returned for ids absent from the requested axis.
	ErrUnknownEntity = errors.ConstError("unknown entity")
)

type Neighbor struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type cacheKey struct {
	Metric Metric
	Axis   Axis
	Index  int32
}

// Engine answers similarity and top-K neighbor queries over a matrix.
// Neighbor lists are computed at most once per (metric, axis, entity) until
// the cache is invalidated.
type Engine struct {
	mu              sync.RWMutex
	matrix          *dataset.Matrix
	minInteractions int
	cache           *ttlcache.Cache[cacheKey, []Neighbor]
}

func NewEngine(matrix *dataset.Matrix, minInteractions int) *Engine {
	e := &Engine{matrix: matrix, minInteractions: max(minInteractions, 1)}
	loader := ttlcache.LoaderFunc[cacheKey, []Neighbor](
		func(c *ttlcache.Cache[cacheKey, []Neighbor], key cacheKey) *ttlcache.Item[cacheKey, []Neighbor] {
			return c.Set(key, e.compute(key), ttlcache.NoTTL)
		})
	e.cache = ttlcache.New[cacheKey, []Neighbor](
		ttlcache.WithLoader[cacheKey, []Neighbor](ttlcache.NewSuppressedLoader[cacheKey, []Neighbor](loader, new(singleflight.Group))),
		ttlcache.WithDisableTouchOnHit[cacheKey, []Neighbor](),
	)
	return e
}

// MinInteractions returns the threshold below which entities are excluded.
func (e *Engine) MinInteractions() int {
	return e.minInteractions
}

// Reset swaps the matrix and drops every cached neighbor list.
func (e *Engine) Reset(matrix *dataset.Matrix) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matrix = matrix
	e.cache.DeleteAll()
}

// Invalidate drops every cached neighbor list.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.DeleteAll()
}

func (e *Engine) vectors(axis Axis) []*dataset.Vector {
	switch axis {
	case UserAxis:
		return e.matrix.Rows()
	case ItemAxis:
		return e.matrix.Cols()
	default:
		panic("unsupported axis " + axis.String())
	}
}

func (e *Engine) id(axis Axis, index int32) string {
	if axis == UserAxis {
		return e.matrix.UserID(index)
	}
	return e.matrix.ItemID(index)
}

// resolve maps an id to its vector index, checking the interaction threshold.
func (e *Engine) resolve(axis Axis, id string) (int32, error) {
	var (
		index int32
		ok    bool
	)
	switch axis {
	case UserAxis:
		index, ok = e.matrix.UserIndex(id)
	case ItemAxis:
		index, ok = e.matrix.ItemIndex(id)
	default:
		panic("unsupported axis " + axis.String())
	}
	if !ok {
		return 0, errors.Annotatef(ErrUnknownEntity, "%s %s", axis, id)
	}
	if n := e.vectors(axis)[index].Len(); n < e.minInteractions {
		return 0, errors.Annotatef(ErrInsufficientData, "%s %s has %d of %d interactions", axis, id, n, e.minInteractions)
	}
	return index, nil
}

// Similarity returns the similarity of two entities on an axis. The flag is
// false when the metric is undefined for the pair.
func (e *Engine) Similarity(metric Metric, axis Axis, a, b string) (float64, bool, error) {
	fn := metric.Func()
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, err := e.resolve(axis, a)
	if err != nil {
		return 0, false, err
	}
	j, err := e.resolve(axis, b)
	if err != nil {
		return 0, false, err
	}
	vectors := e.vectors(axis)
	score, defined := fn(vectors[i], vectors[j])
	return score, defined, nil
}

// Neighbors returns the k most similar entities to id, ordered by descending
// score then ascending id. Self and undefined pairs are excluded. A
// non-positive k returns every neighbor.
func (e *Engine) Neighbors(metric Metric, axis Axis, id string, k int) ([]Neighbor, error) {
	if !metric.Valid() {
		panic("unsupported similarity metric " + metric.String())
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	index, err := e.resolve(axis, id)
	if err != nil {
		return nil, err
	}
	neighbors := e.cache.Get(cacheKey{Metric: metric, Axis: axis, Index: index}).Value()
	if k > 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	// callers own the returned slice
	return append([]Neighbor(nil), neighbors...), nil
}

func (e *Engine) compute(key cacheKey) []Neighbor {
	NeighborComputations.WithLabelValues(key.Metric.String(), key.Axis.String()).Inc()
	fn := key.Metric.Func()
	vectors := e.vectors(key.Axis)
	target := vectors[key.Index]
	var neighbors []Neighbor
	for j, vector := range vectors {
		if int32(j) == key.Index || vector.Len() < e.minInteractions {
			continue
		}
		if score, defined := fn(target, vector); defined {
			neighbors = append(neighbors, Neighbor{ID: e.id(key.Axis, int32(j)), Score: score})
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Score > neighbors[j].Score
	})
	log.Logger().Debug("compute neighbors",
		zap.Stringer("metric", key.Metric),
		zap.Stringer("axis", key.Axis),
		zap.String("id", e.id(key.Axis, key.Index)),
		zap.Int("neighbors", len(neighbors)))
	return neighbors
}
