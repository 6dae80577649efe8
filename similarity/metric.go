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
	"strings"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
)

// Metric is a closed set of similarity measures.
type Metric int

const (
	Cosine Metric = iota
	Pearson
	Jaccard
	numMetrics
)

// Func computes the similarity of two sparse vectors. The second return
// value is false when the similarity is undefined.
type Func func(a, b *dataset.Vector) (float64, bool)

var metricFuncs = [numMetrics]Func{
	Cosine:  cosine,
	Pearson: pearson,
	Jaccard: jaccard,
}

var metricNames = [numMetrics]string{
	Cosine:  "cosine",
	Pearson: "pearson",
	Jaccard: "jaccard",
}

func (m Metric) Valid() bool {
	return m >= 0 && m < numMetrics
}

func (m Metric) String() string {
	if !m.Valid() {
		return "unknown"
	}
	return metricNames[m]
}

// Func returns the implementation of m. It panics on an invalid metric.
func (m Metric) Func() Func {
	if !m.Valid() {
		panic("unsupported similarity metric " + m.String())
	}
	return metricFuncs[m]
}

// Compute is shorthand for m.Func()(a, b).
func (m Metric) Compute(a, b *dataset.Vector) (float64, bool) {
	return m.Func()(a, b)
}

func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range metricNames {
		if name == s {
			return Metric(m), nil
		}
	}
	return 0, errors.NotValidf("similarity metric %q", s)
}

func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	metric, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = metric
	return nil
}

// Axis selects rows (users) or columns (items) of the matrix.
type Axis int

const (
	UserAxis Axis = iota
	ItemAxis
)

func (a Axis) String() string {
	switch a {
	case UserAxis:
		return "user"
	case ItemAxis:
		return "item"
	default:
		return "unknown"
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return UserAxis, nil
	case "item":
		return ItemAxis, nil
	default:
		return 0, errors.NotValidf("axis %q", s)
	}
}

// intersect calls fn for every index present in both vectors, in ascending order.
func intersect(a, b *dataset.Vector, fn func(x, y float64)) int {
	ai, bi := a.Indices(), b.Indices()
	av, bv := a.Values(), b.Values()
	n := 0
	for i, j := 0, 0; i < len(ai) && j < len(bi); {
		switch {
		case ai[i] < bi[j]:
			i++
		case ai[i] > bi[j]:
			j++
		default:
			fn(av[i], bv[j])
			n++
			i++
			j++
		}
	}
	return n
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

// cosine divides the dot product over common indices by the norms of the
// full vectors.
func cosine(a, b *dataset.Vector) (float64, bool) {
	if a.Len() == 0 || b.Len() == 0 {
		return 0, false
	}
	var dot float64
	if intersect(a, b, func(x, y float64) { dot += x * y }) == 0 {
		return 0, false
	}
	if a.Norm() == 0 || b.Norm() == 0 {
		return 0, false
	}
	return clamp(dot / (a.Norm() * b.Norm())), true
}

// pearson is the cosine of the vectors centered on their means over common indices.
func pearson(a, b *dataset.Vector) (float64, bool) {
	var xs, ys []float64
	n := intersect(a, b, func(x, y float64) {
		xs = append(xs, x)
		ys = append(ys, y)
	})
	if n < 2 {
		return 0, false
	}
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)
	var num, denX, denY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		num += dx * dy
		denX += dx * dx
		denY += dy * dy
	}
	if denX == 0 || denY == 0 {
		return 0, false
	}
	return clamp(num / math.Sqrt(denX*denY)), true
}

// jaccard ignores rating values.
func jaccard(a, b *dataset.Vector) (float64, bool) {
	inter := a.Bits().IntersectionCardinality(b.Bits())
	union := uint(a.Len()+b.Len()) - inter
	if union == 0 {
		return 0, false
	}
	return float64(inter) / float64(union), true
}
