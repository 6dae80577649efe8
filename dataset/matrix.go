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

package dataset

import (
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Vector is a sparse rating vector. Indices are sorted ascending and a
// missing index means absent, never zero.
type Vector struct {
	indices []int32
	values  []float64
	bits    *bitset.BitSet
	norm    float64
}

func newVector(length int, indices []int32, values []float64) *Vector {
	v := &Vector{
		indices: indices,
		values:  values,
		bits:    bitset.New(uint(length)),
	}
	for i, index := range indices {
		v.bits.Set(uint(index))
		v.norm += values[i] * values[i]
	}
	v.norm = math.Sqrt(v.norm)
	return v
}

func (v *Vector) Len() int {
	return len(v.indices)
}

func (v *Vector) Indices() []int32 {
	return v.indices
}

func (v *Vector) Values() []float64 {
	return v.values
}

// Bits returns the presence set of the vector.
func (v *Vector) Bits() *bitset.BitSet {
	return v.bits
}

// Norm returns the L2 norm over every present cell.
func (v *Vector) Norm() float64 {
	return v.norm
}

func (v *Vector) Get(index int32) (float64, bool) {
	i := sort.Search(len(v.indices), func(i int) bool {
		return v.indices[i] >= index
	})
	if i < len(v.indices) && v.indices[i] == index {
		return v.values[i], true
	}
	return 0, false
}

// Matrix is the sparse user-item rating matrix. Users and items are indexed
// in ascending id order; columns are the precomputed transpose of rows.
type Matrix struct {
	users *Dict
	items *Dict
	rows  []*Vector
	cols  []*Vector
}

type cell struct {
	user, item int32
	rating     float64
}

func newMatrix(userIDs, itemIDs []string, interactions []Interaction) *Matrix {
	m := &Matrix{users: NewDict(), items: NewDict()}
	sort.Strings(userIDs)
	sort.Strings(itemIDs)
	for _, id := range userIDs {
		m.users.Add(id)
	}
	for _, id := range itemIDs {
		m.items.Add(id)
	}
	cells := make([]cell, len(interactions))
	for i, interaction := range interactions {
		cells[i] = cell{
			user:   int32(m.users.Ref(interaction.UserID)),
			item:   int32(m.items.Ref(interaction.ItemID)),
			rating: interaction.Rating,
		}
	}
	// rows
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].user != cells[j].user {
			return cells[i].user < cells[j].user
		}
		return cells[i].item < cells[j].item
	})
	rowIndices := make([][]int32, m.users.Len())
	rowValues := make([][]float64, m.users.Len())
	for _, c := range cells {
		rowIndices[c.user] = append(rowIndices[c.user], c.item)
		rowValues[c.user] = append(rowValues[c.user], c.rating)
	}
	m.rows = make([]*Vector, m.users.Len())
	for i := range m.rows {
		m.rows[i] = newVector(m.items.Len(), rowIndices[i], rowValues[i])
	}
	// columns
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].item != cells[j].item {
			return cells[i].item < cells[j].item
		}
		return cells[i].user < cells[j].user
	})
	colIndices := make([][]int32, m.items.Len())
	colValues := make([][]float64, m.items.Len())
	for _, c := range cells {
		colIndices[c.item] = append(colIndices[c.item], c.user)
		colValues[c.item] = append(colValues[c.item], c.rating)
	}
	m.cols = make([]*Vector, m.items.Len())
	for i := range m.cols {
		m.cols[i] = newVector(m.users.Len(), colIndices[i], colValues[i])
	}
	return m
}

func (m *Matrix) CountUsers() int {
	return m.users.Len()
}

func (m *Matrix) CountItems() int {
	return m.items.Len()
}

func (m *Matrix) UserIndex(id string) (int32, bool) {
	i, ok := m.users.Index(id)
	return int32(i), ok
}

func (m *Matrix) ItemIndex(id string) (int32, bool) {
	i, ok := m.items.Index(id)
	return int32(i), ok
}

func (m *Matrix) UserID(index int32) string {
	s, _ := m.users.ID(int(index))
	return s
}

func (m *Matrix) ItemID(index int32) string {
	s, _ := m.items.ID(int(index))
	return s
}

// UserFreq returns the number of items rated by a user.
func (m *Matrix) UserFreq(user int32) int {
	return m.users.Freq(int(user))
}

// ItemFreq returns the number of users who rated an item.
func (m *Matrix) ItemFreq(item int32) int {
	return m.items.Freq(int(item))
}

// Row returns the ratings given by a user.
func (m *Matrix) Row(user int32) *Vector {
	return m.rows[user]
}

// Col returns the ratings received by an item.
func (m *Matrix) Col(item int32) *Vector {
	return m.cols[item]
}

func (m *Matrix) Rows() []*Vector {
	return m.rows
}

func (m *Matrix) Cols() []*Vector {
	return m.cols
}
