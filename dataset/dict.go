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

// Dict assigns dense indices to ids in registration order and counts the
// interactions that reference each id.
type Dict struct {
	index map[string]int
	ids   []string
	freq  []int
}

func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

func (d *Dict) Len() int {
	return len(d.ids)
}

// Add registers id without counting a reference.
func (d *Dict) Add(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	i := len(d.ids)
	d.index[id] = i
	d.ids = append(d.ids, id)
	d.freq = append(d.freq, 0)
	return i
}

// Ref registers id if needed and counts one reference to it.
func (d *Dict) Ref(id string) int {
	i := d.Add(id)
	d.freq[i]++
	return i
}

// Index looks up id without registering it.
func (d *Dict) Index(id string) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

func (d *Dict) ID(i int) (string, bool) {
	if i < 0 || i >= len(d.ids) {
		return "", false
	}
	return d.ids[i], true
}

// Freq returns the number of references to the id at index i.
func (d *Dict) Freq(i int) int {
	if i < 0 || i >= len(d.freq) {
		return 0
	}
	return d.freq[i]
}
