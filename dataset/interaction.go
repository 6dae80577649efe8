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
	"math/rand"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

type Interaction struct {
	UserID string  `json:"user_id"`
	ItemID string  `json:"item_id"`
	Rating float64 `json:"rating"`
}

// DuplicatePolicy decides which row wins when a (user, item) pair repeats.
type DuplicatePolicy int

const (
	DuplicateLast DuplicatePolicy = iota
	DuplicateFirst
	DuplicateReject
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateLast:
		return "last"
	case DuplicateFirst:
		return "first"
	case DuplicateReject:
		return "reject"
	default:
		return "unknown"
	}
}

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last", "":
		return DuplicateLast, nil
	case "first":
		return DuplicateFirst, nil
	case "reject":
		return DuplicateReject, nil
	default:
		return 0, errors.NotValidf("duplicate policy %q", s)
	}
}

func (p DuplicatePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DuplicatePolicy) UnmarshalText(text []byte) error {
	policy, err := ParseDuplicatePolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// Interactions is the immutable interaction table and its user-item matrix.
type Interactions struct {
	matrix     *Matrix
	duplicates int
	orphans    int
}

// NewInteractions deduplicates rows by policy and builds the matrix. Extra
// users are registered as known even without any row.
func NewInteractions(rows []Interaction, policy DuplicatePolicy, users ...string) (*Interactions, error) {
	type key struct{ user, item string }
	positions := make(map[key]int, len(rows))
	unique := make([]Interaction, 0, len(rows))
	duplicates := 0
	for _, row := range rows {
		k := key{row.UserID, row.ItemID}
		if pos, exist := positions[k]; exist {
			duplicates++
			switch policy {
			case DuplicateLast:
				unique[pos] = row
			case DuplicateFirst:
			case DuplicateReject:
				return nil, errors.AlreadyExistsf("interaction (%s, %s)", row.UserID, row.ItemID)
			default:
				panic("unknown duplicate policy " + policy.String())
			}
			continue
		}
		positions[k] = len(unique)
		unique = append(unique, row)
	}
	userSet := mapset.NewThreadUnsafeSet(users...)
	itemSet := mapset.NewThreadUnsafeSet[string]()
	for _, row := range unique {
		userSet.Add(row.UserID)
		itemSet.Add(row.ItemID)
	}
	return &Interactions{
		matrix:     newMatrix(userSet.ToSlice(), itemSet.ToSlice(), unique),
		duplicates: duplicates,
	}, nil
}

func (s *Interactions) Matrix() *Matrix {
	return s.matrix
}

// Len returns the number of distinct (user, item) cells.
func (s *Interactions) Len() int {
	return lo.SumBy(s.matrix.rows, func(v *Vector) int {
		return v.Len()
	})
}

// Duplicates returns the number of rows collapsed by the duplicate policy.
func (s *Interactions) Duplicates() int {
	return s.duplicates
}

// Orphans returns the number of rows dropped for referencing unknown products.
func (s *Interactions) Orphans() int {
	return s.orphans
}

func (s *Interactions) HasUser(userID string) bool {
	_, ok := s.matrix.UserIndex(userID)
	return ok
}

// Users returns known user ids in ascending order.
func (s *Interactions) Users() []string {
	return lo.Times(s.matrix.CountUsers(), func(i int) string {
		return s.matrix.UserID(int32(i))
	})
}

// Count returns the number of items rated by a user, 0 for unknown users.
func (s *Interactions) Count(userID string) int {
	if u, ok := s.matrix.UserIndex(userID); ok {
		return s.matrix.UserFreq(u)
	}
	return 0
}

// Popularity returns the number of users who rated an item, 0 for unknown items.
func (s *Interactions) Popularity(itemID string) int {
	if i, ok := s.matrix.ItemIndex(itemID); ok {
		return s.matrix.ItemFreq(i)
	}
	return 0
}

// Ratings returns the ratings of a user ordered by item id.
func (s *Interactions) Ratings(userID string) []Interaction {
	u, ok := s.matrix.UserIndex(userID)
	if !ok {
		return nil
	}
	row := s.matrix.Row(u)
	return lo.Map(row.Indices(), func(item int32, i int) Interaction {
		return Interaction{UserID: userID, ItemID: s.matrix.ItemID(item), Rating: row.Values()[i]}
	})
}

// Raters returns the ratings received by an item ordered by user id.
func (s *Interactions) Raters(itemID string) []Interaction {
	j, ok := s.matrix.ItemIndex(itemID)
	if !ok {
		return nil
	}
	col := s.matrix.Col(j)
	return lo.Map(col.Indices(), func(user int32, i int) Interaction {
		return Interaction{UserID: s.matrix.UserID(user), ItemID: itemID, Rating: col.Values()[i]}
	})
}

// Rows returns every interaction ordered by user then item.
func (s *Interactions) Rows() []Interaction {
	return lo.FlatMap(s.Users(), func(userID string, _ int) []Interaction {
		return s.Ratings(userID)
	})
}

// Rated returns the set of items rated by a user.
func (s *Interactions) Rated(userID string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, r := range s.Ratings(userID) {
		set.Add(r.ItemID)
	}
	return set
}

// Split holds out a share of each user's interactions for evaluation. Users
// with a single interaction keep it in train, and every user with two or more
// keeps at least one. The split only depends on rows and seed.
func Split(rows []Interaction, ratio float64, seed int64) (train, test []Interaction) {
	sorted := append([]Interaction(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UserID != sorted[j].UserID {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})
	rng := rand.New(rand.NewSource(seed))
	for begin := 0; begin < len(sorted); {
		end := begin
		for end < len(sorted) && sorted[end].UserID == sorted[begin].UserID {
			end++
		}
		group := sorted[begin:end]
		n := 0
		if len(group) > 1 && ratio > 0 {
			n = min(max(int(ratio*float64(len(group))), 1), len(group)-1)
		}
		held := mapset.NewThreadUnsafeSet(rng.Perm(len(group))[:n]...)
		for i, row := range group {
			if held.Contains(i) {
				test = append(test, row)
			} else {
				train = append(train, row)
			}
		}
		begin = end
	}
	return train, test
}
