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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsCSV = `id,title,category,price,rating,review_count,salesrank,similar_ids
1,Go Programming,Books,25,4.5,120,3,2|3
2,"Rust, the Book",Books,40,4.8,80,,1
3,Headphones,Electronics,99.9,3.9,300,-1,
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadCatalog(t *testing.T) *Catalog {
	catalog, err := LoadProducts(writeFile(t, "products.csv", productsCSV), "|")
	require.NoError(t, err)
	return catalog
}

func TestLoadProducts(t *testing.T) {
	catalog := loadCatalog(t)
	assert.Equal(t, 3, catalog.Len())
	p, _ := catalog.Get("1")
	assert.Equal(t, Product{
		ID: "1", Title: "Go Programming", Category: "Books", Price: 25, Rating: 4.5,
		ReviewCount: 120, SalesRank: 3, SimilarIDs: []string{"2", "3"},
	}, *p)
	p, _ = catalog.Get("2")
	assert.Equal(t, "Rust, the Book", p.Title)
	assert.False(t, p.Ranked())
	p, _ = catalog.Get("3")
	assert.False(t, p.Ranked())
	assert.Empty(t, p.SimilarIDs)
}

func TestLoadProductsAliases(t *testing.T) {
	text := "asin,title,group,price,avg_rating,total_reviews,sales_rank\nB1,Go,Books,1,4,2,7\n"
	catalog, err := ReadProducts("products", strings.NewReader(text), "")
	require.NoError(t, err)
	p, ok := catalog.Get("B1")
	require.True(t, ok)
	assert.Equal(t, "Books", p.Category)
	assert.Equal(t, 7, p.SalesRank)
}

func TestLoadProductsError(t *testing.T) {
	var loadErr *LoadError
	// missing file
	_, err := LoadProducts(filepath.Join(t.TempDir(), "missing.csv"), "|")
	require.ErrorAs(t, err, &loadErr)
	assert.Zero(t, loadErr.Line)
	assert.True(t, os.IsNotExist(errors.Cause(loadErr.Err)))
	// empty file
	_, err = ReadProducts("empty", strings.NewReader(""), "|")
	assert.ErrorAs(t, err, &loadErr)
	// missing column
	_, err = ReadProducts("products", strings.NewReader("id,title,category,price,rating\n"), "|")
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(loadErr.Err, errors.NotFound))
	// bad number
	_, err = ReadProducts("products", strings.NewReader(productsCSV+"4,Bad,Books,abc,1,1,,\n"), "|")
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 5, loadErr.Line)
	assert.Contains(t, err.Error(), "products:5")
	// rating out of range
	_, err = ReadProducts("products", strings.NewReader(productsCSV+"4,Bad,Books,1,6,1,,\n"), "|")
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(loadErr.Err, errors.NotValid))
	// fractional count
	_, err = ReadProducts("products", strings.NewReader(productsCSV+"4,Bad,Books,1,1,1.5,,\n"), "|")
	assert.ErrorAs(t, err, &loadErr)
	// duplicate id
	_, err = ReadProducts("products", strings.NewReader(productsCSV+"1,Again,Books,1,1,1,,\n"), "|")
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(loadErr.Err, errors.AlreadyExists))
}

func TestLoadInteractions(t *testing.T) {
	catalog := loadCatalog(t)
	path := writeFile(t, "ratings.csv", `user_id,item_id,rating,timestamp
a,1,5,100
a,2,4,101
b,1,3,102
b,9,1,103
c,9,2,104
a,1,2,105
`)
	interactions, err := LoadInteractions(path, catalog, DuplicateFirst)
	require.NoError(t, err)
	assert.Equal(t, 2, interactions.Orphans())
	assert.Equal(t, 1, interactions.Duplicates())
	assert.Equal(t, 3, interactions.Len())
	assert.Equal(t, []Interaction{{"a", "1", 5}, {"a", "2", 4}}, interactions.Ratings("a"))
	// users whose every row was an orphan are still known
	assert.True(t, interactions.HasUser("c"))
	assert.Equal(t, 0, interactions.Count("c"))

	_, err = LoadInteractions(path, catalog, DuplicateReject)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadInteractionsError(t *testing.T) {
	catalog := loadCatalog(t)
	var loadErr *LoadError
	_, err := ReadInteractions("ratings", strings.NewReader("user_id,item_id\na,1\n"), catalog, DuplicateLast)
	assert.ErrorAs(t, err, &loadErr)
	_, err = ReadInteractions("ratings", strings.NewReader("user_id,item_id,rating\na,1,x\n"), catalog, DuplicateLast)
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 2, loadErr.Line)
	_, err = ReadInteractions("ratings", strings.NewReader("user_id,item_id,rating\n,1,1\n"), catalog, DuplicateLast)
	assert.ErrorAs(t, err, &loadErr)
	_, err = LoadInteractions(filepath.Join(t.TempDir(), "missing.csv"), catalog, DuplicateLast)
	assert.ErrorAs(t, err, &loadErr)
}

func TestWriteAndRead(t *testing.T) {
	products := []Product{
		{ID: "1", Title: "A, B", Category: "Books", Price: 1.5, Rating: 4, ReviewCount: 1, SalesRank: 2, SimilarIDs: []string{"2"}},
		{ID: "2", Title: "C", Category: "Music", Price: 2, Rating: 3, ReviewCount: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products, "|"))
	catalog, err := ReadProducts("products", &buf, "|")
	require.NoError(t, err)
	for _, expected := range products {
		p, ok := catalog.Get(expected.ID)
		require.True(t, ok)
		assert.Equal(t, expected, *p)
	}

	buf.Reset()
	rows := []Interaction{{"u", "1", 4.5}, {"u", "2", 1}}
	require.NoError(t, WriteInteractions(&buf, rows))
	interactions, err := ReadInteractions("ratings", &buf, catalog, DuplicateLast)
	require.NoError(t, err)
	assert.Equal(t, rows, interactions.Ratings("u"))
}
