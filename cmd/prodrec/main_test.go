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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/logics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	products, interactions, err := dataset.Generate(dataset.GenerateOptions{Products: 20, Users: 5, Interactions: 50, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, writeDataset(dir, "|", products, interactions))

	catalog, err := dataset.LoadProducts(filepath.Join(dir, "products.csv"), "|")
	require.NoError(t, err)
	assert.Equal(t, len(products), catalog.Len())
	store, err := dataset.LoadInteractions(filepath.Join(dir, "interactions.csv"), catalog, dataset.DuplicateReject)
	require.NoError(t, err)
	assert.Equal(t, len(interactions), store.Len())
	_, err = os.Stat(filepath.Join(dir, "products.csv"))
	assert.NoError(t, err)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	scores := []logics.Score{{Product: &dataset.Product{ID: "p1", Title: "Cheap Book", Category: "Books", Price: 25}, Score: 0.5}}
	require.NoError(t, renderTable(&buf, scoreHeader, scoreRows(scores)))
	assert.Contains(t, buf.String(), "Cheap Book")
	assert.Contains(t, buf.String(), "25.00")
	assert.Contains(t, buf.String(), "0.5000")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	rootCommand.SetOut(&buf)
	defer rootCommand.SetOut(nil)
	require.NoError(t, rootCommand.ParseFlags([]string{"--json"}))
	defer func() {
		_ = rootCommand.ParseFlags([]string{"--json=false"})
	}()
	output(rootCommand, map[string]int{"products": 3}, nil)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["products"])
}
