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

package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorse-io/prodrec/config"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/logics"
	"github.com/gorse-io/prodrec/query"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	config   *config.Config
	products []dataset.Product
	rows     []dataset.Interaction
	engine   *Engine
}

func (suite *EngineTestSuite) writeData(products []dataset.Product, rows []dataset.Interaction) {
	file, err := os.Create(suite.config.Data.ProductsPath)
	suite.Require().NoError(err)
	suite.Require().NoError(dataset.WriteProducts(file, products, suite.config.Data.SimilarDelimiter))
	suite.Require().NoError(file.Close())
	file, err = os.Create(suite.config.Data.InteractionsPath)
	suite.Require().NoError(err)
	suite.Require().NoError(dataset.WriteInteractions(file, rows))
	suite.Require().NoError(file.Close())
}

func (suite *EngineTestSuite) SetupTest() {
	dir := suite.T().TempDir()
	suite.config = config.GetDefaultConfig()
	suite.config.Data.ProductsPath = filepath.Join(dir, "products.csv")
	suite.config.Data.InteractionsPath = filepath.Join(dir, "interactions.csv")
	var err error
	suite.products, suite.rows, err = dataset.Generate(dataset.GenerateOptions{Products: 80, Users: 50, Interactions: 1000, Seed: 3})
	suite.Require().NoError(err)
	suite.products = append(suite.products,
		dataset.Product{ID: "book-25", Title: "Cheap Book", Category: "Books", Price: 25, Rating: 4},
		dataset.Product{ID: "book-40", Title: "Dear Book", Category: "Books", Price: 40, Rating: 4})
	suite.writeData(suite.products, suite.rows)
	suite.engine, err = Open(suite.config)
	suite.Require().NoError(err)
}

// activeUser returns the user with the most interactions.
func (suite *EngineTestSuite) activeUser() string {
	counts := make(map[string]int)
	best := ""
	for _, row := range suite.rows {
		counts[row.UserID]++
		if n := counts[row.UserID]; n > counts[best] || (n == counts[best] && row.UserID < best) {
			best = row.UserID
		}
	}
	return best
}

func (suite *EngineTestSuite) TestSummary() {
	summary := suite.engine.Summary()
	suite.Equal(len(suite.products), summary.Products)
	suite.Equal(len(suite.rows), summary.Interactions)
	suite.Zero(summary.Orphans)
	suite.NotEmpty(suite.engine.CategoryStats())
}

func (suite *EngineTestSuite) TestSearch() {
	before := testutil.ToFloat64(SearchTotal.WithLabelValues(StatusOK))
	results, err := suite.engine.Search(`id ~ "book-" AND category = Books AND price <= 30`, nil, 0)
	suite.NoError(err)
	suite.Len(results, 1)
	suite.Equal("book-25", results[0].Product.ID)
	suite.Equal(before+1, testutil.ToFloat64(SearchTotal.WithLabelValues(StatusOK)))

	results, err = suite.engine.Search("", &query.SortKey{Field: query.FieldPrice}, 5)
	suite.NoError(err)
	suite.Len(results, 5)

	before = testutil.ToFloat64(SearchTotal.WithLabelValues(StatusParseError))
	_, err = suite.engine.Search("price >", nil, 0)
	var parseErr *query.ParseError
	suite.True(errors.As(err, &parseErr))
	suite.Equal(before+1, testutil.ToFloat64(SearchTotal.WithLabelValues(StatusParseError)))
}

func (suite *EngineTestSuite) TestRecommend() {
	userID := suite.activeUser()
	strategy := suite.config.Recommend.DefaultStrategy
	before := testutil.ToFloat64(RecommendTotal.WithLabelValues(strategy.String(), StatusOK))
	scores, err := suite.engine.Recommend(userID, strategy, 5)
	suite.NoError(err)
	suite.LessOrEqual(len(scores), 5)
	suite.Equal(before+1, testutil.ToFloat64(RecommendTotal.WithLabelValues(strategy.String(), StatusOK)))

	_, err = suite.engine.Recommend("nobody", strategy, 5)
	suite.ErrorIs(err, logics.ErrUnknownUser)

	before = testutil.ToFloat64(RecommendTotal.WithLabelValues(strategy.String(), StatusFallback))
	result, err := suite.engine.RecommendOrFallback("nobody", strategy, 5)
	suite.NoError(err)
	suite.True(result.Fallback)
	suite.Len(result.Items, 5)
	suite.Equal(before+1, testutil.ToFloat64(RecommendTotal.WithLabelValues(strategy.String(), StatusFallback)))

	suite.Len(suite.engine.BestSellers("", 3), 3)
	analysis, err := suite.engine.AnalyzeCoPurchase(userID)
	suite.NoError(err)
	suite.Equal(userID, analysis.UserID)
	_, err = suite.engine.CoPurchasers(suite.products[0].ID)
	suite.NoError(err)
}

func (suite *EngineTestSuite) TestReload() {
	suite.products = append(suite.products, dataset.Product{ID: "new", Title: "Brand New", Category: "Toys", Price: 1, Rating: 5})
	suite.rows = append(suite.rows, dataset.Interaction{UserID: "newcomer", ItemID: "new", Rating: 5})
	suite.writeData(suite.products, suite.rows)
	suite.NoError(suite.engine.Reload())
	results, err := suite.engine.Search(`id = new`, nil, 0)
	suite.NoError(err)
	suite.Len(results, 1)
	_, err = suite.engine.Recommend("newcomer", logics.CoPurchase, 5)
	suite.NoError(err)

	// a broken file keeps the previous stores
	suite.Require().NoError(os.WriteFile(suite.config.Data.ProductsPath, []byte("id,title\n"), 0644))
	err = suite.engine.Reload()
	var loadErr *dataset.LoadError
	suite.True(errors.As(err, &loadErr))
	suite.Equal(len(suite.products), suite.engine.Summary().Products)
}

func (suite *EngineTestSuite) TestConcurrentReload() {
	userID := suite.activeUser()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := suite.engine.Recommend(userID, logics.ItemCF, 5)
				suite.NoError(err)
				_, err = suite.engine.Search("rating >= 3", nil, 10)
				suite.NoError(err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		suite.NoError(suite.engine.Reload())
	}
	wg.Wait()
}

func (suite *EngineTestSuite) TestEvaluate() {
	evaluation, err := suite.engine.Evaluate(context.Background(), logics.ItemCF, 10, 0.2, 1)
	suite.NoError(err)
	suite.Equal(10, evaluation.K)
	suite.GreaterOrEqual(evaluation.Precision, 0.0)
	suite.LessOrEqual(evaluation.Recall, 1.0)
	again, err := suite.engine.Evaluate(context.Background(), logics.ItemCF, 10, 0.2, 1)
	suite.NoError(err)
	suite.Equal(evaluation, again)

	_, err = suite.engine.Evaluate(context.Background(), logics.ItemCF, 10, 1.5, 1)
	suite.True(errors.Is(err, errors.NotValid))
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestOpenMissingFile(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Data.ProductsPath = filepath.Join(t.TempDir(), "missing.csv")
	_, err := Open(cfg)
	var loadErr *dataset.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, cfg.Data.ProductsPath, loadErr.Path)
}
