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
	"sync"
	"time"

	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/config"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/logics"
	"github.com/gorse-io/prodrec/query"
	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Engine serves search and recommendation requests over stores loaded in
// memory. Requests run concurrently, Reload swaps every store at once.
type Engine struct {
	mu           sync.RWMutex
	config       *config.Config
	catalog      *dataset.Catalog
	interactions *dataset.Interactions
	neighbors    *similarity.Engine
	searcher     *query.Searcher
	recommender  *logics.Recommender
}

// Open loads the product and interaction tables named by the configuration.
func Open(cfg *config.Config) (*Engine, error) {
	catalog, interactions, err := load(cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, catalog, interactions)
}

// New creates an engine over stores that are already loaded.
func New(cfg *config.Config, catalog *dataset.Catalog, interactions *dataset.Interactions) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config:    cfg,
		neighbors: similarity.NewEngine(interactions.Matrix(), cfg.Recommend.MinInteractions),
	}
	if err := e.swap(catalog, interactions); err != nil {
		return nil, err
	}
	return e, nil
}

func load(cfg *config.Config) (*dataset.Catalog, *dataset.Interactions, error) {
	start := time.Now()
	catalog, err := dataset.LoadProducts(cfg.Data.ProductsPath, cfg.Data.SimilarDelimiter)
	if err != nil {
		return nil, nil, err
	}
	interactions, err := dataset.LoadInteractions(cfg.Data.InteractionsPath, catalog, cfg.Data.DuplicatePolicy)
	if err != nil {
		return nil, nil, err
	}
	log.Logger().Info("load dataset", zap.Duration("used_time", time.Since(start)))
	return catalog, interactions, nil
}

// swap replaces the stores. The caller holds the write lock or owns e.
func (e *Engine) swap(catalog *dataset.Catalog, interactions *dataset.Interactions) error {
	recommender, err := logics.NewRecommender(catalog, interactions, e.neighbors, e.config.Recommend.Options())
	if err != nil {
		return errors.Trace(err)
	}
	e.neighbors.Reset(interactions.Matrix())
	e.catalog = catalog
	e.interactions = interactions
	e.searcher = query.NewSearcher(catalog, e.config.Search.Options())
	e.recommender = recommender
	LoadedProducts.Set(float64(catalog.Len()))
	LoadedInteractions.Set(float64(interactions.Len()))
	return nil
}

// Reload reads both tables again and invalidates cached neighbors. On error
// the engine keeps serving the previous stores.
func (e *Engine) Reload() error {
	catalog, interactions, err := load(e.config)
	if err != nil {
		ReloadTotal.WithLabelValues(StatusError).Inc()
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.swap(catalog, interactions); err != nil {
		ReloadTotal.WithLabelValues(StatusError).Inc()
		return err
	}
	ReloadTotal.WithLabelValues(StatusOK).Inc()
	return nil
}

func (e *Engine) Config() *config.Config {
	return e.config
}

// Search runs a query. A nil sort key uses the query's own ORDER BY or relevance.
func (e *Engine) Search(input string, sortKey *query.SortKey, limit int) ([]query.Result, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()
	results, err := e.searcher.Search(input, sortKey, limit)
	SearchSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		var parseErr *query.ParseError
		if errors.As(err, &parseErr) {
			SearchTotal.WithLabelValues(StatusParseError).Inc()
		} else {
			SearchTotal.WithLabelValues(StatusError).Inc()
		}
		return nil, err
	}
	SearchTotal.WithLabelValues(StatusOK).Inc()
	return results, nil
}

func recommendStatus(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, logics.ErrUnknownUser):
		return StatusUnknownUser
	case errors.Is(err, logics.ErrInsufficientHistory):
		return StatusInsufficientHistory
	default:
		return StatusError
	}
}

func (e *Engine) Recommend(userID string, strategy logics.Strategy, k int) ([]logics.Score, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()
	scores, err := e.recommender.Recommend(userID, strategy, k)
	RecommendSeconds.WithLabelValues(strategy.String()).Observe(time.Since(start).Seconds())
	RecommendTotal.WithLabelValues(strategy.String(), recommendStatus(err)).Inc()
	return scores, err
}

// RecommendOrFallback serves cold-start users from the best sellers.
func (e *Engine) RecommendOrFallback(userID string, strategy logics.Strategy, k int) (*logics.Result, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()
	result, err := e.recommender.RecommendOrFallback(userID, strategy, k)
	RecommendSeconds.WithLabelValues(strategy.String()).Observe(time.Since(start).Seconds())
	status := recommendStatus(err)
	if err == nil && result.Fallback {
		status = StatusFallback
	}
	RecommendTotal.WithLabelValues(strategy.String(), status).Inc()
	return result, err
}

func (e *Engine) BestSellers(category string, n int) []logics.Score {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recommender.BestSellers(category, n)
}

func (e *Engine) AnalyzeCoPurchase(userID string) (*logics.CoPurchaseAnalysis, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recommender.AnalyzeCoPurchase(userID)
}

func (e *Engine) CoPurchasers(productID string) (*logics.ProductCoPurchase, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recommender.CoPurchasers(productID)
}

func (e *Engine) CategoryStats() []dataset.CategoryStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.CategoryStats()
}

type Summary struct {
	Products     int `json:"products"`
	Categories   int `json:"categories"`
	Users        int `json:"users"`
	Items        int `json:"items"`
	Interactions int `json:"interactions"`
	Duplicates   int `json:"duplicates"`
	Orphans      int `json:"orphans"`
}

func (e *Engine) Summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Summary{
		Products:     e.catalog.Len(),
		Categories:   len(e.catalog.Categories()),
		Users:        e.interactions.Matrix().CountUsers(),
		Items:        e.interactions.Matrix().CountItems(),
		Interactions: e.interactions.Len(),
		Duplicates:   e.interactions.Duplicates(),
		Orphans:      e.interactions.Orphans(),
	}
}

// Evaluate holds out a share of each user's interactions, trains a separate
// recommender on the rest and measures it on the held-out part. The serving
// stores and their cache are left untouched.
func (e *Engine) Evaluate(ctx context.Context, strategy logics.Strategy, k int, ratio float64, seed int64) (*logics.Evaluation, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.NotValidf("test ratio %v", ratio)
	}
	e.mu.RLock()
	catalog, interactions := e.catalog, e.interactions
	e.mu.RUnlock()
	train, test := dataset.Split(interactions.Rows(), ratio, seed)
	trainSet, err := dataset.NewInteractions(train, dataset.DuplicateLast, interactions.Users()...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	neighbors := similarity.NewEngine(trainSet.Matrix(), e.config.Recommend.MinInteractions)
	recommender, err := logics.NewRecommender(catalog, trainSet, neighbors, e.config.Recommend.Options())
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	evaluation, err := recommender.Evaluate(ctx, test, strategy, k)
	if err != nil {
		return nil, err
	}
	log.Logger().Info("evaluate recommendation",
		zap.Stringer("strategy", strategy),
		zap.Int("train", len(train)),
		zap.Int("test", len(test)),
		zap.Float64("precision", evaluation.Precision),
		zap.Float64("recall", evaluation.Recall),
		zap.Duration("used_time", time.Since(start)))
	return evaluation, nil
}
