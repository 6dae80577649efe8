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

package logics

import (
	"math"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/common/heap"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type NonPersonalizedOptions struct {
	Name   string
	Score  string
	Filter string
}

var (
	// BestSellersOptions ranks products by ascending sales rank.
	BestSellersOptions = NonPersonalizedOptions{
		Name:   "best_sellers",
		Score:  "-item.SalesRank",
		Filter: "item.SalesRank > 0",
	}
	// PopularOptions ranks products by rating damped by review volume.
	PopularOptions = NonPersonalizedOptions{
		Name:  "popular",
		Score: "item.Rating * log1p(float(item.ReviewCount))",
	}
)

func environment() []expr.Option {
	return []expr.Option{
		expr.Env(map[string]any{
			"item": dataset.Product{},
		}),
		expr.Function("log1p", func(params ...any) (any, error) {
			return math.Log1p(params[0].(float64)), nil
		}, new(func(float64) float64)),
	}
}

// NonPersonalized ranks products by a score expression, optionally restricted
// by a filter expression.
type NonPersonalized struct {
	name       string
	scoreFunc  *vm.Program
	filterFunc *vm.Program
}

func NewNonPersonalized(opts NonPersonalizedOptions) (*NonPersonalized, error) {
	// Compile score expression
	scoreFunc, err := expr.Compile(opts.Score, environment()...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch scoreFunc.Node().Type().Kind() {
	case reflect.Float64, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return nil, errors.New("score function must return float64")
	}
	// Compile filter expression
	var filterFunc *vm.Program
	if opts.Filter != "" {
		filterFunc, err = expr.Compile(opts.Filter, environment()...)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if filterFunc.Node().Type().Kind() != reflect.Bool {
			return nil, errors.New("filter function must return bool")
		}
	}
	name := opts.Name
	if name == "" {
		name = "non_personalized"
	}
	return &NonPersonalized{
		name:       name,
		scoreFunc:  scoreFunc,
		filterFunc: filterFunc,
	}, nil
}

func NewBestSellers() *NonPersonalized {
	return lo.Must(NewNonPersonalized(BestSellersOptions))
}

func NewPopular() *NonPersonalized {
	return lo.Must(NewNonPersonalized(PopularOptions))
}

func (l *NonPersonalized) Name() string {
	return l.name
}

// score evaluates the programs on a product. The flag is false when the
// product is filtered out or evaluation fails.
func (l *NonPersonalized) score(p *dataset.Product) (float64, bool) {
	env := map[string]any{"item": *p}
	// Evaluate filter function
	if l.filterFunc != nil {
		result, err := expr.Run(l.filterFunc, env)
		if err != nil {
			log.Logger().Error("evaluate filter function", zap.String("product_id", p.ID), zap.Error(err))
			return 0, false
		}
		if !result.(bool) {
			return 0, false
		}
	}
	// Evaluate score function
	result, err := expr.Run(l.scoreFunc, env)
	if err != nil {
		log.Logger().Error("evaluate score function", zap.String("product_id", p.ID), zap.Error(err))
		return 0, false
	}
	switch typed := result.(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		log.Logger().Error("score function must return float64", zap.Any("result", result))
		return 0, false
	}
}

// Rank returns the top n products of a category, or of the whole catalog
// when category is empty. Ties are broken by ascending product id. The
// exclude predicate may be nil.
func (l *NonPersonalized) Rank(catalog *dataset.Catalog, category string, n int, exclude func(id string) bool) []Score {
	filter := heap.NewTopKFilter[string, float64](n)
	for _, p := range catalog.Products() {
		if category != "" && !sameCategory(p.Category, category) {
			continue
		}
		if exclude != nil && exclude(p.ID) {
			continue
		}
		if score, ok := l.score(p); ok {
			filter.Push(p.ID, score)
		}
	}
	return lo.FilterMap(filter.PopAll(), func(e heap.Elem[string, float64], _ int) (Score, bool) {
		p, ok := catalog.Get(e.Value)
		return Score{Product: p, Score: e.Weight}, ok
	})
}

// sameCategory compares categories ignoring case and a plural suffix, so
// "book" matches "Books".
func sameCategory(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	return a == b || strings.TrimSuffix(a, "s") == strings.TrimSuffix(b, "s")
}

// BestSellers returns the configured non-personalized ranking.
func (r *Recommender) BestSellers(category string, n int) []Score {
	if n <= 0 {
		n = r.opts.DefaultK
	}
	return r.bestSellers.Rank(r.catalog, category, n, nil)
}

// Result is a recommendation list with its provenance.
type Result struct {
	// Source is the strategy or non-personalized ranking that produced Items.
	Source   string  `json:"source"`
	Fallback bool    `json:"fallback"`
	Reason   string  `json:"reason,omitempty"`
	Items    []Score `json:"items"`
}

// RecommendOrFallback serves cold-start users from the best sellers, minus
// products they already rated.
func (r *Recommender) RecommendOrFallback(userID string, strategy Strategy, k int) (*Result, error) {
	items, err := r.Recommend(userID, strategy, k)
	if err == nil {
		return &Result{Source: strategy.String(), Items: items}, nil
	}
	if !errors.Is(err, ErrUnknownUser) && !errors.Is(err, ErrInsufficientHistory) {
		return nil, err
	}
	if k <= 0 {
		k = r.opts.DefaultK
	}
	rated := r.interactions.Rated(userID)
	log.Logger().Debug("fall back to non-personalized recommendation",
		zap.String("user_id", userID), zap.String("source", r.bestSellers.Name()), zap.Error(err))
	return &Result{
		Source:   r.bestSellers.Name(),
		Fallback: true,
		Reason:   err.Error(),
		Items:    r.bestSellers.Rank(r.catalog, "", k, rated.ContainsOne),
	}, nil
}
