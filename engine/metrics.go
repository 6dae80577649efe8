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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStatus   = "status"
	LabelStrategy = "strategy"

	StatusOK                  = "ok"
	StatusParseError          = "parse_error"
	StatusUnknownUser         = "unknown_user"
	StatusInsufficientHistory = "insufficient_history"
	StatusFallback            = "fallback"
	StatusError               = "error"
)

var (
	SearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "search_total",
	}, []string{LabelStatus})
	SearchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "search_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	RecommendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "recommend_total",
	}, []string{LabelStrategy, LabelStatus})
	RecommendSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "recommend_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{LabelStrategy})
	ReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "reload_total",
	}, []string{LabelStatus})
	LoadedProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "loaded_products",
	})
	LoadedInteractions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodrec",
		Subsystem: "engine",
		Name:      "loaded_interactions",
	})
)
