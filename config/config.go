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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/logics"
	"github.com/gorse-io/prodrec/query"
	"github.com/gorse-io/prodrec/similarity"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the engine.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Search    SearchConfig    `mapstructure:"search"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

type DataConfig struct {
	ProductsPath     string                  `mapstructure:"products_path" validate:"required"`
	InteractionsPath string                  `mapstructure:"interactions_path" validate:"required"`
	SimilarDelimiter string                  `mapstructure:"similar_delimiter" validate:"required"`
	DuplicatePolicy  dataset.DuplicatePolicy `mapstructure:"duplicate_policy"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"gt=0"`
	MaxLimit     int `mapstructure:"max_limit" validate:"gtefield=DefaultLimit"`
}

type RecommendConfig struct {
	Metric          similarity.Metric      `mapstructure:"metric"`
	Neighbors       int                    `mapstructure:"neighbors" validate:"gt=0"`
	DefaultK        int                    `mapstructure:"default_k" validate:"gt=0"`
	MinInteractions int                    `mapstructure:"min_interactions" validate:"gte=1"`
	MinSimilarity   float64                `mapstructure:"min_similarity" validate:"gte=0,lt=1"`
	PopularityField logics.PopularityField `mapstructure:"popularity_field"`
	DefaultStrategy logics.Strategy        `mapstructure:"default_strategy"`
	NumJobs         int                    `mapstructure:"num_jobs" validate:"gt=0"`
	BestSellers     BestSellersConfig      `mapstructure:"best_sellers"`
}

type BestSellersConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Score  string `mapstructure:"score" validate:"required"`
	Filter string `mapstructure:"filter"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			ProductsPath:     "data/products.csv",
			InteractionsPath: "data/interactions.csv",
			SimilarDelimiter: "|",
			DuplicatePolicy:  dataset.DuplicateLast,
		},
		Search: SearchConfig{
			DefaultLimit: 50,
			MaxLimit:     1000,
		},
		Recommend: RecommendConfig{
			Metric:          similarity.Cosine,
			Neighbors:       50,
			DefaultK:        10,
			MinInteractions: 2,
			MinSimilarity:   0,
			PopularityField: logics.ByReviewCount,
			DefaultStrategy: logics.ItemCF,
			NumJobs:         1,
			BestSellers: BestSellersConfig{
				Name:   logics.BestSellersOptions.Name,
				Score:  logics.BestSellersOptions.Score,
				Filter: logics.BestSellersOptions.Filter,
			},
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.products_path", defaultConfig.Data.ProductsPath)
	v.SetDefault("data.interactions_path", defaultConfig.Data.InteractionsPath)
	v.SetDefault("data.similar_delimiter", defaultConfig.Data.SimilarDelimiter)
	v.SetDefault("data.duplicate_policy", defaultConfig.Data.DuplicatePolicy.String())
	// [search]
	v.SetDefault("search.default_limit", defaultConfig.Search.DefaultLimit)
	v.SetDefault("search.max_limit", defaultConfig.Search.MaxLimit)
	// [recommend]
	v.SetDefault("recommend.metric", defaultConfig.Recommend.Metric.String())
	v.SetDefault("recommend.neighbors", defaultConfig.Recommend.Neighbors)
	v.SetDefault("recommend.default_k", defaultConfig.Recommend.DefaultK)
	v.SetDefault("recommend.min_interactions", defaultConfig.Recommend.MinInteractions)
	v.SetDefault("recommend.min_similarity", defaultConfig.Recommend.MinSimilarity)
	v.SetDefault("recommend.popularity_field", defaultConfig.Recommend.PopularityField.String())
	v.SetDefault("recommend.default_strategy", defaultConfig.Recommend.DefaultStrategy.String())
	v.SetDefault("recommend.num_jobs", defaultConfig.Recommend.NumJobs)
	// [recommend.best_sellers]
	v.SetDefault("recommend.best_sellers.name", defaultConfig.Recommend.BestSellers.Name)
	v.SetDefault("recommend.best_sellers.score", defaultConfig.Recommend.BestSellers.Score)
	v.SetDefault("recommend.best_sellers.filter", defaultConfig.Recommend.BestSellers.Filter)
}

type configBinding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) error {
	bindings := []configBinding{
		{"data.products_path", "PRODREC_PRODUCTS_PATH"},
		{"data.interactions_path", "PRODREC_INTERACTIONS_PATH"},
		{"data.similar_delimiter", "PRODREC_SIMILAR_DELIMITER"},
		{"data.duplicate_policy", "PRODREC_DUPLICATE_POLICY"},
		{"search.default_limit", "PRODREC_SEARCH_DEFAULT_LIMIT"},
		{"search.max_limit", "PRODREC_SEARCH_MAX_LIMIT"},
		{"recommend.metric", "PRODREC_METRIC"},
		{"recommend.neighbors", "PRODREC_NEIGHBORS"},
		{"recommend.default_k", "PRODREC_DEFAULT_K"},
		{"recommend.min_interactions", "PRODREC_MIN_INTERACTIONS"},
		{"recommend.min_similarity", "PRODREC_MIN_SIMILARITY"},
		{"recommend.popularity_field", "PRODREC_POPULARITY_FIELD"},
		{"recommend.default_strategy", "PRODREC_STRATEGY"},
		{"recommend.num_jobs", "PRODREC_NUM_JOBS"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. Missing keys take default
// values and PRODREC_* environment variables override the file. An empty
// path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.NewNotValid(err, "decode config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (config *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	if !config.Recommend.Metric.Valid() {
		return errors.NotValidf("recommend.metric %v", config.Recommend.Metric)
	}
	if !config.Recommend.DefaultStrategy.Valid() {
		return errors.NotValidf("recommend.default_strategy %v", config.Recommend.DefaultStrategy)
	}
	if strings.TrimSpace(config.Data.SimilarDelimiter) == "" {
		return errors.NotValidf("data.similar_delimiter %q", config.Data.SimilarDelimiter)
	}
	return nil
}

func (config *SearchConfig) Options() query.Options {
	return query.Options{
		DefaultLimit: config.DefaultLimit,
		MaxLimit:     config.MaxLimit,
	}
}

func (config *RecommendConfig) Options() logics.Options {
	return logics.Options{
		Metric:          config.Metric,
		Neighbors:       config.Neighbors,
		DefaultK:        config.DefaultK,
		MinInteractions: config.MinInteractions,
		MinSimilarity:   config.MinSimilarity,
		Popularity:      config.PopularityField,
		NumJobs:         config.NumJobs,
		BestSellers: logics.NonPersonalizedOptions{
			Name:   config.BestSellers.Name,
			Score:  config.BestSellers.Score,
			Filter: config.BestSellers.Filter,
		},
	}
}
