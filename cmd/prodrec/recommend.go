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
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/prodrec/logics"
	"github.com/spf13/cobra"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend user_id",
	Short: "Recommend products to a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(cmd)
		strategy := e.Config().Recommend.DefaultStrategy
		if name, _ := cmd.Flags().GetString("strategy"); name != "" {
			var err error
			if strategy, err = logics.ParseStrategy(name); err != nil {
				fail(err)
			}
		}
		k, _ := cmd.Flags().GetInt("k")
		var result *logics.Result
		if noFallback, _ := cmd.Flags().GetBool("no-fallback"); noFallback {
			items, err := e.Recommend(args[0], strategy, k)
			if err != nil {
				fail(err)
			}
			result = &logics.Result{Source: strategy.String(), Items: items}
		} else {
			var err error
			if result, err = e.RecommendOrFallback(args[0], strategy, k); err != nil {
				fail(err)
			}
		}
		output(cmd, result, func(w io.Writer) error {
			if result.Fallback {
				if _, err := fmt.Fprintf(w, "%s (%s)\n", result.Source, result.Reason); err != nil {
					return err
				}
			}
			return renderTable(w, scoreHeader, scoreRows(result.Items))
		})
	},
}

var bestSellersCommand = &cobra.Command{
	Use:   "best-sellers",
	Short: "List best sellers, optionally in a category",
	Run: func(cmd *cobra.Command, args []string) {
		category, _ := cmd.Flags().GetString("category")
		n, _ := cmd.Flags().GetInt("n")
		e := openEngine(cmd)
		scores := e.BestSellers(category, n)
		output(cmd, scores, func(w io.Writer) error {
			return renderTable(w, scoreHeader, scoreRows(scores))
		})
	},
}

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure precision and recall on held-out interactions",
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(cmd)
		strategy := e.Config().Recommend.DefaultStrategy
		if name, _ := cmd.Flags().GetString("strategy"); name != "" {
			var err error
			if strategy, err = logics.ParseStrategy(name); err != nil {
				fail(err)
			}
		}
		k, _ := cmd.Flags().GetInt("k")
		ratio, _ := cmd.Flags().GetFloat64("test-ratio")
		seed, _ := cmd.Flags().GetInt64("seed")
		evaluation, err := e.Evaluate(cmd.Context(), strategy, k, ratio, seed)
		if err != nil {
			fail(err)
		}
		output(cmd, evaluation, func(w io.Writer) error {
			return renderTable(w, []string{"strategy", "k", "precision", "recall", "f1", "users", "skipped"}, [][]string{{
				evaluation.Strategy.String(),
				strconv.Itoa(evaluation.K),
				formatFloat(evaluation.Precision),
				formatFloat(evaluation.Recall),
				formatFloat(evaluation.F1),
				strconv.Itoa(evaluation.Users),
				strconv.Itoa(evaluation.Skipped),
			}})
		})
	},
}

func init() {
	recommendCommand.Flags().StringP("strategy", "s", "", "user_cf, item_cf, co_purchase or hybrid")
	recommendCommand.Flags().IntP("k", "k", 0, "number of recommendations")
	recommendCommand.Flags().Bool("no-fallback", false, "report cold start users instead of serving best sellers")
	bestSellersCommand.Flags().String("category", "", "restrict to a category")
	bestSellersCommand.Flags().IntP("n", "n", 0, "number of products")
	evaluateCommand.Flags().StringP("strategy", "s", "", "user_cf, item_cf, co_purchase or hybrid")
	evaluateCommand.Flags().IntP("k", "k", 0, "number of recommendations per user")
	evaluateCommand.Flags().Float64("test-ratio", 0.2, "share of each user's interactions held out")
	evaluateCommand.Flags().Int64("seed", 0, "random seed of the split")
	rootCommand.AddCommand(recommendCommand, bestSellersCommand, evaluateCommand)
}
