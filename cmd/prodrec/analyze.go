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
	"io"
	"strconv"
	"strings"

	"github.com/gorse-io/prodrec/dataset"
	"github.com/gorse-io/prodrec/engine"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze [user_id]",
	Short: "Analyze co-purchasing patterns of a user or, with --product, a product",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(cmd)
		if productID, _ := cmd.Flags().GetString("product"); productID != "" {
			result, err := e.CoPurchasers(productID)
			if err != nil {
				fail(err)
			}
			output(cmd, result, func(w io.Writer) error {
				return renderTable(w, []string{"product", "similar", "co-purchasers", "reviewers", "similar reviewers", "similar products"}, [][]string{{
					result.ProductID,
					strconv.Itoa(result.SimilarCount),
					strconv.Itoa(result.CoPurchasers),
					strconv.Itoa(result.OriginalReviewers),
					strconv.Itoa(result.SimilarReviewers),
					strings.Join(result.SimilarProducts, " "),
				}})
			})
			return
		}
		if len(args) == 0 {
			fail(errors.New("analyze requires a user id or --product"))
		}
		analysis, err := e.AnalyzeCoPurchase(args[0])
		if err != nil {
			fail(err)
		}
		output(cmd, analysis, func(w io.Writer) error {
			buyers := make([][]string, len(analysis.TopCoPurchasers))
			for i, c := range analysis.TopCoPurchasers {
				buyers[i] = []string{c.UserID, strconv.Itoa(c.Shared)}
			}
			if err := renderTable(w, []string{"co-purchaser", "shared"}, buyers); err != nil {
				return err
			}
			return renderTable(w, scoreHeader, scoreRows(analysis.Items))
		})
	},
}

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show dataset and category statistics",
	Run: func(cmd *cobra.Command, args []string) {
		e := openEngine(cmd)
		summary := e.Summary()
		categories := e.CategoryStats()
		output(cmd, struct {
			engine.Summary
			Categories []dataset.CategoryStats `json:"category_stats"`
		}{summary, categories}, func(w io.Writer) error {
			if err := renderTable(w, []string{"products", "categories", "users", "items", "interactions", "duplicates", "orphans"}, [][]string{{
				strconv.Itoa(summary.Products),
				strconv.Itoa(summary.Categories),
				strconv.Itoa(summary.Users),
				strconv.Itoa(summary.Items),
				strconv.Itoa(summary.Interactions),
				strconv.Itoa(summary.Duplicates),
				strconv.Itoa(summary.Orphans),
			}}); err != nil {
				return err
			}
			rows := make([][]string, len(categories))
			for i, c := range categories {
				rows[i] = []string{
					c.Category,
					strconv.Itoa(c.Products),
					strconv.FormatFloat(c.AvgRating, 'f', 2, 64),
					strconv.Itoa(c.TotalReviews),
					strconv.Itoa(c.Ranked),
				}
			}
			return renderTable(w, []string{"category", "products", "avg rating", "reviews", "ranked"}, rows)
		})
	},
}

func init() {
	analyzeCommand.Flags().String("product", "", "analyze a product instead of a user")
	rootCommand.AddCommand(analyzeCommand, statsCommand)
}
