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

	"github.com/gorse-io/prodrec/query"
	"github.com/spf13/cobra"
)

var searchCommand = &cobra.Command{
	Use:   "search [query]",
	Short: "Search products, e.g. 'category = Books AND price <= 30'",
	Run: func(cmd *cobra.Command, args []string) {
		var sortKey *query.SortKey
		if sort, _ := cmd.Flags().GetString("sort"); sort != "" {
			key, err := query.ParseSortKey(sort)
			if err != nil {
				fail(err)
			}
			sortKey = &key
		}
		limit, _ := cmd.Flags().GetInt("limit")
		e := openEngine(cmd)
		results, err := e.Search(strings.Join(args, " "), sortKey, limit)
		if err != nil {
			fail(err)
		}
		output(cmd, results, func(w io.Writer) error {
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{
					strconv.Itoa(i + 1),
					r.Product.ID,
					r.Product.Title,
					r.Product.Category,
					strconv.FormatFloat(r.Product.Price, 'f', 2, 64),
					strconv.FormatFloat(r.Product.Rating, 'f', 1, 64),
					strconv.Itoa(r.Product.ReviewCount),
					formatFloat(r.Score),
				}
			}
			return renderTable(w, []string{"#", "id", "title", "category", "price", "rating", "reviews", "relevance"}, rows)
		})
	},
}

func init() {
	searchCommand.Flags().String("sort", "", "sort key, e.g. 'price desc' or '-rating'")
	searchCommand.Flags().IntP("limit", "n", 0, "maximum number of results")
	rootCommand.AddCommand(searchCommand)
}
