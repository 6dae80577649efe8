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
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/cmd/version"
	"github.com/gorse-io/prodrec/config"
	"github.com/gorse-io/prodrec/engine"
	"github.com/gorse-io/prodrec/logics"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "prodrec",
	Short: "Product search and recommendation over a product catalog.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().Bool("json", false, "print results as JSON")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// openEngine loads the configuration and both tables. Load errors are fatal.
func openEngine(cmd *cobra.Command) *engine.Engine {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.String("config", configPath), zap.Error(err))
	}
	e, err := engine.Open(conf)
	if err != nil {
		log.Logger().Fatal("failed to load data", zap.Error(err))
	}
	return e
}

// fail reports a request error verbatim and exits.
func fail(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// output prints v as JSON when --json is set, otherwise calls table.
func output(cmd *cobra.Command, v any, table func(w io.Writer) error) {
	var err error
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		err = encoder.Encode(v)
	} else {
		err = table(cmd.OutOrStdout())
	}
	if err != nil {
		log.Logger().Fatal("failed to print result", zap.Error(err))
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func scoreRows(scores []logics.Score) [][]string {
	rows := make([][]string, len(scores))
	for i, s := range scores {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.Product.ID,
			s.Product.Title,
			s.Product.Category,
			strconv.FormatFloat(s.Product.Price, 'f', 2, 64),
			formatFloat(s.Score),
		}
	}
	return rows
}

var scoreHeader = []string{"#", "id", "title", "category", "price", "score"}
