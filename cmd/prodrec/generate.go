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
	"os"
	"path/filepath"

	"github.com/gorse-io/prodrec/base/log"
	"github.com/gorse-io/prodrec/dataset"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic product and interaction dataset",
	Run: func(cmd *cobra.Command, args []string) {
		opts := dataset.GenerateOptions{Progress: os.Stderr}
		opts.Products, _ = cmd.Flags().GetInt("products")
		opts.Users, _ = cmd.Flags().GetInt("users")
		opts.Interactions, _ = cmd.Flags().GetInt("interactions")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
		dir, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		products, interactions, err := dataset.Generate(opts)
		if err != nil {
			fail(err)
		}
		if err = writeDataset(dir, delimiter, products, interactions); err != nil {
			log.Logger().Fatal("failed to write dataset", zap.String("output", dir), zap.Error(err))
		}
		log.Logger().Info("generate dataset",
			zap.String("output", dir),
			zap.Int("products", len(products)),
			zap.Int("interactions", len(interactions)))
	},
}

func writeDataset(dir, delimiter string, products []dataset.Product, interactions []dataset.Interaction) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	file, err := os.Create(filepath.Join(dir, "products.csv"))
	if err != nil {
		return errors.Trace(err)
	}
	if err = dataset.WriteProducts(file, products, delimiter); err != nil {
		_ = file.Close()
		return err
	}
	if err = file.Close(); err != nil {
		return errors.Trace(err)
	}
	file, err = os.Create(filepath.Join(dir, "interactions.csv"))
	if err != nil {
		return errors.Trace(err)
	}
	if err = dataset.WriteInteractions(file, interactions); err != nil {
		_ = file.Close()
		return err
	}
	return errors.Trace(file.Close())
}

func init() {
	generateCommand.Flags().Int("products", 1000, "number of products")
	generateCommand.Flags().Int("users", 200, "number of users")
	generateCommand.Flags().Int("interactions", 10000, "number of interactions to draw, duplicates are skipped")
	generateCommand.Flags().Int64("seed", 0, "random seed")
	generateCommand.Flags().StringP("output", "o", "data", "output directory")
	generateCommand.Flags().String("delimiter", "|", "delimiter of similar_ids")
	rootCommand.AddCommand(generateCommand)
}
