// Copyright 2022 gorse Project Authors
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

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/storage"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCommand = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import listening history from a CSV file into the data store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd.Flags())
		if err != nil {
			return errors.Trace(err)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Trace(err)
		}
		defer f.Close()
		d, err := dataset.ReadCSV(f)
		if err != nil {
			return errors.Annotatef(err, "read %s", args[0])
		}
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if cmd.Flags().Changed("batch-size") && !storage.IsDatabase(conf.Database.DataStore) {
			log.Logger().Warn("batch size is ignored by CSV data stores", zap.Int("batch_size", batchSize))
		}
		source, err := storage.Open(conf.Database.DataStore, storage.WithBatchSize(batchSize))
		if err != nil {
			return errors.Trace(err)
		}
		defer source.Close()
		if err = source.Save(cmd.Context(), conf.Database.Table, d); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("import listening history",
			zap.String("file", args[0]),
			zap.String("data_store", log.RedactDBURL(conf.Database.DataStore)),
			zap.String("table", conf.Database.Table),
			zap.Int("n_feedback", d.CountFeedback()))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(importCommand)
	importCommand.Flags().Int("batch-size", 1000, "number of rows per insert")
}
