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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/msd/cmd/version"
	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/config"
	"github.com/gorse-io/msd/cv"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/storage"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "msd-cv",
	Short: "Cross validation of music recommenders on listening history.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLogger(cmd.Flags())
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.Flags().BoolP("version", "v", false, "msd-cv version")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("data-store", "", "data store of listening history")
	rootCommand.PersistentFlags().String("table", "", "table, collection or file of listening history")
	rootCommand.PersistentFlags().Int("n", 0, "number of recommended songs per user")
	rootCommand.PersistentFlags().Int("folds", 0, "number of folds")
	rootCommand.PersistentFlags().Int("runs", 0, "number of repeated runs")
	rootCommand.PersistentFlags().Int("jobs", 0, "number of workers for bagging")
	rootCommand.PersistentFlags().Int64("random-state", 0, "random seed of bootstrap resampling")
	rootCommand.PersistentFlags().String("metrics-file", "", "write metrics in text format to this file")
}

// loadConfig loads the configuration file and applies flags on top of it.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	configPath, _ := flags.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if flags.Changed("data-store") {
		conf.Database.DataStore, _ = flags.GetString("data-store")
	}
	if flags.Changed("table") {
		conf.Database.Table, _ = flags.GetString("table")
	}
	if flags.Changed("n") {
		conf.Recommend.N, _ = flags.GetInt("n")
	}
	if flags.Changed("folds") {
		conf.CrossValidation.Folds, _ = flags.GetInt("folds")
	}
	if flags.Changed("runs") {
		conf.CrossValidation.Runs, _ = flags.GetInt("runs")
	}
	if flags.Changed("jobs") {
		conf.CrossValidation.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("random-state") {
		conf.Params.RandomState, _ = flags.GetInt64("random-state")
	}
	if flags.Lookup("algorithms") != nil && flags.Changed("algorithms") {
		conf.Recommend.Algorithms, _ = flags.GetStringSlice("algorithms")
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

func loadDataset(ctx context.Context, conf *config.Config) (*dataset.Dataset, error) {
	source, err := storage.Open(conf.Database.DataStore)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Logger().Warn("failed to close data source", zap.Error(err))
		}
	}()
	full, err := source.Load(ctx, conf.Database.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("load dataset",
		zap.String("data_store", log.RedactDBURL(conf.Database.DataStore)),
		zap.String("table", conf.Database.Table),
		zap.Int("n_users", full.CountUsers()),
		zap.Int("n_songs", full.CountSongs()),
		zap.Int("n_feedback", full.CountFeedback()))
	return full, nil
}

// writeMetrics writes metrics if --metrics-file is set.
func writeMetrics(flags *pflag.FlagSet, metrics *cv.Metrics) error {
	path, _ := flags.GetString("metrics-file")
	if path == "" {
		return nil
	}
	if err := metrics.WriteToTextfile(path); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("write metrics", zap.String("path", path))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer log.CloseLogger()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
