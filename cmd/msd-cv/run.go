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
	"fmt"
	"io"
	"math"

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/cv"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Evaluate recommenders by repeated K-fold cross validation.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd.Flags())
		if err != nil {
			return errors.Trace(err)
		}
		full, err := loadDataset(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		opts := cv.NewOptions(conf)
		opts.Metrics = cv.NewMetrics()
		bar := newProgressBar(cmd.ErrOrStderr(), opts.Runs*len(opts.Algorithms), "cross validation")
		opts.Progress = func() { _ = bar.Add(1) }
		report, err := cv.Run(cmd.Context(), full, opts)
		_ = bar.Finish()
		if err != nil {
			return errors.Trace(err)
		}
		if err = renderReport(cmd.OutOrStdout(), report); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("complete cross validation", zap.Duration("elapsed", report.Elapsed))
		return writeMetrics(cmd.Flags(), opts.Metrics)
	},
}

func init() {
	rootCommand.AddCommand(runCommand)
	runCommand.Flags().StringSlice("algorithms", nil, "recommenders to evaluate")
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
}

func formatAccuracy(accuracy float64) string {
	if math.IsNaN(accuracy) {
		return "-"
	}
	return fmt.Sprintf("%.2f", accuracy)
}

// renderReport renders one row per recommender.
func renderReport(w io.Writer, report *cv.Report) error {
	table := tablewriter.NewWriter(w)
	table.Header("Algorithm", "Mean", "Min", "Max", "Runs", "Mean Time", "Total Time", "Error")
	for _, result := range report.Results {
		errMessage := ""
		if result.Failed() {
			errMessage = result.Err.Error()
		}
		if err := table.Append([]string{
			result.Name,
			formatAccuracy(result.Mean()),
			formatAccuracy(result.Min()),
			formatAccuracy(result.Max()),
			fmt.Sprintf("%d/%d", len(result.Accuracies), report.Runs),
			result.MeanElapsed().String(),
			result.TotalElapsed().String(),
			errMessage,
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
