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

	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of listening history and folds.",
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
		top, _ := cmd.Flags().GetInt("top")
		return renderStats(cmd.OutOrStdout(), full, conf.CrossValidation.Folds, top)
	},
}

func init() {
	rootCommand.AddCommand(statsCommand)
	statsCommand.Flags().Int("top", 10, "number of popular songs to show")
}

func renderStats(w io.Writer, full *dataset.Dataset, k, top int) error {
	if _, err := fmt.Fprintln(w, full.Stats()); err != nil {
		return errors.Trace(err)
	}
	folds, err := dataset.Partition(full, k)
	if err != nil {
		return errors.Trace(err)
	}
	table := tablewriter.NewWriter(w)
	table.Header("Fold", "Users", "Songs", "Feedback")
	for i, fold := range folds {
		if err = table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", fold.CountUsers()),
			fmt.Sprintf("%d", fold.CountSongs()),
			fmt.Sprintf("%d", fold.CountFeedback()),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	if err = table.Render(); err != nil {
		return errors.Trace(err)
	}
	if top <= 0 {
		return nil
	}
	table = tablewriter.NewWriter(w)
	table.Header("Rank", "Song", "Listeners")
	for i, songId := range full.Popular(top) {
		if err = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			songId,
			fmt.Sprintf("%d", len(full.GetSongListeners(songId))),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
