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

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/common/util"
	"github.com/gorse-io/msd/cv"
	"github.com/gorse-io/msd/model"
	"github.com/gorse-io/msd/model/cf"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Tune hyper-parameters of a recommender by grid search.",
}

type paramFlag struct {
	Name    string
	Param   model.ParamName
	Integer bool
	Help    string
}

// tuneParamFlags lists candidate flags per recommender. Parameters without a
// flag given on the command line come from the default search space.
var tuneParamFlags = map[string][]paramFlag{
	cf.KNNName: {
		{"k", model.NumNeighbors, true, "candidates of the number of neighbors"},
	},
	cf.UserBasedName: {
		{"weight", model.WeightCoefficient, false, "candidates of the weight coefficient"},
		{"normalization", model.NormalizationCoefficient, false, "candidates of the normalization coefficient"},
	},
	cf.ItemBasedName: {
		{"alpha", model.ItemAlpha, false, "candidates of the similarity alpha"},
	},
}

var tuneShorts = map[string]string{
	cf.KNNName:       "Tune the number of neighbors of KNN.",
	cf.UserBasedName: "Tune weight and normalization coefficients of user-based CF.",
	cf.ItemBasedName: "Tune the similarity alpha of item-based CF.",
}

func init() {
	rootCommand.AddCommand(tuneCommand)
	for _, name := range []string{cf.KNNName, cf.UserBasedName, cf.ItemBasedName} {
		command := &cobra.Command{
			Use:   name,
			Short: tuneShorts[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				grid, err := tuneGrid(name, cmd.Flags())
				if err != nil {
					return errors.Trace(err)
				}
				return tune(cmd, name, grid)
			},
		}
		addParamFlags(command.Flags(), name)
		tuneCommand.AddCommand(command)
	}
}

func addParamFlags(flags *pflag.FlagSet, name string) {
	for _, flag := range tuneParamFlags[name] {
		flags.String(flag.Name, "", flag.Help)
	}
}

// tuneGrid builds the search space of a recommender from comma separated flag
// values and fills the rest from its default search space.
func tuneGrid(name string, flags *pflag.FlagSet) (model.ParamsGrid, error) {
	grid := make(model.ParamsGrid)
	for _, flag := range tuneParamFlags[name] {
		if !flags.Changed(flag.Name) {
			continue
		}
		value, _ := flags.GetString(flag.Name)
		if flag.Integer {
			values, err := util.ParseInts[int](value)
			if err != nil {
				return nil, errors.Annotatef(err, "--%s", flag.Name)
			}
			grid[flag.Param] = lo.ToAnySlice(values)
		} else {
			values, err := util.ParseFloats[float64](value)
			if err != nil {
				return nil, errors.Annotatef(err, "--%s", flag.Name)
			}
			grid[flag.Param] = lo.ToAnySlice(values)
		}
	}
	m, err := cf.NewModel(name, 1, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	grid.Fill(m.GetParamsGrid())
	return grid, nil
}

func tune(cmd *cobra.Command, name string, grid model.ParamsGrid) error {
	conf, err := loadConfig(cmd.Flags())
	if err != nil {
		return errors.Trace(err)
	}
	full, err := loadDataset(cmd.Context(), conf)
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("tune hyper-parameters", zap.String("algorithm", name), zap.Any("grid", grid))
	opts := cv.NewOptions(conf)
	opts.Metrics = cv.NewMetrics()
	bar := newProgressBar(cmd.ErrOrStderr(), grid.NumCombinations()*opts.Runs, "grid search "+name)
	opts.Progress = func() { _ = bar.Add(1) }
	result, err := cv.GridSearch(cmd.Context(), full, name, grid, opts)
	_ = bar.Finish()
	if err != nil {
		return errors.Trace(err)
	}
	if err = renderSearch(cmd.OutOrStdout(), result); err != nil {
		return errors.Trace(err)
	}
	return writeMetrics(cmd.Flags(), opts.Metrics)
}

// renderSearch renders one row per grid point and marks the best one.
func renderSearch(w io.Writer, result *cv.SearchResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Params", "Accuracy", "Mean Time", "Best")
	for i := range result.Params {
		best := ""
		if i == result.BestIndex {
			best = "*"
		}
		if err := table.Append([]string{
			fmt.Sprintf("%d", i),
			result.Params[i].ToString(),
			formatAccuracy(result.Scores[i]),
			result.Results[i].MeanElapsed().String(),
			best,
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
