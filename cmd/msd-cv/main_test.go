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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorse-io/msd/cv"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/gorse-io/msd/model/cf"
	"github.com/gorse-io/msd/storage"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	report := &cv.Report{
		Runs: 3,
		Results: []*cv.Result{
			{
				Name:       "knn",
				Accuracies: []float64{40, 50, 60},
				Elapsed:    []time.Duration{time.Second, time.Second, time.Second},
			},
			{
				Name: "svd",
				Err:  errors.New("recommender svd not valid"),
			},
		},
	}
	var buf bytes.Buffer
	assert.NoError(t, renderReport(&buf, report))
	output := buf.String()
	assert.Contains(t, output, "knn")
	assert.Contains(t, output, "50.00")
	assert.Contains(t, output, "40.00")
	assert.Contains(t, output, "60.00")
	assert.Contains(t, output, "3/3")
	assert.Contains(t, output, "0/3")
	assert.Contains(t, output, "recommender svd not valid")
}

func TestRenderSearch(t *testing.T) {
	result := &cv.SearchResult{
		Name:      "knn",
		BestIndex: 1,
		BestScore: 20,
		Scores:    []float64{10, 20},
		Params: []model.Params{
			{model.NumNeighbors: 1},
			{model.NumNeighbors: 2},
		},
		Results: []*cv.Result{{Name: "knn"}, {Name: "knn"}},
	}
	var buf bytes.Buffer
	assert.NoError(t, renderSearch(&buf, result))
	output := buf.String()
	assert.Contains(t, output, `{"NumNeighbors":1}`)
	assert.Contains(t, output, `{"NumNeighbors":2}`)
	assert.Contains(t, output, "20.00")
	assert.Contains(t, output, "*")
}

func TestRenderStats(t *testing.T) {
	d, err := dataset.NewDataset(map[string]map[string]int{
		"u1": {"s1": 1, "s2": 2},
		"u2": {"s1": 3},
		"u3": {"s1": 1, "s3": 1},
		"u4": {"s2": 5},
	})
	assert.NoError(t, err)
	var buf bytes.Buffer
	assert.NoError(t, renderStats(&buf, d, 2, 2))
	output := buf.String()
	assert.Contains(t, output, d.Stats())
	assert.Contains(t, output, "s1")
	assert.Contains(t, output, "s2")
	assert.NotContains(t, output, "s3")

	assert.Error(t, renderStats(&buf, d, 5, 2))
}

func TestGrids(t *testing.T) {
	// defaults come from the search space of each recommender
	for _, name := range []string{"knn", "user-cf", "item-cf"} {
		flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
		addParamFlags(flags, name)
		grid, err := tuneGrid(name, flags)
		assert.NoError(t, err)
		m, err := cf.NewModel(name, 1, nil)
		assert.NoError(t, err)
		assert.Equal(t, m.GetParamsGrid(), grid, name)
	}

	// given candidates replace defaults of the same parameter only
	flags := pflag.NewFlagSet("user-cf", pflag.ContinueOnError)
	addParamFlags(flags, "user-cf")
	assert.NoError(t, flags.Parse([]string{"--weight", "0.3,0.7"}))
	grid, err := tuneGrid("user-cf", flags)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{0.3, 0.7}, grid[model.WeightCoefficient])
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 5.0, 6.0, 8.0}, grid[model.NormalizationCoefficient])
	assert.Equal(t, 12, grid.NumCombinations())

	flags = pflag.NewFlagSet("knn", pflag.ContinueOnError)
	addParamFlags(flags, "knn")
	assert.NoError(t, flags.Parse([]string{"--k", "1,5"}))
	grid, err = tuneGrid("knn", flags)
	assert.NoError(t, err)
	assert.Equal(t, model.ParamsGrid{model.NumNeighbors: {1, 5}}, grid)

	flags = pflag.NewFlagSet("knn", pflag.ContinueOnError)
	addParamFlags(flags, "knn")
	assert.NoError(t, flags.Parse([]string{"--k", "1,x"}))
	_, err = tuneGrid("knn", flags)
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for _, userId := range []string{"u1", "u2", "u3", "u4"} {
		for _, songId := range []string{"s1", "s2", "s3", "s4"} {
			lines = append(lines, userId+","+songId+",1")
		}
	}
	csvPath := filepath.Join(dir, "plays.csv")
	assert.NoError(t, os.WriteFile(csvPath, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	dataStore := storage.SQLitePrefix + filepath.Join(dir, "msd.db")
	metricsPath := filepath.Join(dir, "msd.prom")

	execute := func(args ...string) string {
		var buf bytes.Buffer
		rootCommand.SetOut(&buf)
		rootCommand.SetErr(&buf)
		rootCommand.SetArgs(args)
		assert.NoError(t, rootCommand.Execute())
		return buf.String()
	}

	// import
	execute("import", csvPath, "--data-store", dataStore, "--table", "listening")

	// run
	output := execute("run", "--data-store", dataStore, "--table", "listening",
		"--n", "2", "--folds", "2", "--runs", "2", "--algorithms", "popular,item-cf",
		"--metrics-file", metricsPath)
	assert.Contains(t, output, "popular")
	assert.Contains(t, output, "item-cf")
	assert.Contains(t, output, "100.00")
	data, err := os.ReadFile(metricsPath)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `msd_cv_accuracy{algorithm="item-cf"} 100`)

	// tune
	output = execute("tune", "knn", "--data-store", dataStore, "--table", "listening",
		"--n", "2", "--folds", "2", "--runs", "1", "--k", "1,2")
	assert.Contains(t, output, `{"NumNeighbors":1}`)
	assert.Contains(t, output, `{"NumNeighbors":2}`)

	// stats
	output = execute("stats", "--data-store", dataStore, "--table", "listening", "--folds", "2")
	assert.Contains(t, output, "Users: 4")

	// import into a CSV directory ignores the batch size
	execute("import", csvPath, "--data-store", dir, "--table", "copy.csv", "--batch-size", "10")
	source, err := storage.Open(dir)
	assert.NoError(t, err)
	copied, err := source.Load(context.Background(), "copy.csv")
	assert.NoError(t, err)
	assert.Equal(t, 16, copied.CountFeedback())
	assert.NoError(t, source.Close())
}
