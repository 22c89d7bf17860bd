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

package cv

import (
	"context"
	"fmt"
	"math"

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// SearchResult contains the return of grid search.
type SearchResult struct {
	Name       string
	BestParams model.Params
	BestScore  float64
	BestIndex  int
	Scores     []float64
	Params     []model.Params
	Results    []*Result
}

func (r *SearchResult) addScore(params model.Params, result *Result) {
	score := result.Mean()
	r.Scores = append(r.Scores, score)
	r.Params = append(r.Params, params.Copy())
	r.Results = append(r.Results, result)
	if !math.IsNaN(score) && (r.BestIndex < 0 || score > r.BestScore) {
		r.BestScore = score
		r.BestParams = params.Copy()
		r.BestIndex = len(r.Params) - 1
	}
}

// GridSearch evaluates a recommender at every point of the grid with Run and
// returns the point of the highest mean accuracy. Points are visited in the
// order of ParamsGrid.Combinations. A failed point is recorded with a NaN score.
func GridSearch(ctx context.Context, full *dataset.Dataset, name string, grid model.ParamsGrid, opts *Options) (*SearchResult, error) {
	combinations := grid.Combinations()
	if len(combinations) == 0 {
		return nil, errors.NotValidf("empty grid of %s", name)
	}
	results := &SearchResult{
		Name:      name,
		BestIndex: -1,
		Scores:    make([]float64, 0, len(combinations)),
		Params:    make([]model.Params, 0, len(combinations)),
	}
	for i, params := range combinations {
		log.Logger().Info(fmt.Sprintf("grid search (%v/%v)", i+1, len(combinations)),
			zap.String("algorithm", name),
			zap.Any("params", params))
		pointOpts := *opts
		pointOpts.Algorithms = []string{name}
		pointOpts.Params = opts.Params.Overwrite(params)
		report, err := Run(ctx, full, &pointOpts)
		if err != nil {
			return nil, errors.Trace(err)
		}
		results.addScore(params, report.Results[0])
	}
	if results.BestIndex < 0 {
		return results, errors.Annotatef(results.Results[0].Err, "grid search of %s", name)
	}
	log.Logger().Info("grid search complete",
		zap.String("algorithm", name),
		zap.Any("best_params", results.BestParams),
		zap.Float64("best_score", results.BestScore))
	return results, nil
}
