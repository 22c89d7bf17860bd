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
	"time"

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/config"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/gorse-io/msd/model/cf"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Options of repeated K-fold cross validation.
type Options struct {
	N          int
	Folds      int
	Runs       int
	Algorithms []string
	Params     model.Params
	// Metrics is optional.
	Metrics *Metrics
	// Progress is called after each run of each recommender.
	Progress func()
}

// NewOptions creates options from configuration.
func NewOptions(cfg *config.Config) *Options {
	return &Options{
		N:          cfg.Recommend.N,
		Folds:      cfg.CrossValidation.Folds,
		Runs:       cfg.CrossValidation.Runs,
		Algorithms: cfg.Recommend.Algorithms,
		Params:     cfg.Params.ToParams(cfg.CrossValidation.Jobs),
	}
}

func (opts *Options) validate() error {
	if opts.N < 1 {
		return errors.NotValidf("n = %d", opts.N)
	}
	if opts.Folds < 2 {
		return errors.NotValidf("%d folds", opts.Folds)
	}
	if opts.Runs < 1 {
		return errors.NotValidf("%d runs", opts.Runs)
	}
	if len(opts.Algorithms) == 0 {
		return errors.NotValidf("empty algorithms")
	}
	return nil
}

// Result of a recommender over runs.
type Result struct {
	Name       string
	Accuracies []float64
	Elapsed    []time.Duration
	// Err is the error that stopped the recommender, if any.
	Err error
}

func (r *Result) Failed() bool {
	return r.Err != nil
}

// Mean accuracy over completed runs. NaN if no run completed.
func (r *Result) Mean() float64 {
	if len(r.Accuracies) == 0 {
		return math.NaN()
	}
	return lo.Sum(r.Accuracies) / float64(len(r.Accuracies))
}

func (r *Result) Min() float64 {
	if len(r.Accuracies) == 0 {
		return math.NaN()
	}
	return lo.Min(r.Accuracies)
}

func (r *Result) Max() float64 {
	if len(r.Accuracies) == 0 {
		return math.NaN()
	}
	return lo.Max(r.Accuracies)
}

func (r *Result) TotalElapsed() time.Duration {
	return lo.Sum(r.Elapsed)
}

func (r *Result) MeanElapsed() time.Duration {
	if len(r.Elapsed) == 0 {
		return 0
	}
	return r.TotalElapsed() / time.Duration(len(r.Elapsed))
}

// Report of a cross validation. Results follow the order of algorithms.
type Report struct {
	Runs    int
	Folds   int
	N       int
	Results []*Result
	Elapsed time.Duration
}

// Get returns the result of a recommender.
func (r *Report) Get(name string) (*Result, bool) {
	return lo.Find(r.Results, func(result *Result) bool {
		return result.Name == name
	})
}

type split struct {
	visible *dataset.Dataset
	hidden  *dataset.Dataset
	train   *dataset.Dataset
}

// Run evaluates recommenders by repeated K-fold cross validation. The dataset is
// partitioned once and run r tests on fold r mod K. A failed recommender is logged
// and recorded on the report while the others continue. Invalid options and
// cancellation abort the whole run.
func Run(ctx context.Context, full *dataset.Dataset, opts *Options) (*Report, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	folds, err := dataset.Partition(full, opts.Folds)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("start cross validation",
		zap.Int("n_users", full.CountUsers()),
		zap.Int("n_songs", full.CountSongs()),
		zap.Int("n_folds", opts.Folds),
		zap.Int("n_runs", opts.Runs),
		zap.Strings("algorithms", opts.Algorithms))
	report := &Report{
		Runs:  opts.Runs,
		Folds: opts.Folds,
		N:     opts.N,
		Results: lo.Map(opts.Algorithms, func(name string, _ int) *Result {
			return &Result{Name: name}
		}),
	}
	splits := make(map[int]*split)
	for run := 0; run < opts.Runs; run++ {
		testIndex := run % opts.Folds
		s, exist := splits[testIndex]
		if !exist {
			visible, hidden, train, err := dataset.SelectTest(folds, testIndex)
			if err != nil {
				return nil, errors.Trace(err)
			}
			s = &split{visible: visible, hidden: hidden, train: train}
			splits[testIndex] = s
		}
		for _, result := range report.Results {
			if result.Failed() {
				continue
			}
			accuracy, elapsed, err := evaluate(ctx, result.Name, s, opts)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Trace(ctxErr)
			}
			if err != nil {
				result.Err = err
				log.Logger().Error("recommender failed",
					zap.String("algorithm", result.Name),
					zap.Int("run", run),
					zap.Error(err))
				if opts.Metrics != nil {
					opts.Metrics.Failures.WithLabelValues(result.Name).Inc()
				}
			} else {
				result.Accuracies = append(result.Accuracies, accuracy)
				result.Elapsed = append(result.Elapsed, elapsed)
				log.Logger().Info(fmt.Sprintf("cross validation (%d/%d)", run+1, opts.Runs),
					zap.String("algorithm", result.Name),
					zap.Int("test_fold", testIndex),
					zap.Float64("accuracy", accuracy),
					zap.Duration("elapsed", elapsed))
				if opts.Metrics != nil {
					opts.Metrics.Accuracy.WithLabelValues(result.Name).Set(result.Mean())
					opts.Metrics.FitSeconds.WithLabelValues(result.Name).Observe(elapsed.Seconds())
				}
			}
			if opts.Progress != nil {
				opts.Progress()
			}
		}
		if opts.Metrics != nil {
			opts.Metrics.Runs.Inc()
		}
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// evaluate fits a fresh recommender on the train set and scores its
// recommendations for the visible half against the hidden half.
func evaluate(ctx context.Context, name string, s *split, opts *Options) (accuracy float64, elapsed time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recommender %s panicked: %v", name, r)
		}
	}()
	m, err := cf.NewModel(name, opts.N, opts.Params.Copy())
	if err != nil {
		return 0, 0, errors.Trace(err)
	}
	log.Logger().Debug("fit recommender",
		zap.String("algorithm", name),
		zap.String("params", m.GetParams().ToString()))
	start := time.Now()
	if err = m.Fit(ctx, s.train); err != nil {
		return 0, 0, errors.Annotatef(err, "fit %s", name)
	}
	recommendations, err := m.Recommend(ctx, s.visible)
	if err != nil {
		return 0, 0, errors.Annotatef(err, "recommend %s", name)
	}
	elapsed = time.Since(start)
	accuracy, err = cf.Accuracy(recommendations, s.hidden)
	if err != nil {
		return 0, 0, errors.Trace(err)
	}
	return accuracy, elapsed, nil
}
