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

package cf

import (
	"context"
	"math/rand"

	"github.com/gorse-io/msd/common/heap"
	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/common/parallel"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Factory creates an unfitted base learner.
type Factory func() (model.Model, error)

// Bagging fits base learners on bootstrap resamples of the train set and ranks
// songs by the number of learners proposing them.
type Bagging struct {
	BaseRecommender
	factory  Factory
	numBags  int
	numJobs  int
	learners []model.Model
}

func NewBagging(factory Factory, n int, params model.Params) *Bagging {
	b := &Bagging{factory: factory}
	b.N = n
	b.SetParams(params)
	return b
}

func (b *Bagging) SetParams(params model.Params) {
	b.BaseRecommender.SetParams(params)
	b.numBags = b.Params.GetInt(model.NumBags, 5)
	b.numJobs = b.Params.GetInt(model.NumJobs, 1)
}

func (b *Bagging) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NumBags: {3, 5, 10},
	}
}

func (b *Bagging) Clear() {
	b.BaseRecommender.Clear()
	b.learners = nil
}

// Fit draws one resample per learner. Resample i is drawn with seed RandomState + i,
// so the ensemble does not depend on the number of jobs.
func (b *Bagging) Fit(ctx context.Context, trainSet *dataset.Dataset) error {
	if b.numBags < 1 {
		return errors.NotValidf("number of bags %d", b.numBags)
	}
	if err := b.init(trainSet); err != nil {
		return errors.Trace(err)
	}
	learners := make([]model.Model, b.numBags)
	for i := range learners {
		learner, err := b.factory()
		if err != nil {
			return errors.Trace(err)
		}
		learners[i] = learner
	}
	err := parallel.Parallel(ctx, b.numBags, b.numJobs, func(_, jobId int) error {
		rng := rand.New(rand.NewSource(b.GetRandomState() + int64(jobId)))
		resample := dataset.Resample(trainSet, rng)
		log.Logger().Debug("fit base learner",
			zap.Int("bag", jobId), zap.String("resample", resample.Stats()))
		return errors.Annotatef(learners[jobId].Fit(ctx, resample), "bag %d", jobId)
	})
	if err != nil {
		b.Clear()
		return errors.Trace(err)
	}
	b.learners = learners
	return nil
}

func (b *Bagging) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := b.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	proposals := make([]model.Recommendations, len(b.learners))
	dropped := make([][]string, len(b.learners))
	numDropped := atomic.NewInt64(0)
	err := parallel.Parallel(ctx, len(b.learners), b.numJobs, func(_, jobId int) error {
		recommendations, err := b.learners[jobId].Recommend(ctx, querySet)
		if err != nil {
			return errors.Annotatef(err, "bag %d", jobId)
		}
		// songs must be known to the train or query set
		for userId, songs := range recommendations {
			kept := make([]string, 0, len(songs))
			for _, songId := range songs {
				if b.trainSet.HasSong(songId) || querySet.HasSong(songId) {
					kept = append(kept, songId)
				} else {
					dropped[jobId] = append(dropped[jobId], songId)
				}
			}
			recommendations[userId] = kept
		}
		numDropped.Add(int64(len(dropped[jobId])))
		proposals[jobId] = recommendations
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if numDropped.Load() > 0 {
		for jobId, songs := range dropped {
			if len(songs) > 0 {
				log.Logger().Warn("drop unknown songs proposed by base learner",
					zap.Int("bag", jobId), zap.Strings("songs", songs))
			}
		}
	}

	// votes are tallied in learner order after all learners finish
	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		votes := make(map[string]int)
		for _, proposal := range proposals {
			for _, songId := range proposal[userId] {
				votes[songId]++
			}
		}
		filter := heap.NewTopKFilter[string, int](b.N)
		for songId, count := range votes {
			filter.Push(songId, count)
		}
		recommendations[userId] = b.backfill(filter.PopAllValues(), querySet.GetUserHistory(userId))
	}
	return recommendations, nil
}
