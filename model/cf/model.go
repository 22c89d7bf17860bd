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
	"github.com/gorse-io/msd/common/heap"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
)

// BaseRecommender holds the state shared by every recommender: the train set
// and its popularity ranking used for backfill.
type BaseRecommender struct {
	model.BaseModel
	trainSet *dataset.Dataset
	popular  []string
}

func (base *BaseRecommender) Clear() {
	base.trainSet = nil
	base.popular = nil
}

func (base *BaseRecommender) init(trainSet *dataset.Dataset) error {
	if err := base.Validate(); err != nil {
		return errors.Trace(err)
	}
	if trainSet == nil {
		return errors.NotValidf("nil train set")
	}
	base.trainSet = trainSet
	base.popular = trainSet.Popular(0)
	return nil
}

func (base *BaseRecommender) checkFitted() error {
	if base.trainSet == nil {
		return errors.Trace(model.ErrUnfitted)
	}
	return nil
}

// backfill completes a ranked list to N songs with popular songs. Songs the user
// has not played come first, played songs are used only if the train set would
// otherwise run out.
func (base *BaseRecommender) backfill(partial []string, played map[string]int) []string {
	if len(partial) >= base.N {
		return partial[:base.N]
	}
	unplayed := make([]string, 0, base.N)
	for _, songId := range base.popular {
		if len(unplayed) >= base.N {
			break
		}
		if _, exist := played[songId]; !exist {
			unplayed = append(unplayed, songId)
		}
	}
	return heap.Backfill(partial, base.N, unplayed, base.popular)
}

// topN ranks scored songs and backfills the result.
func (base *BaseRecommender) topN(scores map[string]float64, played map[string]int) []string {
	filter := heap.NewTopKFilter[string, float64](base.N)
	for songId, score := range scores {
		filter.Push(songId, score)
	}
	return base.backfill(filter.PopAllValues(), played)
}
