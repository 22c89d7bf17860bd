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
	"math"

	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
)

// NaiveBayes scores an unplayed song c for a user who played songs L by
//
//	sum over l in L of log(co(l, c) / count(l))
//
// where co counts common train listeners and count counts listeners of l. Every
// unplayed train song with a strictly negative sum is kept, including songs never
// heard with some l (sum -Inf, score 0). Songs with a zero sum are left to
// popularity backfill.
type NaiveBayes struct {
	BaseRecommender
}

func NewNaiveBayes(n int, params model.Params) *NaiveBayes {
	nb := new(NaiveBayes)
	nb.N = n
	nb.SetParams(params)
	return nb
}

func (nb *NaiveBayes) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{}
}

func (nb *NaiveBayes) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	return errors.Trace(nb.init(trainSet))
}

func (nb *NaiveBayes) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := nb.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		played := querySet.GetUserHistory(userId)
		// co-listener counts per listened song known to the train set
		var (
			coCounts  []map[string]int
			listeners []int
		)
		for _, songId := range querySet.GetUserSongs(userId) {
			songListeners := nb.trainSet.GetSongListeners(songId)
			if len(songListeners) == 0 {
				continue
			}
			co := make(map[string]int)
			for _, listener := range songListeners {
				for candidate := range nb.trainSet.GetUserHistory(listener) {
					co[candidate]++
				}
			}
			coCounts = append(coCounts, co)
			listeners = append(listeners, len(songListeners))
		}
		scores := make(map[string]float64)
		if len(coCounts) > 0 {
			for _, candidate := range nb.trainSet.GetSongs() {
				if _, exist := played[candidate]; exist {
					continue
				}
				logProb := 0.0
				for i, co := range coCounts {
					// log(0) is -Inf, which still qualifies with score 0
					logProb += math.Log(float64(co[candidate]) / float64(listeners[i]))
				}
				if logProb < 0 {
					scores[candidate] = math.Exp(logProb)
				}
			}
		}
		recommendations[userId] = nb.topN(scores, played)
	}
	return recommendations, nil
}
