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

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/common/similarity"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// ItemBased is item-based collaborative filtering. A candidate song is weighted by
// the sum of its similarities to the songs a user played, where songs are compared
// by their train listeners.
type ItemBased struct {
	BaseRecommender
	alpha     float64
	userSongs map[string][]string
}

func NewItemBased(n int, params model.Params) *ItemBased {
	i := new(ItemBased)
	i.N = n
	i.SetParams(params)
	return i
}

func (i *ItemBased) SetParams(params model.Params) {
	i.BaseRecommender.SetParams(params)
	i.alpha = i.Params.GetFloat64(model.ItemAlpha, 0.5)
}

func (i *ItemBased) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.ItemAlpha: {0.2, 0.5, 0.8},
	}
}

func (i *ItemBased) Clear() {
	i.BaseRecommender.Clear()
	i.userSongs = nil
}

func (i *ItemBased) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	if i.alpha < 0 || i.alpha > 1 {
		return errors.NotValidf("item alpha %v", i.alpha)
	}
	if err := i.init(trainSet); err != nil {
		return errors.Trace(err)
	}
	i.userSongs = make(map[string][]string, trainSet.CountUsers())
	for _, userId := range trainSet.GetUsers() {
		i.userSongs[userId] = trainSet.GetUserSongs(userId)
	}
	return nil
}

func (i *ItemBased) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := i.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	// played song -> train listeners
	rows := make(map[string][]string)
	for _, songId := range querySet.GetSongs() {
		if listeners := i.trainSet.GetSongListeners(songId); len(listeners) > 0 {
			rows[songId] = listeners
		}
	}
	sim := similarity.Pairwise(rows, i.userSongs, func(songId string) int {
		return len(i.trainSet.GetSongListeners(songId))
	}, i.alpha)
	log.Logger().Debug("song similarity computed",
		zap.Int("n_songs", len(rows)), zap.Int("n_pairs", sim.Count()))

	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		played := querySet.GetUserHistory(userId)
		scores := make(map[string]float64)
		for songId := range played {
			for candidate, s := range sim.Row(songId) {
				if _, exist := played[candidate]; !exist {
					scores[candidate] += s
				}
			}
		}
		recommendations[userId] = i.topN(scores, played)
	}
	return recommendations, nil
}
