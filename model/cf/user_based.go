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

	"github.com/gorse-io/msd/common/log"
	"github.com/gorse-io/msd/common/similarity"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// UserBased is user-based collaborative filtering. A candidate song is weighted by
//
//	sum of sim(u, v)^gamma over train users v who played it
//
// where sim is the weighted set similarity of listened songs.
type UserBased struct {
	BaseRecommender
	// Hyper-parameters
	alpha float64
	gamma float64
}

func NewUserBased(n int, params model.Params) *UserBased {
	u := new(UserBased)
	u.N = n
	u.SetParams(params)
	return u
}

func (u *UserBased) SetParams(params model.Params) {
	u.BaseRecommender.SetParams(params)
	u.alpha = u.Params.GetFloat64(model.WeightCoefficient, 0.8)
	u.gamma = u.Params.GetFloat64(model.NormalizationCoefficient, 8.0)
}

func (u *UserBased) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.WeightCoefficient:        {0.2, 0.4, 0.6, 0.8},
		model.NormalizationCoefficient: {1.0, 2.0, 3.0, 5.0, 6.0, 8.0},
	}
}

func (u *UserBased) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	if u.alpha < 0 || u.alpha > 1 {
		return errors.NotValidf("weight coefficient %v", u.alpha)
	}
	if u.gamma <= 0 {
		return errors.NotValidf("normalization coefficient %v", u.gamma)
	}
	return errors.Trace(u.init(trainSet))
}

func (u *UserBased) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := u.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	// query user -> visible songs, train song -> train listeners
	rows := make(map[string][]string, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		rows[userId] = querySet.GetUserSongs(userId)
	}
	sim := similarity.Pairwise(rows, u.trainSet.GetSongIndex(), func(userId string) int {
		return len(u.trainSet.GetUserHistory(userId))
	}, u.alpha)
	log.Logger().Debug("user similarity computed",
		zap.Int("n_users", querySet.CountUsers()), zap.Int("n_pairs", sim.Count()))

	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		played := querySet.GetUserHistory(userId)
		if countKnown(played, u.trainSet) == u.trainSet.CountSongs() {
			recommendations[userId] = u.backfill(nil, played)
			continue
		}
		scores := make(map[string]float64)
		for neighbor, s := range sim.Row(userId) {
			weight := math.Pow(s, u.gamma)
			for songId := range u.trainSet.GetUserHistory(neighbor) {
				if _, exist := played[songId]; !exist {
					scores[songId] += weight
				}
			}
		}
		recommendations[userId] = u.topN(scores, played)
	}
	return recommendations, nil
}

// countKnown counts songs of a history that exist in a dataset.
func countKnown(history map[string]int, d *dataset.Dataset) int {
	count := 0
	for songId := range history {
		if d.HasSong(songId) {
			count++
		}
	}
	return count
}
