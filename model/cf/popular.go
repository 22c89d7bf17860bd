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

	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
)

// Popular recommends the songs with the most listeners to every user.
type Popular struct {
	BaseRecommender
	topSongs []string
}

func NewPopular(n int, params model.Params) *Popular {
	p := new(Popular)
	p.N = n
	p.SetParams(params)
	return p
}

func (p *Popular) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{}
}

func (p *Popular) Clear() {
	p.BaseRecommender.Clear()
	p.topSongs = nil
}

func (p *Popular) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	if err := p.init(trainSet); err != nil {
		return errors.Trace(err)
	}
	p.topSongs = trainSet.Popular(p.N)
	return nil
}

// Recommend returns the same list to every user. The list is shared.
func (p *Popular) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := p.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		recommendations[userId] = p.topSongs
	}
	return recommendations, nil
}
