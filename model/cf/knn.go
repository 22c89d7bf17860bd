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

	"github.com/gorse-io/msd/common/heap"
	"github.com/gorse-io/msd/common/similarity"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// KNN compares play count vectors by cosine similarity and aggregates the histories
// of the K nearest train users, each weighted by (1 + similarity).
type KNN struct {
	BaseRecommender
	numNeighbors int
}

func NewKNN(n int, params model.Params) *KNN {
	knn := new(KNN)
	knn.N = n
	knn.SetParams(params)
	return knn
}

func (knn *KNN) SetParams(params model.Params) {
	knn.BaseRecommender.SetParams(params)
	knn.numNeighbors = knn.Params.GetInt(model.NumNeighbors, 80)
}

func (knn *KNN) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NumNeighbors: lo.ToAnySlice([]int{1, 2, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}),
	}
}

func (knn *KNN) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	if knn.numNeighbors < 1 {
		return errors.NotValidf("number of neighbors %d", knn.numNeighbors)
	}
	return errors.Trace(knn.init(trainSet))
}

func (knn *KNN) Recommend(ctx context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	if err := knn.checkFitted(); err != nil {
		return nil, errors.Trace(err)
	}
	// vocabulary of train and query songs
	vocabulary := make(map[string]int)
	for _, d := range []*dataset.Dataset{knn.trainSet, querySet} {
		for _, songId := range d.GetSongs() {
			if _, exist := vocabulary[songId]; !exist {
				vocabulary[songId] = len(vocabulary)
			}
		}
	}
	vectorize := func(history map[string]int) *similarity.SparseVector {
		vec := similarity.NewSparseVector()
		for songId, count := range history {
			vec.Add(vocabulary[songId], float64(count))
		}
		vec.SortIndex()
		return vec
	}
	// train vectors are built once per call
	trainUsers := knn.trainSet.GetUsers()
	trainVectors := make([]*similarity.SparseVector, len(trainUsers))
	postings := make(map[int][]int)
	for i, userId := range trainUsers {
		trainVectors[i] = vectorize(knn.trainSet.GetUserHistory(userId))
		for _, index := range trainVectors[i].Indices {
			postings[index] = append(postings[index], i)
		}
	}

	recommendations := make(model.Recommendations, querySet.CountUsers())
	for _, userId := range querySet.GetUsers() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		played := querySet.GetUserHistory(userId)
		queryVector := vectorize(played)
		// only users sharing a song have non-zero similarity
		neighbors := heap.NewTopKFilter[int, float64](knn.numNeighbors)
		candidates := make(map[int]struct{})
		for _, index := range queryVector.Indices {
			for _, i := range postings[index] {
				if _, exist := candidates[i]; !exist {
					candidates[i] = struct{}{}
					neighbors.Push(i, similarity.Cosine(queryVector, trainVectors[i]))
				}
			}
		}
		// the remaining users tie at zero and rank by order
		for i, pushed := 0, 0; i < len(trainUsers) && pushed < knn.numNeighbors; i++ {
			if _, exist := candidates[i]; !exist {
				neighbors.Push(i, 0)
				pushed++
			}
		}
		scores := make(map[string]float64)
		indices, sims := neighbors.PopAll()
		for j, i := range indices {
			weight := 1 + sims[j]
			for songId, count := range knn.trainSet.GetUserHistory(trainUsers[i]) {
				if _, exist := played[songId]; !exist {
					scores[songId] += weight * float64(count)
				}
			}
		}
		recommendations[userId] = knn.topN(scores, played)
	}
	return recommendations, nil
}
