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
	"testing"

	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

type mockModel struct {
	model.BaseModel
	proposals []string
	trainSet  *dataset.Dataset
	fitErr    error
}

func (m *mockModel) GetParamsGrid() model.ParamsGrid {
	return nil
}

func (m *mockModel) Clear() {
	m.trainSet = nil
}

func (m *mockModel) Fit(_ context.Context, trainSet *dataset.Dataset) error {
	m.trainSet = trainSet
	return m.fitErr
}

func (m *mockModel) Recommend(_ context.Context, querySet *dataset.Dataset) (model.Recommendations, error) {
	recommendations := make(model.Recommendations)
	for _, userId := range querySet.GetUsers() {
		recommendations[userId] = append([]string(nil), m.proposals...)
	}
	return recommendations, nil
}

func newMockFactory(learners ...*mockModel) (Factory, *[]*mockModel) {
	var created []*mockModel
	return func() (model.Model, error) {
		m := learners[len(created)]
		created = append(created, m)
		return m, nil
	}, &created
}

func TestBaggingVotes(t *testing.T) {
	train := newDataset(t, map[string]map[string]int{
		"v1": {"s1": 1, "s2": 1, "s3": 1, "s4": 1},
		"v2": {"s4": 1},
	})
	query := newDataset(t, map[string]map[string]int{"u1": {"s5": 1}})
	factory, _ := newMockFactory(
		&mockModel{proposals: []string{"s1", "s2"}},
		&mockModel{proposals: []string{"s1", "s3", "s404"}},
		&mockModel{proposals: []string{"s1"}},
	)
	b := NewBagging(factory, 2, model.Params{model.NumBags: 3})
	assert.NoError(t, b.Fit(context.Background(), train))
	recommendations, err := b.Recommend(context.Background(), query)
	assert.NoError(t, err)
	// s1 has 3 votes, s2 and s3 tie with 1 vote
	assert.Equal(t, []string{"s1", "s2"}, recommendations["u1"])

	// backfill with popular songs
	factory, _ = newMockFactory(
		&mockModel{proposals: []string{"s404"}},
		&mockModel{proposals: []string{"s3"}},
		&mockModel{proposals: []string{}},
	)
	b = NewBagging(factory, 3, model.Params{model.NumBags: 3})
	assert.NoError(t, b.Fit(context.Background(), train))
	recommendations, err = b.Recommend(context.Background(), query)
	assert.NoError(t, err)
	assert.Equal(t, []string{"s3", "s4", "s1"}, recommendations["u1"])
}

func TestBaggingResamples(t *testing.T) {
	_, _, train := newRandomSplit(t, 2)
	factory, created := newMockFactory(&mockModel{}, &mockModel{}, &mockModel{})
	b := NewBagging(factory, 10, model.Params{model.NumBags: 3, model.RandomState: 100, model.NumJobs: 3})
	assert.NoError(t, b.Fit(context.Background(), train))
	assert.Len(t, *created, 3)
	for i, m := range *created {
		expected := dataset.Resample(train, rand.New(rand.NewSource(100+int64(i))))
		assert.Equal(t, expected.GetSongIndex(), m.trainSet.GetSongIndex())
		assert.Equal(t, train.CountObservations(), m.trainSet.CountObservations())
	}
}

func TestBaggingFitError(t *testing.T) {
	train := newDataset(t, map[string]map[string]int{"v1": {"s1": 1}})
	factory, _ := newMockFactory(&mockModel{}, &mockModel{fitErr: errors.New("fit failed")})
	b := NewBagging(factory, 1, model.Params{model.NumBags: 2})
	assert.ErrorContains(t, b.Fit(context.Background(), train), "bag 1: fit failed")
	_, err := b.Recommend(context.Background(), train)
	assert.True(t, errors.IsNotValid(err))
}

func TestBaggingDeterministic(t *testing.T) {
	visible, _, train := newRandomSplit(t, 3)
	var results []model.Recommendations
	for _, jobs := range []int{1, 4} {
		m, err := NewModel(BaggingPrefix+KNNName, 10, model.Params{model.NumJobs: jobs, model.NumNeighbors: 10})
		assert.NoError(t, err)
		assert.NoError(t, m.Fit(context.Background(), train))
		recommendations, err := m.Recommend(context.Background(), visible)
		assert.NoError(t, err)
		results = append(results, recommendations)
	}
	assert.Equal(t, results[0], results[1])
}
