// Copyright 2020 gorse Project Authors
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

package model

import (
	"context"

	"github.com/gorse-io/msd/dataset"
	"github.com/juju/errors"
)

// Recommendations maps a user to a ranked list of songs. Lists may be shared
// between users and must not be modified.
type Recommendations map[string][]string

// Model is the interface for all recommenders. A model is unfitted until Fit
// succeeds and Recommend fails before that.
type Model interface {
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns hyper-parameters.
	GetParams() Params
	// GetParamsGrid returns the default search space.
	GetParamsGrid() ParamsGrid
	// Clear drops fitted state.
	Clear()
	// Fit a model with a train set.
	Fit(ctx context.Context, trainSet *dataset.Dataset) error
	// Recommend songs to every user in the query set.
	Recommend(ctx context.Context, querySet *dataset.Dataset) (Recommendations, error)
}

// ErrUnfitted is returned by Recommend before Fit.
var ErrUnfitted = errors.NotValidf("unfitted model")

// BaseModel must be included by every recommendation model. Hyper-parameters,
// the random seed and the number of recommendations are managed by it.
type BaseModel struct {
	Params    Params // Hyper-parameters
	N         int    // Number of recommendations
	randState int64
}

// SetParams sets hyper-parameters for the BaseModel model.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomState() int64 {
	return model.randState
}

// Validate checks the number of recommendations.
func (model *BaseModel) Validate() error {
	if model.N < 1 {
		return errors.NotValidf("number of recommendations %d", model.N)
	}
	return nil
}
