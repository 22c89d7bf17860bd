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
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gorse-io/msd/common/log"
	"go.uber.org/zap"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	RandomState              ParamName = "RandomState"              // random state (seed)
	NumNeighbors             ParamName = "NumNeighbors"             // number of neighbors in KNN
	WeightCoefficient        ParamName = "WeightCoefficient"        // alpha of user similarity
	NormalizationCoefficient ParamName = "NormalizationCoefficient" // exponent of user similarity
	ItemAlpha                ParamName = "ItemAlpha"                // alpha of song similarity
	NumBags                  ParamName = "NumBags"                  // number of bootstrap learners
	NumJobs                  ParamName = "NumJobs"                  // number of workers
)

// Params stores hyper-parameters for a model. For example, hyper-parameters
// for user-based CF are given by:
//
//	model.Params{
//		model.WeightCoefficient:        0.8,
//		model.NormalizationCoefficient: 8.0,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params, len(parameters))
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

func typeMismatch(method string, name ParamName, val interface{}) {
	log.Logger().Warn("unexpected type of hyper-parameter",
		zap.String("method", method),
		zap.String("name", string(name)),
		zap.String("type", fmt.Sprintf("%T", val)))
}

// GetInt gets an integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		default:
			typeMismatch("GetInt", name, val)
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists or type doesn't match. The
// type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			typeMismatch("GetInt64", name, val)
		}
	}
	return _default
}

// GetFloat64 gets a float64 parameter by name. Integers are converted.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		default:
			typeMismatch("GetFloat64", name, val)
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			typeMismatch("GetString", name, val)
		}
	}
	return _default
}

// Overwrite returns a copy of parameters updated by params.
func (parameters Params) Overwrite(params Params) Params {
	merged := parameters.Copy()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to marshal hyper-parameters", zap.Error(err))
		return ""
	}
	return string(b)
}

// ParamsGrid contains candidate for grid search.
type ParamsGrid map[ParamName][]interface{}

func (grid ParamsGrid) Len() int {
	return len(grid)
}

// NumCombinations returns the number of points in the grid.
func (grid ParamsGrid) NumCombinations() int {
	if len(grid) == 0 {
		return 0
	}
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}

// Fill adds candidates of missing parameters from _default.
func (grid ParamsGrid) Fill(_default ParamsGrid) {
	for param, values := range _default {
		if _, exist := grid[param]; !exist {
			grid[param] = values
		}
	}
}

// Combinations enumerates every point of the grid by depth-first search. Parameter
// names are visited in lexicographic order, so the enumeration is reproducible.
func (grid ParamsGrid) Combinations() []Params {
	paramNames := make([]ParamName, 0, len(grid))
	for paramName := range grid {
		paramNames = append(paramNames, paramName)
	}
	sort.Slice(paramNames, func(i, j int) bool { return paramNames[i] < paramNames[j] })
	results := make([]Params, 0, grid.NumCombinations())
	if len(paramNames) == 0 {
		return results
	}
	var dfs func(deep int, params Params)
	dfs = func(deep int, params Params) {
		if deep == len(paramNames) {
			results = append(results, params.Copy())
			return
		}
		paramName := paramNames[deep]
		for _, val := range grid[paramName] {
			params[paramName] = val
			dfs(deep+1, params)
		}
	}
	dfs(0, make(Params))
	return results
}
