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
	"strings"

	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
)

const (
	PopularName    = "popular"
	UserBasedName  = "user-cf"
	ItemBasedName  = "item-cf"
	KNNName        = "knn"
	NaiveBayesName = "naive-bayes"
	BaggingPrefix  = "bagging-"
)

var constructors = map[string]func(n int, params model.Params) model.Model{
	PopularName:    func(n int, params model.Params) model.Model { return NewPopular(n, params) },
	UserBasedName:  func(n int, params model.Params) model.Model { return NewUserBased(n, params) },
	ItemBasedName:  func(n int, params model.Params) model.Model { return NewItemBased(n, params) },
	KNNName:        func(n int, params model.Params) model.Model { return NewKNN(n, params) },
	NaiveBayesName: func(n int, params model.Params) model.Model { return NewNaiveBayes(n, params) },
}

// Names returns the names of base recommenders.
func Names() []string {
	return []string{PopularName, UserBasedName, ItemBasedName, KNNName, NaiveBayesName}
}

// NewModel creates a recommender by name. A name of the form "bagging-<base>"
// creates a bagging ensemble of the base recommender.
func NewModel(name string, n int, params model.Params) (model.Model, error) {
	if base, ok := strings.CutPrefix(name, BaggingPrefix); ok {
		if _, exist := constructors[base]; !exist {
			return nil, errors.NotValidf("base recommender %s", base)
		}
		return NewBagging(func() (model.Model, error) {
			return NewModel(base, n, params.Copy())
		}, n, params), nil
	}
	if constructor, exist := constructors[name]; exist {
		return constructor(n, params), nil
	}
	return nil, errors.NotValidf("recommender %s", name)
}
