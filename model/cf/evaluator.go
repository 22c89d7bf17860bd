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
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/msd/dataset"
	"github.com/gorse-io/msd/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// UserAccuracy returns the fraction of recommended songs in the hidden set.
func UserAccuracy(recommended []string, hiddenSet mapset.Set[string]) (float64, error) {
	if len(recommended) == 0 {
		return 0, errors.NotValidf("empty recommendation list")
	}
	hits := 0
	for _, songId := range recommended {
		if hiddenSet.Contains(songId) {
			hits++
		}
	}
	return float64(hits) / float64(len(recommended)), nil
}

// Accuracy is the mean user accuracy over users with recommendations, as a
// percentage. Users without hidden songs count as 0.
func Accuracy(recommendations model.Recommendations, hiddenSet *dataset.Dataset) (float64, error) {
	if len(recommendations) == 0 {
		return 0, nil
	}
	users := lo.Keys(recommendations)
	sort.Strings(users)
	sum := 0.0
	for _, userId := range users {
		hidden := mapset.NewThreadUnsafeSet(lo.Keys(hiddenSet.GetUserHistory(userId))...)
		accuracy, err := UserAccuracy(recommendations[userId], hidden)
		if err != nil {
			return 0, errors.Annotatef(err, "user %s", userId)
		}
		sum += accuracy
	}
	return sum / float64(len(recommendations)) * 100, nil
}
