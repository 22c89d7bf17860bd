// Copyright 2025 gorse Project Authors
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
package dataset

import (
	"github.com/juju/errors"
)

// Partition splits a dataset into k folds of disjoint users. Users are sorted and
// cut into k contiguous groups of total/k users, the last group taking the
// remainder. The song index of a fold only contains listeners of that fold.
func Partition(d *Dataset, k int) ([]*Dataset, error) {
	if k < 1 || k > d.CountUsers() {
		return nil, errors.NotValidf("%d folds for %d users", k, d.CountUsers())
	}
	users := d.GetUsers()
	size := len(users) / k
	folds := make([]*Dataset, k)
	for i := range folds {
		begin, end := i*size, (i+1)*size
		if i == k-1 {
			end = len(users)
		}
		builder := NewBuilder()
		for _, userId := range users[begin:end] {
			builder.AddUser(userId)
			for songId, count := range d.GetUserHistory(userId) {
				builder.history[userId][songId] = count
				builder.observations++
			}
		}
		folds[i] = builder.Build()
	}
	return folds, nil
}

// SelectTest uses the fold at testIndex as the test fold. The test fold is split
// into visible and hidden halves and the other folds are merged into the train set.
func SelectTest(folds []*Dataset, testIndex int) (visible, hidden, train *Dataset, err error) {
	if testIndex < 0 || testIndex >= len(folds) {
		return nil, nil, nil, errors.NotValidf("test fold %d of %d folds", testIndex, len(folds))
	}
	others := make([]*Dataset, 0, len(folds)-1)
	for i, fold := range folds {
		if i != testIndex {
			others = append(others, fold)
		}
	}
	visible, hidden = SplitHalf(folds[testIndex])
	return visible, hidden, Merge(others...), nil
}

// SplitHalf assigns the first ceil(n/2) songs of each user, in lexicographic order,
// to visible and the rest to hidden. Every user appears in both halves.
func SplitHalf(d *Dataset) (visible, hidden *Dataset) {
	visibleBuilder, hiddenBuilder := NewBuilder(), NewBuilder()
	for _, userId := range d.GetUsers() {
		visibleBuilder.AddUser(userId)
		hiddenBuilder.AddUser(userId)
		songs := d.GetUserSongs(userId)
		half := (len(songs) + 1) / 2
		for i, songId := range songs {
			target := visibleBuilder
			if i >= half {
				target = hiddenBuilder
			}
			target.history[userId][songId] = d.PlayCount(userId, songId)
			target.observations++
		}
	}
	return visibleBuilder.Build(), hiddenBuilder.Build()
}

// Merge unions datasets. Listener lists are unioned by rebuilding the song index.
// If several datasets contain the same (user, song) pair, the first one wins.
func Merge(datasets ...*Dataset) *Dataset {
	builder := NewBuilder()
	for _, d := range datasets {
		for userId, songs := range d.history {
			builder.AddUser(userId)
			for songId, count := range songs {
				if _, exist := builder.history[userId][songId]; !exist {
					builder.history[userId][songId] = count
					builder.observations++
				}
			}
		}
	}
	return builder.Build()
}
