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
	"math/rand"
)

type observation struct {
	userId string
	songId string
	count  int
}

// Resample draws CountObservations observations with replacement from the
// distinct (user, song) pairs of a dataset and builds a new dataset from them.
// Repeated draws of a pair keep the first play count, so the resample records
// every draw in CountObservations but may hold fewer pairs.
func Resample(d *Dataset, rng *rand.Rand) *Dataset {
	observations := make([]observation, 0, d.CountFeedback())
	d.ForEach(func(userId, songId string, count int) {
		observations = append(observations, observation{userId: userId, songId: songId, count: count})
	})
	builder := NewBuilder()
	if len(observations) == 0 {
		return builder.Build()
	}
	for range d.CountObservations() {
		o := observations[rng.Intn(len(observations))]
		// counts come from a valid dataset
		_, _ = builder.Add(o.userId, o.songId, o.count)
	}
	return builder.Build()
}
