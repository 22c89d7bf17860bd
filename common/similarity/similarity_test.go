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

package similarity

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

const simTestEpsilon = 1e-6

func TestWeighted(t *testing.T) {
	assert.InDelta(t, 2/math.Sqrt(12), Weighted(2, 3, 4, 0.5), simTestEpsilon)
	assert.InDelta(t, 2/(math.Pow(3, 0.8)*math.Pow(4, 0.2)), Weighted(2, 3, 4, 0.8), simTestEpsilon)
	assert.Zero(t, Weighted(0, 3, 4, 0.5))
	assert.Zero(t, Weighted(1, 0, 4, 0.5))
	assert.Zero(t, Weighted(1, 4, 0, 0.5))
}

func randomSet(rng *rand.Rand) mapset.Set[string] {
	set := mapset.NewSet[string]()
	for i := rng.Intn(10); i > 0; i-- {
		set.Add(strconv.Itoa(rng.Intn(15)))
	}
	return set
}

func TestSetsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for i := 0; i < 200; i++ {
		a, b := randomSet(rng), randomSet(rng)
		ab := Sets(a, b, 0.5)
		assert.InDelta(t, ab, Sets(b, a, 0.5), simTestEpsilon)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0+simTestEpsilon)
		if a.Intersect(b).IsEmpty() {
			assert.Zero(t, ab)
		}
		if !a.IsEmpty() {
			assert.InDelta(t, 1.0, Sets(a, a.Clone(), 0.8), simTestEpsilon)
		}
	}
	assert.Zero(t, Sets[string](nil, mapset.NewSet("a"), 0.5))
}

func TestPairwise(t *testing.T) {
	// songs -> listeners
	rows := map[string][]string{
		"s1": {"u1", "u2"},
		"s2": {"u2", "u3"},
		"s3": {"u4"},
	}
	inverted := map[string][]string{
		"u1": {"s1"},
		"u2": {"s1", "s2"},
		"u3": {"s2"},
		"u4": {"s3"},
	}
	m := Pairwise(rows, inverted, func(s string) int { return len(rows[s]) }, 0.5)
	assert.InDelta(t, 1.0, m.Row("s1")["s1"], simTestEpsilon)
	assert.InDelta(t, 0.5, m.Row("s1")["s2"], simTestEpsilon)
	assert.InDelta(t, m.Row("s1")["s2"], m.Row("s2")["s1"], simTestEpsilon)
	assert.Zero(t, m.Row("s1")["s3"])
	assert.NotContains(t, m.Row("s1"), "s3")
	assert.Equal(t, 5, m.Count())
	assert.Nil(t, m.Row("s4"))
}

func TestPairwiseMatchesSets(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sets := make(map[string]mapset.Set[string])
	rows := make(map[string][]string)
	inverted := make(map[string][]string)
	for i := 0; i < 30; i++ {
		id := "u" + strconv.Itoa(i)
		sets[id] = randomSet(rng)
		rows[id] = sets[id].ToSlice()
		for _, e := range rows[id] {
			inverted[e] = append(inverted[e], id)
		}
	}
	m := Pairwise(rows, inverted, func(id string) int { return len(rows[id]) }, 0.8)
	for a := range sets {
		for b := range sets {
			assert.InDelta(t, Sets(sets[a], sets[b], 0.8), m.Row(a)[b], simTestEpsilon)
		}
	}
}

func TestCosine(t *testing.T) {
	a := NewSparseVector()
	a.Add(3, 6)
	a.Add(1, 4)
	a.Add(2, 5)
	b := NewSparseVector()
	b.Add(0, 1)
	b.Add(1, 1)
	b.Add(2, 2)
	expected := (4 + 10) / (math.Sqrt(16+25+36) * math.Sqrt(1+1+4))
	assert.InDelta(t, expected, Cosine(a, b), simTestEpsilon)
	assert.InDelta(t, Cosine(b, a), Cosine(a, b), simTestEpsilon)
	assert.InDelta(t, 1.0, Cosine(a, a), simTestEpsilon)
	assert.Zero(t, Cosine(a, NewSparseVector()))
}
