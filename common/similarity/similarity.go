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
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Weighted computes the similarity between two sets from the size of their
// intersection:
//
//	common / (sizeA^alpha * sizeB^(1-alpha))
//
// The result is 0 if the sets do not intersect or either set is empty.
func Weighted(common, sizeA, sizeB int, alpha float64) float64 {
	if common <= 0 || sizeA <= 0 || sizeB <= 0 {
		return 0
	}
	return float64(common) / (math.Pow(float64(sizeA), alpha) * math.Pow(float64(sizeB), 1-alpha))
}

// Sets computes the weighted similarity between two sets.
func Sets[T comparable](a, b mapset.Set[T], alpha float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	return Weighted(a.Intersect(b).Cardinality(), a.Cardinality(), b.Cardinality(), alpha)
}

// Matrix is a sparse similarity matrix. Only pairs sharing at least one element
// are stored.
type Matrix struct {
	rows  map[string]map[string]float64
	count int
}

// Row returns the neighbors of a. The returned map must not be modified.
func (m *Matrix) Row(a string) map[string]float64 {
	return m.rows[a]
}

// Count returns the number of stored pairs.
func (m *Matrix) Count() int {
	return m.count
}

// Pairwise computes the similarity between every row and every column reachable
// through the inverted index. rows maps a row id to its elements, inverted maps an
// element to the column ids containing it, and sizeOf returns the number of
// elements of a column. Pairs without common elements are never visited.
func Pairwise(rows map[string][]string, inverted map[string][]string, sizeOf func(string) int, alpha float64) *Matrix {
	m := &Matrix{rows: make(map[string]map[string]float64, len(rows))}
	for id, elements := range rows {
		common := make(map[string]int)
		for _, e := range elements {
			for _, other := range inverted[e] {
				common[other]++
			}
		}
		if len(common) == 0 {
			continue
		}
		row := make(map[string]float64, len(common))
		for other, c := range common {
			if score := Weighted(c, len(elements), sizeOf(other), alpha); score > 0 {
				row[other] = score
			}
		}
		m.rows[id] = row
		m.count += len(row)
	}
	return m
}

// SparseVector is the data structure for the sparse vector.
type SparseVector struct {
	Indices []int
	Values  []float64
	sorted  bool
}

// NewSparseVector creates a SparseVector.
func NewSparseVector() *SparseVector {
	return &SparseVector{}
}

// Add a new item.
func (vec *SparseVector) Add(index int, value float64) {
	vec.Indices = append(vec.Indices, index)
	vec.Values = append(vec.Values, value)
	vec.sorted = false
}

// Len returns the number of items.
func (vec *SparseVector) Len() int {
	return len(vec.Values)
}

func (vec *SparseVector) Less(i, j int) bool {
	return vec.Indices[i] < vec.Indices[j]
}

func (vec *SparseVector) Swap(i, j int) {
	vec.Indices[i], vec.Indices[j] = vec.Indices[j], vec.Indices[i]
	vec.Values[i], vec.Values[j] = vec.Values[j], vec.Values[i]
}

// SortIndex sorts items by indices.
func (vec *SparseVector) SortIndex() {
	if !vec.sorted {
		sort.Sort(vec)
		vec.sorted = true
	}
}

// Norm returns the euclidean norm.
func (vec *SparseVector) Norm() float64 {
	sum := 0.0
	for _, v := range vec.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dot computes the dot product with another vector.
func (vec *SparseVector) Dot(other *SparseVector) float64 {
	vec.SortIndex()
	other.SortIndex()
	i, j, sum := 0, 0, 0.0
	for i < vec.Len() && j < other.Len() {
		switch {
		case vec.Indices[i] == other.Indices[j]:
			sum += vec.Values[i] * other.Values[j]
			i++
			j++
		case vec.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Cosine computes the cosine similarity between a pair of vectors. Zero vectors
// have similarity 0 to everything.
func Cosine(a, b *SparseVector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	return a.Dot(b) / (normA * normB)
}
