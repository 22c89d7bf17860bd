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

package heap

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type Elem[T, W constraints.Ordered] struct {
	Value  T
	Weight W
}

// Before reports whether e ranks ahead of o: larger weight first, and among equal
// weights the smaller value first. The order is total, so top-k results never depend
// on insertion order.
func (e Elem[T, W]) Before(o Elem[T, W]) bool {
	if e.Weight != o.Weight {
		return e.Weight > o.Weight
	}
	return e.Value < o.Value
}

// _heap keeps the lowest ranked element on top.
type _heap[T, W constraints.Ordered] struct {
	elems []Elem[T, W]
}

func (h *_heap[T, W]) Len() int {
	return len(h.elems)
}

func (h *_heap[T, W]) Less(i, j int) bool {
	return h.elems[j].Before(h.elems[i])
}

func (h *_heap[T, W]) Swap(i, j int) {
	h.elems[i], h.elems[j] = h.elems[j], h.elems[i]
}

func (h *_heap[T, W]) Push(x interface{}) {
	h.elems = append(h.elems, x.(Elem[T, W]))
}

func (h *_heap[T, W]) Pop() interface{} {
	old := h.elems
	item := old[len(old)-1]
	h.elems = old[:len(old)-1]
	return item
}

// TopKFilter keeps the k elements with the highest weights.
type TopKFilter[T, W constraints.Ordered] struct {
	_heap[T, W]
	k int
}

// NewTopKFilter creates a top k filter. A filter with k <= 0 keeps nothing.
func NewTopKFilter[T, W constraints.Ordered](k int) *TopKFilter[T, W] {
	return &TopKFilter[T, W]{k: k}
}

// Push offers an element to the filter and reports whether it was kept. Once the
// filter is full, the element replaces the current minimum only if it ranks strictly
// ahead of it. NaN weights are ignored. The complexity is O(log k).
func (filter *TopKFilter[T, W]) Push(item T, weight W) bool {
	if filter.k <= 0 || weight != weight {
		return false
	}
	elem := Elem[T, W]{Value: item, Weight: weight}
	if filter.Len() < filter.k {
		heap.Push(&filter._heap, elem)
		return true
	}
	if elem.Before(filter.elems[0]) {
		filter.elems[0] = elem
		heap.Fix(&filter._heap, 0)
		return true
	}
	return false
}

// PopAll pops all items in the filter with decreasing order.
func (filter *TopKFilter[T, W]) PopAll() ([]T, []W) {
	items := make([]T, filter.Len())
	weights := make([]W, filter.Len())
	for i := len(items) - 1; i >= 0; i-- {
		elem := heap.Pop(&filter._heap).(Elem[T, W])
		items[i], weights[i] = elem.Value, elem.Weight
	}
	return items, weights
}

// PopAllValues pops all items in the filter with decreasing order and drops weights.
func (filter *TopKFilter[T, W]) PopAllValues() []T {
	items, _ := filter.PopAll()
	return items
}

// Backfill appends items from the fallback lists, in order, to a copy of partial
// until it holds n items or the fallbacks run out. Items already present are skipped.
func Backfill[T comparable](partial []T, n int, fallbacks ...[]T) []T {
	result := make([]T, 0, max(n, len(partial)))
	seen := make(map[T]struct{}, n)
	for _, item := range partial {
		if _, exist := seen[item]; !exist {
			seen[item] = struct{}{}
			result = append(result, item)
		}
	}
	for _, fallback := range fallbacks {
		for _, item := range fallback {
			if len(result) >= n {
				return result
			}
			if _, exist := seen[item]; !exist {
				seen[item] = struct{}{}
				result = append(result, item)
			}
		}
	}
	return result
}
