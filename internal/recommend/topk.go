// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"container/heap"
	"sort"

	"github.com/tomtom215/cinematch/internal/affinity"
)

// ranksBefore orders by descending score, then ascending index.
func ranksBefore(a, b affinity.Score) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// Select picks the top k of row excluding query, using the bounded heap
// when k*threshold < len(row) and a full sort otherwise. Both strategies
// return identical slices.
func Select(row []affinity.Score, query, k, threshold int) []affinity.Score {
	if threshold > 0 && k > 0 && k*threshold < len(row) {
		return TopKHeap(row, query, k)
	}
	return TopK(row, query, k)
}

// TopK sorts every pair except the query's own and returns the first
// min(k, len(row)-1). k <= 0 yields an empty slice.
func TopK(row []affinity.Score, query, k int) []affinity.Score {
	if k <= 0 {
		return []affinity.Score{}
	}

	candidates := make([]affinity.Score, 0, len(row))
	for _, s := range row {
		if s.Index != query {
			candidates = append(candidates, s)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return ranksBefore(candidates[i], candidates[j])
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k:k]
}

// TopKHeap selects with a size-k heap in O(N log k). The heap root is the
// weakest kept pair, replaced whenever a stronger candidate arrives.
func TopKHeap(row []affinity.Score, query, k int) []affinity.Score {
	if k <= 0 {
		return []affinity.Score{}
	}

	h := make(weakestFirst, 0, k)
	for _, s := range row {
		if s.Index == query {
			continue
		}
		if len(h) < k {
			heap.Push(&h, s)
			continue
		}
		if ranksBefore(s, h[0]) {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}

	out := []affinity.Score(h)
	sort.Slice(out, func(i, j int) bool {
		return ranksBefore(out[i], out[j])
	})
	return out
}

// weakestFirst is a heap.Interface whose root ranks last.
type weakestFirst []affinity.Score

func (h weakestFirst) Len() int           { return len(h) }
func (h weakestFirst) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h weakestFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *weakestFirst) Push(x any) {
	*h = append(*h, x.(affinity.Score))
}

func (h *weakestFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
