// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tomtom215/cinematch/internal/affinity"
)

func scoresFrom(values ...float64) []affinity.Score {
	row := make([]affinity.Score, len(values))
	for i, v := range values {
		row[i] = affinity.Score{Index: i, Score: v}
	}
	return row
}

func TestTopK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		row   []affinity.Score
		query int
		k     int
		want  []affinity.Score
	}{
		{
			name:  "ties broken by ascending index",
			row:   scoresFrom(0.1, 0.9, 0.5, 0.9),
			query: 0,
			k:     2,
			want:  []affinity.Score{{Index: 1, Score: 0.9}, {Index: 3, Score: 0.9}},
		},
		{
			name:  "k larger than candidates",
			row:   scoresFrom(1, 0.2, 0.7),
			query: 0,
			k:     10,
			want:  []affinity.Score{{Index: 2, Score: 0.7}, {Index: 1, Score: 0.2}},
		},
		{
			name:  "self excluded even when it scores lower",
			row:   scoresFrom(0.3, 0.1, 0.9),
			query: 2,
			k:     1,
			want:  []affinity.Score{{Index: 0, Score: 0.3}},
		},
		{
			name:  "zero k",
			row:   scoresFrom(1, 0.5),
			query: 0,
			k:     0,
			want:  []affinity.Score{},
		},
		{
			name:  "negative k",
			row:   scoresFrom(1, 0.5),
			query: 0,
			k:     -3,
			want:  []affinity.Score{},
		},
		{
			name:  "single item catalog",
			row:   scoresFrom(1),
			query: 0,
			k:     5,
			want:  []affinity.Score{},
		},
		{
			name:  "negative scores",
			row:   scoresFrom(-0.5, 1, -0.1, -0.9),
			query: 1,
			k:     3,
			want:  []affinity.Score{{Index: 2, Score: -0.1}, {Index: 0, Score: -0.5}, {Index: 3, Score: -0.9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TopK(tt.row, tt.query, tt.k); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopK() = %v, want %v", got, tt.want)
			}
			if got := TopKHeap(tt.row, tt.query, tt.k); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopKHeap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopK_DoesNotMutateRow(t *testing.T) {
	t.Parallel()

	row := scoresFrom(0.4, 0.2, 0.8, 0.6)
	orig := append([]affinity.Score(nil), row...)

	TopK(row, 0, 2)
	TopKHeap(row, 0, 2)

	if !reflect.DeepEqual(row, orig) {
		t.Errorf("row mutated: %v", row)
	}
}

// TestTopKHeap_AgreesWithSort runs both strategies over random rows,
// including heavily tied ones drawn from a small set of values.
func TestTopKHeap_AgreesWithSort(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(300)
		values := make([]float64, n)
		for i := range values {
			if trial%2 == 0 {
				values[i] = float64(rng.Intn(5)) / 4
			} else {
				values[i] = rng.Float64()*2 - 1
			}
		}
		row := scoresFrom(values...)
		query := rng.Intn(n)
		k := rng.Intn(n + 2)

		want := TopK(row, query, k)
		got := TopKHeap(row, query, k)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d (n=%d query=%d k=%d): heap %v, sort %v", trial, n, query, k, got, want)
		}
		for _, s := range got {
			if s.Index == query {
				t.Fatalf("trial %d: query index %d returned", trial, query)
			}
		}
	}
}

func TestSelect_Strategy(t *testing.T) {
	t.Parallel()

	row := scoresFrom(0.1, 0.9, 0.5, 0.9, 0.3, 0.7, 0.2, 0.8, 0.6, 0.4)
	want := TopK(row, 0, 3)

	for _, threshold := range []int{0, 1, 3, 8, 100} {
		if got := Select(row, 0, 3, threshold); !reflect.DeepEqual(got, want) {
			t.Errorf("Select(threshold=%d) = %v, want %v", threshold, got, want)
		}
	}
}

func BenchmarkTopK(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 5000)
	for i := range values {
		values[i] = rng.Float64()
	}
	row := scoresFrom(values...)

	b.Run("sort", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			TopK(row, 0, 10)
		}
	})
	b.Run("heap", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			TopKHeap(row, 0, 10)
		}
	})
}
