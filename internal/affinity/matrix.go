// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package affinity holds the precomputed N x N similarity matrix.
//
// Row i holds item i's similarity to every item, itself included. Rows and
// columns follow catalog order. Symmetry is assumed by convention and never
// checked. The matrix is immutable once built.
package affinity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/cinematch/internal/snapshot"
)

// Score pairs a column index with its similarity value.
type Score struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// LoadError reports a missing, empty or malformed affinity snapshot.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("affinity load failed")
	if e.Path != "" {
		b.WriteString(" (" + e.Path + ")")
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a matrix whose shape does not match the catalog.
type DimensionMismatchError struct {
	Rows int
	Cols int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("affinity matrix is %dx%d, catalog has %d entries", e.Rows, e.Cols, e.Want)
}

// OutOfRangeError reports a row index outside [0, Dim).
type OutOfRangeError struct {
	Index int
	Dim   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("affinity row %d out of range [0, %d)", e.Index, e.Dim)
}

// Matrix is the immutable square similarity matrix.
type Matrix struct {
	dense *mat.Dense
	n     int
}

// New copies rows into a Matrix. Rows must be non-empty, square and finite.
func New(rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, &LoadError{Reason: "matrix is empty"}
	}

	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, &DimensionMismatchError{Rows: n, Cols: len(row), Want: n}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &LoadError{Reason: fmt.Sprintf("non-finite score at [%d][%d]", i, j)}
			}
		}
		data = append(data, row...)
	}

	return &Matrix{dense: mat.NewDense(n, n, data), n: n}, nil
}

// Load reads the affinity snapshot at path.
func Load(path string) (*Matrix, error) {
	rows, err := snapshot.ReadMatrixFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	m, err := New(rows)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return m, nil
}

// CheckDimension returns *DimensionMismatchError unless the matrix is want x want.
func (m *Matrix) CheckDimension(want int) error {
	rows, cols := m.dense.Dims()
	if rows != want || cols != want {
		return &DimensionMismatchError{Rows: rows, Cols: cols, Want: want}
	}
	return nil
}

// Dim returns N.
func (m *Matrix) Dim() int {
	return m.n
}

// Row returns all N (index, score) pairs of row index, in column order.
func (m *Matrix) Row(index int) ([]Score, error) {
	if index < 0 || index >= m.n {
		return nil, &OutOfRangeError{Index: index, Dim: m.n}
	}
	raw := m.dense.RawRowView(index)
	out := make([]Score, len(raw))
	for j, v := range raw {
		out[j] = Score{Index: j, Score: v}
	}
	return out, nil
}

// At returns the score between items i and j.
func (m *Matrix) At(i, j int) (float64, error) {
	if i < 0 || i >= m.n {
		return 0, &OutOfRangeError{Index: i, Dim: m.n}
	}
	if j < 0 || j >= m.n {
		return 0, &OutOfRangeError{Index: j, Dim: m.n}
	}
	return m.dense.At(i, j), nil
}

// Rows returns a deep copy of the matrix as nested slices.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = mat.Row(nil, i, m.dense)
	}
	return out
}
