// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package snapshot reads and writes the two startup artifacts: the movie
// catalog and the affinity matrix.
//
// Supported encodings, chosen by file extension:
//   - .json: catalog as an array of records or as a column-oriented object
//     ({"movie_id": {"0": 19995, ...}, "title": {"0": "Avatar", ...}});
//     matrix as an array of rows
//   - .csv: catalog only, header row must name movie_id and title
//   - .msgpack, .mpk: catalog as an array of records; matrix as
//     {"n": N, "data": [row-major values]} or an array of rows
//
// The package only decodes structure. Semantic checks (empty catalog,
// missing fields, non-square matrix) belong to the catalog and affinity
// packages, which wrap these errors in their own LoadError types.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a snapshot encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatCSV
	FormatMsgpack
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned for unknown extensions or for a format
// that cannot carry the requested artifact (a matrix in CSV).
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// DetectFormat picks a Format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCatalogFile decodes the catalog snapshot at path.
func ReadCatalogFile(path string) ([]CatalogRecord, error) {
	var records []CatalogRecord
	err := withFile(path, func(r io.Reader, f Format) error {
		var err error
		records, err = DecodeCatalog(r, f)
		return err
	})
	return records, err
}

// ReadMatrixFile decodes the affinity snapshot at path.
func ReadMatrixFile(path string) ([][]float64, error) {
	var rows [][]float64
	err := withFile(path, func(r io.Reader, f Format) error {
		var err error
		rows, err = DecodeMatrix(r, f)
		return err
	})
	return rows, err
}

// WriteCatalogFile encodes records to path, choosing the format by extension.
func WriteCatalogFile(path string, records []CatalogRecord) error {
	return createFile(path, func(w io.Writer, f Format) error {
		return EncodeCatalog(w, f, records)
	})
}

// WriteMatrixFile encodes rows to path, choosing the format by extension.
func WriteMatrixFile(path string, rows [][]float64) error {
	return createFile(path, func(w io.Writer, f Format) error {
		return EncodeMatrix(w, f, rows)
	})
}

func withFile(path string, fn func(io.Reader, Format) error) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	file, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := fn(file, format); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func createFile(path string, fn func(io.Writer, Format) error) (err error) {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := fn(file, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
