// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// flatMatrix is the compact msgpack layout: N and N*N row-major values.
type flatMatrix struct {
	N    int       `msgpack:"n"`
	Data []float64 `msgpack:"data"`
}

// DecodeMatrix decodes an affinity matrix in the given format.
func DecodeMatrix(r io.Reader, f Format) ([][]float64, error) {
	switch f {
	case FormatJSON:
		var rows [][]float64
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, err
		}
		return rows, nil
	case FormatMsgpack:
		return decodeMatrixMsgpack(r)
	case FormatCSV:
		return nil, fmt.Errorf("%w: matrix cannot be stored as csv", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// EncodeMatrix writes rows in the given format. Msgpack output uses the
// flat layout.
func EncodeMatrix(w io.Writer, f Format, rows [][]float64) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(rows)
	case FormatMsgpack:
		flat := flatMatrix{N: len(rows), Data: make([]float64, 0, len(rows)*len(rows))}
		for i, row := range rows {
			if len(row) != len(rows) {
				return fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(rows))
			}
			flat.Data = append(flat.Data, row...)
		}
		return msgpack.NewEncoder(w).Encode(&flat)
	case FormatCSV:
		return fmt.Errorf("%w: matrix cannot be stored as csv", ErrUnsupportedFormat)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func decodeMatrixMsgpack(r io.Reader) ([][]float64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}

	if isMapCode(code) {
		var flat flatMatrix
		if err := dec.Decode(&flat); err != nil {
			return nil, err
		}
		if flat.N < 0 || len(flat.Data) != flat.N*flat.N {
			return nil, fmt.Errorf("flat matrix has %d values, want %d (n=%d)", len(flat.Data), flat.N*flat.N, flat.N)
		}
		rows := make([][]float64, flat.N)
		for i := range rows {
			rows[i] = flat.Data[i*flat.N : (i+1)*flat.N : (i+1)*flat.N]
		}
		return rows, nil
	}

	var rows [][]float64
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// isMapCode reports whether a msgpack type code starts a map.
func isMapCode(c byte) bool {
	return (c >= 0x80 && c <= 0x8f) || c == 0xde || c == 0xdf
}
