// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package snapshot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// CatalogRecord is one catalog row. Row order defines the internal index.
type CatalogRecord struct {
	MovieID ExternalID `json:"movie_id" msgpack:"movie_id"`
	Title   string     `json:"title" msgpack:"title"`
}

// ExternalID is the remote metadata key for a movie. Snapshots may store it
// as a number or a string; both decode to the decimal string form.
type ExternalID string

// UnmarshalJSON accepts a JSON string, integer or integral float.
func (id *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(s))
		return nil
	}
	parsed, err := numericID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// DecodeMsgpack accepts a msgpack string, integer or integral float.
func (id *ExternalID) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*id = ""
	case string:
		*id = ExternalID(strings.TrimSpace(x))
	case []byte:
		*id = ExternalID(strings.TrimSpace(string(x)))
	case int64:
		*id = ExternalID(strconv.FormatInt(x, 10))
	case uint64:
		*id = ExternalID(strconv.FormatUint(x, 10))
	case float64:
		parsed, err := numericID(strconv.FormatFloat(x, 'f', -1, 64))
		if err != nil {
			return err
		}
		*id = parsed
	default:
		return fmt.Errorf("movie_id: unsupported type %T", v)
	}
	return nil
}

// numericID normalizes "19995" and "19995.0" to "19995".
func numericID(s string) (ExternalID, error) {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ExternalID(s), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", fmt.Errorf("movie_id: %q is not an integer id", s)
	}
	return ExternalID(strconv.FormatInt(int64(f), 10)), nil
}

// DecodeCatalog decodes catalog records in the given format.
func DecodeCatalog(r io.Reader, f Format) ([]CatalogRecord, error) {
	switch f {
	case FormatJSON:
		return decodeCatalogJSON(r)
	case FormatCSV:
		return decodeCatalogCSV(r)
	case FormatMsgpack:
		var records []CatalogRecord
		if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// EncodeCatalog writes records in the given format.
func EncodeCatalog(w io.Writer, f Format, records []CatalogRecord) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"movie_id", "title"}); err != nil {
			return err
		}
		for _, rec := range records {
			if err := cw.Write([]string{string(rec.MovieID), rec.Title}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(records)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func decodeCatalogJSON(r io.Reader) ([]CatalogRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	switch trimmed[0] {
	case '[':
		var records []CatalogRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		return decodeCatalogColumns(trimmed)
	default:
		return nil, errors.New("catalog must be a JSON array or object")
	}
}

// decodeCatalogColumns handles the column-oriented layout produced by
// dumping a data frame as a dict: each column is either a list or an
// object keyed by row index.
func decodeCatalogColumns(data []byte) ([]CatalogRecord, error) {
	var columns map[string]json.RawMessage
	if err := json.Unmarshal(data, &columns); err != nil {
		return nil, err
	}
	idCol, ok := columns["movie_id"]
	if !ok {
		return nil, errors.New(`missing column "movie_id"`)
	}
	titleCol, ok := columns["title"]
	if !ok {
		return nil, errors.New(`missing column "title"`)
	}

	var ids []ExternalID
	idKeys, err := decodeColumn(idCol, &ids)
	if err != nil {
		return nil, fmt.Errorf("column movie_id: %w", err)
	}
	var titles []string
	titleKeys, err := decodeColumn(titleCol, &titles)
	if err != nil {
		return nil, fmt.Errorf("column title: %w", err)
	}
	if len(ids) != len(titles) {
		return nil, fmt.Errorf("column length mismatch: movie_id=%d title=%d", len(ids), len(titles))
	}
	for i := range idKeys {
		if idKeys[i] != titleKeys[i] {
			return nil, fmt.Errorf("row index mismatch at position %d: %d vs %d", i, idKeys[i], titleKeys[i])
		}
	}

	records := make([]CatalogRecord, len(ids))
	for i := range ids {
		records[i] = CatalogRecord{MovieID: ids[i], Title: titles[i]}
	}
	return records, nil
}

// decodeColumn fills out (a *[]T) from a JSON list or an index-keyed object.
// Object columns are ordered by ascending integer key. The returned keys are
// the row labels in output order.
func decodeColumn[T any](raw json.RawMessage, out *[]T) ([]int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, err
		}
		keys := make([]int, len(*out))
		for i := range keys {
			keys[i] = i
		}
		return keys, nil
	}

	var byKey map[string]T
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, err
	}
	byIndex := make(map[int]T, len(byKey))
	keys := make([]int, 0, len(byKey))
	for k, v := range byKey {
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("row key %q is not an integer", k)
		}
		if _, dup := byIndex[n]; dup {
			return nil, fmt.Errorf("duplicate row key %d", n)
		}
		byIndex[n] = v
		keys = append(keys, n)
	}
	sort.Ints(keys)

	values := make([]T, len(keys))
	for i, k := range keys {
		values[i] = byIndex[k]
	}
	*out = values
	return keys, nil
}

func decodeCatalogCSV(r io.Reader) ([]CatalogRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"movie_id", "title"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("csv header missing %q", col)
		}
	}

	var records []CatalogRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rawID := valueAt(header, row, "movie_id")
		var id ExternalID
		if rawID != "" {
			if id, err = numericOrString(rawID); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
		}
		records = append(records, CatalogRecord{MovieID: id, Title: valueAt(header, row, "title")})
	}
	return records, nil
}

func numericOrString(raw string) (ExternalID, error) {
	if id, err := numericID(raw); err == nil {
		return id, nil
	}
	return ExternalID(raw), nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
