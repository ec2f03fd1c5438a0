// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package catalog holds the immutable movie catalog loaded at startup.
//
// Entry indices are dense (0..N-1), follow snapshot row order, and line up
// one-to-one with affinity matrix rows. A Store is never mutated after
// construction, so it is safe for concurrent readers without locking.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/cinematch/internal/snapshot"
)

// Entry is one catalog row.
type Entry struct {
	Index      int    `json:"index"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
}

// LoadError reports a missing, empty or malformed catalog snapshot.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("catalog load failed")
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

// OutOfRangeError reports an index outside [0, Len).
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("catalog index %d out of range [0, %d)", e.Index, e.Len)
}

// Store is the read-only catalog.
type Store struct {
	entries []Entry
	byTitle map[string]int
}

// New builds a Store from records in row order. It fails with *LoadError
// when records is empty or any record lacks a movie id or title.
func New(records []snapshot.CatalogRecord) (*Store, error) {
	if len(records) == 0 {
		return nil, &LoadError{Reason: "catalog is empty"}
	}

	s := &Store{
		entries: make([]Entry, len(records)),
		byTitle: make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if rec.MovieID == "" {
			return nil, &LoadError{Reason: fmt.Sprintf("row %d: missing movie_id", i)}
		}
		if rec.Title == "" {
			return nil, &LoadError{Reason: fmt.Sprintf("row %d: missing title", i)}
		}
		s.entries[i] = Entry{Index: i, ExternalID: string(rec.MovieID), Title: rec.Title}

		// First occurrence wins, so duplicates resolve to the lowest index.
		if _, seen := s.byTitle[rec.Title]; !seen {
			s.byTitle[rec.Title] = i
		}
	}
	return s, nil
}

// Load reads and validates the catalog snapshot at path.
func Load(path string) (*Store, error) {
	records, err := snapshot.ReadCatalogFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	s, err := New(records)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return s, nil
}

// LookupByTitle returns the index of the first entry whose title matches
// exactly.
func (s *Store) LookupByTitle(title string) (int, bool) {
	idx, ok := s.byTitle[title]
	return idx, ok
}

// EntryAt returns the entry at index or *OutOfRangeError.
func (s *Store) EntryAt(index int) (Entry, error) {
	if index < 0 || index >= len(s.entries) {
		return Entry{}, &OutOfRangeError{Index: index, Len: len(s.entries)}
	}
	return s.entries[index], nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Titles returns titles in index order, including duplicates.
func (s *Store) Titles() []string {
	titles := make([]string, len(s.entries))
	for i, e := range s.entries {
		titles[i] = e.Title
	}
	return titles
}

// DuplicateTitles counts entries whose title also appears at a lower index.
// Those entries are unreachable through LookupByTitle.
func (s *Store) DuplicateTitles() int {
	return len(s.entries) - len(s.byTitle)
}
