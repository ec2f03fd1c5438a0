// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// createTestBadgerDB opens an in-memory BadgerDB closed at test cleanup.
func createTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgerStore_PutGet(t *testing.T) {
	t.Parallel()

	s := NewBadgerStore(createTestBadgerDB(t), time.Hour)

	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Errorf("Get(missing) = %v, %v", ok, err)
	}

	want := Result{PosterURL: "https://image.tmdb.org/t/p/w500/a.jpg", Overview: "A film.", ReleaseDate: "1999-03-31"}
	if err := s.Put("603", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok, err := s.Get("603")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	if n, err := s.Count(); err != nil || n != 1 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestBadgerStore_FallbackFlagNotPersisted(t *testing.T) {
	t.Parallel()

	s := NewBadgerStore(createTestBadgerDB(t), 0)
	if err := s.Put("1", Result{PosterURL: "p", Fallback: true}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _, _ := s.Get("1")
	if got.Fallback {
		t.Error("Fallback flag survived a round trip through the store")
	}
}

func TestBadgerStore_ValuesAreMsgpack(t *testing.T) {
	t.Parallel()

	db := createTestBadgerDB(t)
	s := NewBadgerStore(db, 0)
	if err := s.Put("27205", Result{PosterURL: "p", Overview: "o", ReleaseDate: "2010-07-15"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var raw map[string]string
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(enrichmentKeyPrefix + "27205"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &raw)
		})
	})
	if err != nil {
		t.Fatalf("reading raw value: %v", err)
	}
	if raw["poster_url"] != "p" || raw["release_date"] != "2010-07-15" {
		t.Errorf("stored value = %v", raw)
	}
	if _, ok := raw["Fallback"]; ok {
		t.Error("Fallback field persisted")
	}
}

func TestOpenBadgerStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "enrich")
	s, err := OpenBadgerStore(path, time.Minute)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	if err := s.Put("2", Result{PosterURL: "x"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStore(path, time.Minute)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	if _, ok, _ := reopened.Get("2"); !ok {
		t.Error("entry lost across reopen")
	}
}
