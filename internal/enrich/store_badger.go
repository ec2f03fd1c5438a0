// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// enrichmentKeyPrefix namespaces entries so the database can be shared.
const enrichmentKeyPrefix = "enrich:"

// BadgerStore implements Store on BadgerDB. Entries expire through Badger's
// native TTL, so stale posters are refetched after ttl.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore wraps an open database. The caller owns db.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

// OpenBadgerStore opens (or creates) a database at path. Close releases it.
func OpenBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open enrichment store %s: %w", path, err)
	}
	return NewBadgerStore(db, ttl), nil
}

// Get returns the stored result for externalID.
func (s *BadgerStore) Get(externalID string) (Result, bool, error) {
	var res Result
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(enrichmentKeyPrefix + externalID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("get enrichment %s: %w", externalID, err)
	}
	return res, true, nil
}

// Put stores res for externalID with the configured TTL.
func (s *BadgerStore) Put(externalID string, res Result) error {
	data, err := msgpack.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal enrichment: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(enrichmentKeyPrefix+externalID), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Count returns the number of live entries.
func (s *BadgerStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(enrichmentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC reclaims value log space. It returns nil when there was nothing to
// rewrite.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
