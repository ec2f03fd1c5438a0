// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Store is a persistent second-level cache for enrichment results.
type Store interface {
	Get(externalID string) (Result, bool, error)
	Put(externalID string, res Result) error
}

// CachedFetcher serves lookups from an in-memory LRU, then an optional
// Store, then the wrapped Fetcher. Concurrent misses for the same id share
// one upstream call. Fallback results are returned but never stored.
type CachedFetcher struct {
	next        Fetcher
	lru         *cache.LRU[Result]
	store       Store
	placeholder string
	group       singleflight.Group
	logger      zerolog.Logger
}

// NewCachedFetcher decorates next. store may be nil.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCachedFetcher(next Fetcher, lru *cache.LRU[Result], store Store, placeholder string, logger zerolog.Logger) *CachedFetcher {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &CachedFetcher{
		next:        next,
		lru:         lru,
		store:       store,
		placeholder: placeholder,
		logger:      logger.With().Str("component", "enrich_cache").Logger(),
	}
}

// Sweep drops expired in-memory entries and returns how many were removed.
func (c *CachedFetcher) Sweep() int {
	return c.lru.CleanupExpired()
}

// Fetch implements Fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, externalID string) Result {
	if res, ok := c.lru.Get(externalID); ok {
		metrics.RecordCacheLookup("enrichment_memory", true)
		metrics.RecordEnrichment("cached")
		return res
	}
	metrics.RecordCacheLookup("enrichment_memory", false)

	if c.store != nil {
		res, ok, err := c.store.Get(externalID)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("external_id", externalID).Msg("Enrichment store read failed")
		case ok:
			metrics.RecordCacheLookup("enrichment_store", true)
			metrics.RecordEnrichment("cached")
			c.lru.Add(externalID, res)
			return res
		default:
			metrics.RecordCacheLookup("enrichment_store", false)
		}
	}

	// The shared call outlives any one caller; the client's per-attempt
	// timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(externalID, func() (interface{}, error) {
		res := c.next.Fetch(shared, externalID)
		if !res.Fallback {
			c.remember(externalID, res)
		}
		return res, nil
	})

	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		return DefaultResult(c.placeholder)
	}
}

func (c *CachedFetcher) remember(externalID string, res Result) {
	c.lru.Add(externalID, res)
	if c.store == nil {
		return
	}
	if err := c.store.Put(externalID, res); err != nil {
		c.logger.Warn().Err(err).Str("external_id", externalID).Msg("Enrichment store write failed")
	}
}
