// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/config"
)

// Chain is the assembled enrichment stack.
type Chain struct {
	Fetcher Fetcher
	Client  *Client
	Breaker *BreakerFetcher // nil when disabled
	Cache   *CachedFetcher  // nil when caching is disabled
	Store   *BadgerStore    // nil when memory only
}

// gcDiscardRatio is the value log rewrite threshold passed to Badger.
const gcDiscardRatio = 0.5

// Maintain sweeps expired LRU entries and runs Badger value log GC. It
// satisfies the maintenance service's Maintainer interface.
func (c *Chain) Maintain(_ context.Context) (int, error) {
	swept := 0
	if c.Cache != nil {
		swept = c.Cache.Sweep()
	}
	if c.Store != nil {
		if err := c.Store.RunGC(gcDiscardRatio); err != nil {
			return swept, fmt.Errorf("enrichment store gc: %w", err)
		}
	}
	return swept, nil
}

// Close releases the persistent store, if any.
func (c *Chain) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// NewChain builds Client, then the breaker and cache layers enabled in cfg.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewChain(tmdb *config.TMDBConfig, cacheCfg *config.CacheConfig, logger zerolog.Logger) (*Chain, error) {
	client := NewClient(tmdb, logger)
	chain := &Chain{Client: client, Fetcher: client}

	if tmdb.BreakerEnabled {
		chain.Breaker = NewBreakerFetcher(client, BreakerSettings{Timeout: tmdb.BreakerOpenTimeout}, client.Placeholder(), logger)
		chain.Fetcher = chain.Breaker
	}

	if cacheCfg.Enabled {
		var store Store
		if cacheCfg.BadgerPath != "" {
			bs, err := OpenBadgerStore(cacheCfg.BadgerPath, cacheCfg.TTL)
			if err != nil {
				return nil, err
			}
			chain.Store = bs
			store = bs
		}
		lru := cache.NewLRU[Result](cacheCfg.Size, cacheCfg.TTL)
		chain.Cache = NewCachedFetcher(chain.Fetcher, lru, store, client.Placeholder(), logger)
		chain.Fetcher = chain.Cache
	}

	return chain, nil
}
