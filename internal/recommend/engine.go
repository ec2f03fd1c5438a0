// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinematch/internal/affinity"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/enrich"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Catalog is the read side of catalog.Store used by the engine.
type Catalog interface {
	LookupByTitle(title string) (int, bool)
	EntryAt(index int) (catalog.Entry, error)
	Len() int
}

// Affinity is the read side of affinity.Matrix used by the engine.
type Affinity interface {
	Row(index int) ([]affinity.Score, error)
	CheckDimension(want int) error
}

// Engine resolves titles to ranked, enriched recommendations.
// It is safe for concurrent use.
type Engine struct {
	config   *Config
	catalog  Catalog
	affinity Affinity
	fetcher  enrich.Fetcher
	logger   zerolog.Logger
}

// NewEngine validates cfg and checks that the matrix is N x N for the
// catalog's N, returning *affinity.DimensionMismatchError otherwise.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewEngine(cfg *Config, cat Catalog, aff Affinity, fetcher enrich.Fetcher, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if cat == nil || aff == nil || fetcher == nil {
		return nil, fmt.Errorf("recommend engine requires catalog, affinity and fetcher")
	}
	if err := aff.CheckDimension(cat.Len()); err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg,
		catalog:  cat,
		affinity: aff,
		fetcher:  fetcher,
		logger:   logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *Config {
	return e.config
}

// NormalizeK maps k <= 0 to DefaultK and caps it at MaxK.
func (e *Engine) NormalizeK(k int) int {
	if k <= 0 {
		k = e.config.DefaultK
	}
	if k > e.config.MaxK {
		k = e.config.MaxK
	}
	return k
}

// Recommend returns up to min(k, MaxK, N-1) items similar to title. A k
// above MaxK is silently capped; callers that want a hard limit validate k
// first. A k <= 0 means DefaultK. It never fails: an unknown title gives an
// empty response and enrichment failures degrade individual items.
func (e *Engine) Recommend(ctx context.Context, title string, k int) Response {
	start := time.Now()
	logger := logging.FromContext(ctx, e.logger)
	k = e.NormalizeK(k)

	resp := Response{Query: title, QueryIndex: -1, K: k, Items: []Item{}}

	index, ok := e.catalog.LookupByTitle(title)
	if !ok {
		logger.Debug().Str("title", title).Msg("Unknown title")
		metrics.RecordRecommendation(false, 0, time.Since(start))
		return resp
	}
	resp.Found = true
	resp.QueryIndex = index

	row, err := e.affinity.Row(index)
	if err != nil {
		// Unreachable after the dimension check in NewEngine.
		logger.Error().Err(err).Int("index", index).Msg("Affinity row unavailable")
		metrics.RecordRecommendation(true, 0, time.Since(start))
		return resp
	}

	ranked := Select(row, index, k, e.config.HeapThreshold)
	items := make([]Item, 0, len(ranked))
	for _, s := range ranked {
		entry, err := e.catalog.EntryAt(s.Index)
		if err != nil {
			logger.Error().Err(err).Int("index", s.Index).Msg("Ranked index outside catalog")
			continue
		}
		items = append(items, Item{
			Index:      s.Index,
			ExternalID: entry.ExternalID,
			Title:      entry.Title,
			Score:      s.Score,
		})
	}

	e.enrichAll(ctx, items)
	resp.Items = items

	degraded := resp.DegradedCount()
	metrics.RecordRecommendation(true, degraded, time.Since(start))
	logger.Debug().
		Str("title", title).
		Int("index", index).
		Int("k", k).
		Int("items", len(items)).
		Int("degraded", degraded).
		Dur("duration", time.Since(start)).
		Msg("Recommendation served")

	return resp
}

// enrichAll fetches enrichment for every item with bounded concurrency.
// Results land by position. Items unfinished when the deadline fires, or when
// ctx ends, get the default result and are marked degraded.
func (e *Engine) enrichAll(ctx context.Context, items []Item) {
	if len(items) == 0 {
		return
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		closed  bool
		results = make([]enrich.Result, len(items))
		done    = make([]bool, len(items))
	)

	finished := make(chan struct{})
	go func() {
		defer close(finished)

		g := new(errgroup.Group)
		g.SetLimit(e.config.Concurrency)
		for i := range items {
			externalID := items[i].ExternalID
			g.Go(func() error {
				if fetchCtx.Err() != nil {
					return nil
				}
				res := e.fetcher.Fetch(fetchCtx, externalID)

				mu.Lock()
				defer mu.Unlock()
				if !closed {
					results[i] = res
					done[i] = true
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	var deadline <-chan time.Time
	if e.config.Deadline > 0 {
		timer := time.NewTimer(e.config.Deadline)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-finished:
	case <-deadline:
		logging.FromContext(ctx, e.logger).Warn().
			Dur("deadline", e.config.Deadline).
			Msg("Enrichment deadline reached, serving remaining items degraded")
	case <-ctx.Done():
	}

	mu.Lock()
	closed = true
	for i := range items {
		if done[i] {
			items[i].Enrichment = results[i]
			items[i].Degraded = results[i].Fallback
			continue
		}
		items[i].Enrichment = enrich.DefaultResult(e.config.Placeholder)
		items[i].Degraded = true
	}
	mu.Unlock()
}
