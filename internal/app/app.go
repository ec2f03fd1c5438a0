// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package app assembles the recommendation engine from configuration. The
// server and the CLI share it so both load snapshots the same way.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/affinity"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/enrich"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// App holds the loaded snapshots and the engine built on them.
type App struct {
	Catalog  *catalog.Store
	Affinity *affinity.Matrix
	Chain    *enrich.Chain
	Engine   *recommend.Engine
}

// Snapshots loads and cross-checks the catalog and the affinity matrix.
// The returned error is a *catalog.LoadError, *affinity.LoadError or
// *affinity.DimensionMismatchError, wrapped.
func Snapshots(cfg *config.SnapshotConfig) (*catalog.Store, *affinity.Matrix, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	aff, err := affinity.Load(cfg.AffinityPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load affinity matrix: %w", err)
	}
	if err := aff.CheckDimension(cat.Len()); err != nil {
		return nil, nil, fmt.Errorf("snapshots disagree: %w", err)
	}
	return cat, aff, nil
}

// EngineConfig maps service configuration onto the engine's.
func EngineConfig(cfg *config.Config) *recommend.Config {
	rc := recommend.DefaultConfig()
	if cfg.Recommend.DefaultK > 0 {
		rc.DefaultK = cfg.Recommend.DefaultK
	}
	if cfg.Recommend.MaxK > 0 {
		rc.MaxK = cfg.Recommend.MaxK
	}
	if cfg.Recommend.Concurrency > 0 {
		rc.Concurrency = cfg.Recommend.Concurrency
	}
	rc.Deadline = cfg.Recommend.Deadline
	rc.HeapThreshold = cfg.Recommend.HeapThreshold
	if cfg.TMDB.Placeholder != "" {
		rc.Placeholder = cfg.TMDB.Placeholder
	}
	return rc
}

// New loads the snapshots, builds the enrichment chain and the engine.
// Callers must Close the returned App.
//
//nolint:gocritic // zerolog.Logger is passed by value
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	start := time.Now()

	cat, aff, err := Snapshots(&cfg.Snapshots)
	if err != nil {
		return nil, err
	}
	metrics.SetSnapshotEntries("catalog", cat.Len())
	metrics.SetSnapshotEntries("affinity", aff.Dim())
	if dups := cat.DuplicateTitles(); dups > 0 {
		logger.Warn().Int("duplicates", dups).Msg("Catalog has duplicate titles, lookups resolve to the lowest index")
	}

	chain, err := enrich.NewChain(&cfg.TMDB, &cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("build enrichment chain: %w", err)
	}

	engine, err := recommend.NewEngine(EngineConfig(cfg), cat, aff, chain.Fetcher, logger)
	if err != nil {
		_ = chain.Close()
		return nil, fmt.Errorf("build recommendation engine: %w", err)
	}

	logger.Info().
		Int("movies", cat.Len()).
		Bool("breaker", chain.Breaker != nil).
		Bool("cache", chain.Cache != nil).
		Bool("persistent_cache", chain.Store != nil).
		Dur("duration", time.Since(start)).
		Msg("Recommendation engine ready")

	return &App{Catalog: cat, Affinity: aff, Chain: chain, Engine: engine}, nil
}

// Close releases the enrichment store.
func (a *App) Close() error {
	if a == nil || a.Chain == nil {
		return nil
	}
	return a.Chain.Close()
}
