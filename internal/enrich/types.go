// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package enrich fetches display metadata (poster, overview, release date)
// for catalog items from the TMDB movie API.
//
// Enrichment never fails from the caller's point of view: every Fetcher
// returns a usable Result, substituting DefaultResult when the remote call
// cannot complete. The layers compose as decorators:
//
//	CachedFetcher -> BreakerFetcher -> Client
//
// Client owns retries, rate limiting and per-attempt timeouts. BreakerFetcher
// stops calling a failing upstream. CachedFetcher serves repeated lookups from
// an in-memory LRU and an optional BadgerDB store.
package enrich

import "context"

// DefaultPlaceholder is the poster shown when an item has no artwork or the
// lookup failed.
const DefaultPlaceholder = "https://via.placeholder.com/500x750?text=No+Image"

// Result is the display data attached to one recommended item.
type Result struct {
	PosterURL   string `json:"poster_url" msgpack:"poster_url"`
	Overview    string `json:"overview" msgpack:"overview"`
	ReleaseDate string `json:"release_date" msgpack:"release_date"`

	// Fallback marks a substituted default value. Fallback results are
	// never cached.
	Fallback bool `json:"-" msgpack:"-"`
}

// DefaultResult is the degraded value: placeholder poster, empty text fields.
func DefaultResult(placeholder string) Result {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return Result{PosterURL: placeholder, Fallback: true}
}

// Fetcher returns enrichment for one external id. Implementations must be
// safe for concurrent use and must never block past ctx.
type Fetcher interface {
	Fetch(ctx context.Context, externalID string) Result
}

// Source is a fallible lookup. Client implements it; BreakerFetcher wraps it.
type Source interface {
	Lookup(ctx context.Context, externalID string) (Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, externalID string) Result

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, externalID string) Result {
	return f(ctx, externalID)
}
