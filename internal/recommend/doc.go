// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package recommend answers "movies similar to this title" queries.
//
// # Pipeline
//
//  1. Resolve the query title to a catalog index (exact match).
//  2. Read that item's affinity row and select the k highest scoring other
//     items (Select), ties broken by ascending index.
//  3. Map each selected index back to its catalog entry.
//  4. Enrich every item concurrently through an enrich.Fetcher, bounded by
//     Config.Concurrency, writing results by position so output order is the
//     ranking order.
//
// # Failure Model
//
// Recommend never returns an error. An unknown title yields an empty
// response with Found=false. A failed or late enrichment yields the default
// enrichment for that item alone and marks it Degraded.
//
// # Thread Safety
//
// The catalog and affinity matrix are immutable after startup, so the engine
// holds no locks on the read path and is safe for concurrent use.
package recommend
