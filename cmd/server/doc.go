// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package main is the entry point for the Cinematch HTTP server.

Cinematch answers "movies similar to X" from two precomputed snapshots, a
movie catalog and a square affinity matrix, and decorates each result with
poster, overview and release date fetched from TMDB.

# Supervisor Tree

	RootSupervisor ("cinematch")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── Cache maintenance (LRU sweep, Badger value log GC)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, level and format from configuration
 3. Snapshots: catalog and affinity matrix, dimension checked
 4. Enrichment: TMDB client, circuit breaker, LRU and Badger caches
 5. Engine and HTTP router
 6. Supervisor tree, until SIGINT or SIGTERM

Any failure in steps 1 to 5 is fatal. TMDB_API_KEY is required.

# Example

	export TMDB_API_KEY=your-key
	export CATALOG_PATH=/data/movies.json
	export AFFINITY_PATH=/data/similarity.msgpack
	./cinematch-server

	curl 'http://localhost:8080/api/v1/recommendations?title=Avatar&k=5'
*/
package main
