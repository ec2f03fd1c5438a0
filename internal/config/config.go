// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package config loads Cinematch configuration.
//
// Loading order (koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config file: optional YAML (CONFIG_PATH, or config.yaml in the working directory)
//  3. Environment variables: override any setting through an explicit mapping
//
// The TMDB API key has no default. A missing key is a fatal configuration
// error for the server.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Snapshots SnapshotConfig  `koanf:"snapshots"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TMDBConfig configures the enrichment client that talks to the movie metadata API.
type TMDBConfig struct {
	APIKey      string `koanf:"api_key"`
	BaseURL     string `koanf:"base_url"`
	ImageBase   string `koanf:"image_base"`
	Placeholder string `koanf:"placeholder"`
	Language    string `koanf:"language"`

	// Timeout bounds a single attempt, not the whole retry sequence.
	Timeout time.Duration `koanf:"timeout"`

	// MaxAttempts counts the first request. 3 means one request plus two retries.
	MaxAttempts int `koanf:"max_attempts"`

	// Backoff is the delay before the first retry; it doubles for each later retry.
	Backoff time.Duration `koanf:"backoff"`

	// RateLimit is outbound requests per second. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	BreakerEnabled     bool          `koanf:"breaker_enabled"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// SnapshotConfig locates the startup artifacts.
type SnapshotConfig struct {
	CatalogPath  string `koanf:"catalog_path"`
	AffinityPath string `koanf:"affinity_path"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	DefaultK      int           `koanf:"default_k"`
	MaxK          int           `koanf:"max_k"`
	Concurrency   int           `koanf:"concurrency"`
	Deadline      time.Duration `koanf:"deadline"` // 0 = no per-request deadline
	HeapThreshold int           `koanf:"heap_threshold"`
}

// CacheConfig configures enrichment result caching.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Size       int           `koanf:"size"`
	TTL        time.Duration `koanf:"ttl"`
	BadgerPath string        `koanf:"badger_path"` // empty = memory only
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds request limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the config file and the environment,
// then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf(LoadOptions{})
}
