// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinematch/config.yaml",
	"/etc/cinematch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadOptions adjusts LoadWithKoanf for callers other than the server.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set.
	Path string

	// SkipAPIKey relaxes validation for commands that never contact TMDB.
	SkipAPIKey bool
}

func defaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:            "https://api.themoviedb.org/3",
			ImageBase:          "https://image.tmdb.org/t/p/w500",
			Placeholder:        "https://via.placeholder.com/500x750?text=No+Image",
			Language:           "en-US",
			Timeout:            6 * time.Second,
			MaxAttempts:        3,
			Backoff:            600 * time.Millisecond,
			RateLimit:          0,
			RateBurst:          10,
			BreakerEnabled:     true,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Snapshots: SnapshotConfig{
			CatalogPath:  "data/movies.json",
			AffinityPath: "data/similarity.json",
		},
		Recommend: RecommendConfig{
			DefaultK:      5,
			MaxK:          50,
			Concurrency:   5,
			Deadline:      0,
			HeapThreshold: 8,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    2048,
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, an optional YAML file and environment
// variables (highest priority), then validates the result.
func LoadWithKoanf(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := opts.Path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	} else {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := cfg.Validate
	if opts.SkipAPIKey {
		validate = cfg.validateWithoutCredentials
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	"tmdb_api_key":              "tmdb.api_key",
	"tmdb_base_url":             "tmdb.base_url",
	"tmdb_image_base":           "tmdb.image_base",
	"tmdb_placeholder":          "tmdb.placeholder",
	"tmdb_language":             "tmdb.language",
	"tmdb_timeout":              "tmdb.timeout",
	"tmdb_max_attempts":         "tmdb.max_attempts",
	"tmdb_backoff":              "tmdb.backoff",
	"tmdb_rate_limit":           "tmdb.rate_limit",
	"tmdb_rate_burst":           "tmdb.rate_burst",
	"tmdb_breaker_enabled":      "tmdb.breaker_enabled",
	"tmdb_breaker_open_timeout": "tmdb.breaker_open_timeout",

	"catalog_path":  "snapshots.catalog_path",
	"affinity_path": "snapshots.affinity_path",

	"recommend_default_k":      "recommend.default_k",
	"recommend_max_k":          "recommend.max_k",
	"recommend_concurrency":    "recommend.concurrency",
	"recommend_deadline":       "recommend.deadline",
	"recommend_heap_threshold": "recommend.heap_threshold",

	"cache_enabled":     "cache.enabled",
	"cache_size":        "cache.size",
	"cache_ttl":         "cache.ttl",
	"cache_badger_path": "cache.badger_path",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path,
// returning "" for variables Cinematch does not read.
//
//   - TMDB_API_KEY -> tmdb.api_key
//   - HTTP_PORT -> server.port
//   - CATALOG_PATH -> snapshots.catalog_path
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
