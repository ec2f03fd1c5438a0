// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/cinematch/internal/logging"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	return c.validateWithoutCredentials()
}

// validateWithoutCredentials runs every check except the API key requirement.
func (c *Config) validateWithoutCredentials() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSnapshots(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	for name, raw := range map[string]string{
		"TMDB_BASE_URL":   c.TMDB.BaseURL,
		"TMDB_IMAGE_BASE": c.TMDB.ImageBase,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.TMDB.Placeholder == "" {
		return fmt.Errorf("TMDB_PLACEHOLDER must not be empty")
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive, got %v", c.TMDB.Timeout)
	}
	if c.TMDB.MaxAttempts < 1 || c.TMDB.MaxAttempts > 10 {
		return fmt.Errorf("TMDB_MAX_ATTEMPTS must be between 1 and 10, got %d", c.TMDB.MaxAttempts)
	}
	if c.TMDB.Backoff < 0 {
		return fmt.Errorf("TMDB_BACKOFF must not be negative, got %v", c.TMDB.Backoff)
	}
	if c.TMDB.RateLimit < 0 {
		return fmt.Errorf("TMDB_RATE_LIMIT must not be negative, got %v", c.TMDB.RateLimit)
	}
	if c.TMDB.RateLimit > 0 && c.TMDB.RateBurst < 1 {
		return fmt.Errorf("TMDB_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.TMDB.BreakerEnabled && c.TMDB.BreakerOpenTimeout <= 0 {
		return fmt.Errorf("TMDB_BREAKER_OPEN_TIMEOUT must be positive when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateSnapshots() error {
	if c.Snapshots.CatalogPath == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Snapshots.AffinityPath == "" {
		return fmt.Errorf("AFFINITY_PATH is required")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultK < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_K must be at least 1, got %d", r.DefaultK)
	}
	if r.MaxK < r.DefaultK {
		return fmt.Errorf("RECOMMEND_MAX_K (%d) must be >= RECOMMEND_DEFAULT_K (%d)", r.MaxK, r.DefaultK)
	}
	if r.Concurrency < 1 {
		return fmt.Errorf("RECOMMEND_CONCURRENCY must be at least 1, got %d", r.Concurrency)
	}
	if r.Deadline < 0 {
		return fmt.Errorf("RECOMMEND_DEADLINE must not be negative, got %v", r.Deadline)
	}
	if r.HeapThreshold < 0 {
		return fmt.Errorf("RECOMMEND_HEAP_THRESHOLD must not be negative, got %d", r.HeapThreshold)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("CACHE_SIZE must be at least 1 when caching is enabled, got %d", c.Cache.Size)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when caching is enabled, got %v", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
