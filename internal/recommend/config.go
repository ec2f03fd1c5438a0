// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/enrich"
)

// Config tunes the engine.
type Config struct {
	// DefaultK is used when a caller asks for k <= 0.
	DefaultK int `json:"default_k"`

	// MaxK caps k.
	MaxK int `json:"max_k"`

	// Concurrency bounds in-flight enrichment fetches per request.
	Concurrency int `json:"concurrency"`

	// Deadline bounds the enrichment phase of one request. Items still
	// fetching when it fires are served degraded. Zero means no deadline.
	Deadline time.Duration `json:"deadline"`

	// HeapThreshold selects the bounded heap when k*HeapThreshold < N.
	// Zero always uses the full sort.
	HeapThreshold int `json:"heap_threshold"`

	// Placeholder is the poster URL of degraded items.
	Placeholder string `json:"placeholder"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultK:      5,
		MaxK:          50,
		Concurrency:   5,
		HeapThreshold: 8,
		Placeholder:   enrich.DefaultPlaceholder,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultK < 1 {
		return fmt.Errorf("default_k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k (%d) must be >= default_k (%d)", c.MaxK, c.DefaultK)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Deadline < 0 {
		return fmt.Errorf("deadline must be non-negative, got %v", c.Deadline)
	}
	if c.HeapThreshold < 0 {
		return fmt.Errorf("heap_threshold must be non-negative, got %d", c.HeapThreshold)
	}
	return nil
}
