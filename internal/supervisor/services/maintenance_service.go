// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Maintainer performs one housekeeping pass. *enrich.Chain implements it.
type Maintainer interface {
	// Maintain returns the number of entries it removed.
	Maintain(ctx context.Context) (int, error)
}

// MaintenanceService calls a Maintainer on a fixed interval. Failed passes
// are logged and retried on the next tick rather than restarting the
// service.
type MaintenanceService struct {
	target   Maintainer
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	name     string
}

// NewMaintenanceService creates the service. interval defaults to 5m.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewMaintenanceService(target Maintainer, interval time.Duration, logger zerolog.Logger) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{
		target:   target,
		interval: interval,
		timeout:  time.Minute,
		logger:   logger.With().Str("service", "cache-maintenance").Logger(),
		name:     "cache-maintenance",
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("cache maintenance starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache maintenance shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *MaintenanceService) runOnce(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	removed, err := s.target.Maintain(passCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache maintenance pass failed")
		return
	}
	s.logger.Debug().
		Int("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("cache maintenance pass complete")
}

// String returns the service name for logging.
func (s *MaintenanceService) String() string {
	return s.name
}
