// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cinematch/internal/metrics"
)

// BreakerSettings tunes BreakerFetcher. Zero values take the defaults below.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open (default 3)
	Interval    time.Duration // closed-state count reset (default 1m)
	Timeout     time.Duration // open to half-open delay (default 30s)
	MinRequests uint32        // requests before the ratio is considered (default 10)
	TripRatio   float64       // failure ratio that opens the circuit (default 0.6)
}

func (s *BreakerSettings) applyDefaults() {
	if s.Name == "" {
		s.Name = "tmdb-api"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.TripRatio <= 0 {
		s.TripRatio = 0.6
	}
}

// BreakerFetcher guards a Source with a circuit breaker. While the circuit is
// open lookups return the default result without touching the network.
//
// Permanent client errors such as 404 count as successes: an unknown movie id
// says nothing about upstream health. Lookups abandoned because the caller's
// context ended are excluded from the counts altogether.
type BreakerFetcher struct {
	src         Source
	cb          *gobreaker.CircuitBreaker[Result]
	name        string
	placeholder string
	logger      zerolog.Logger
}

// NewBreakerFetcher wraps src.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewBreakerFetcher(src Source, settings BreakerSettings, placeholder string, logger zerolog.Logger) *BreakerFetcher {
	settings.applyDefaults()
	logger = logger.With().Str("component", "enrich").Str("breaker", settings.Name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= settings.TripRatio
			if shouldTrip {
				logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},

		IsExcluded: func(err error) bool {
			return errors.Is(err, errCallerDone)
		},
	})

	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &BreakerFetcher{
		src:         src,
		cb:          cb,
		name:        settings.Name,
		placeholder: placeholder,
		logger:      logger,
	}
}

// errCallerDone marks a lookup cut short by its caller's context rather
// than by the upstream.
var errCallerDone = errors.New("caller context done")

// Fetch implements Fetcher.
func (b *BreakerFetcher) Fetch(ctx context.Context, externalID string) Result {
	res, err := b.cb.Execute(func() (Result, error) {
		res, err := b.src.Lookup(ctx, externalID)
		if err != nil && ctx.Err() != nil {
			return res, fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return res, err
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		metrics.RecordEnrichment("success")
		return res
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		b.logger.Debug().Str("external_id", externalID).Msg("Circuit open, skipping enrichment")
		metrics.RecordEnrichment("circuit_open")
		return DefaultResult(b.placeholder)
	}

	switch {
	case errors.Is(err, errCallerDone):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "canceled").Inc()
	case isPermanent(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
	}
	return fallback(ctx, b.logger, externalID, err, b.placeholder, "fallback")
}

// State returns the current breaker state as a string.
func (b *BreakerFetcher) State() string {
	return stateToString(b.cb.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
