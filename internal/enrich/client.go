// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

const (
	// maxErrorBodySize limits how much of an error response is kept for logs.
	maxErrorBodySize = 4 * 1024

	// maxBodySize bounds a successful details payload.
	maxBodySize = 1 << 20

	// maxRetryAfter caps a server supplied Retry-After.
	maxRetryAfter = 30 * time.Second

	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultImageBase = "https://image.tmdb.org/t/p/w500"
	defaultLanguage  = "en-US"
)

// movieDetails is the subset of the TMDB movie payload we read. Pointers
// distinguish absent fields from empty strings.
type movieDetails struct {
	PosterPath  *string `json:"poster_path"`
	Overview    *string `json:"overview"`
	ReleaseDate *string `json:"release_date"`
}

// Client talks to the TMDB movie details endpoint.
//
// A lookup makes at most maxAttempts requests. Before retry n the client waits
// backoff * 2^(n-1), or the server's Retry-After when that is longer. Only
// 429, 500, 502, 503, 504 and transport errors are retried.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	language    string
	imageBase   string
	placeholder string

	client         *http.Client
	attemptTimeout time.Duration
	maxAttempts    int
	backoff        time.Duration
	limiter        *rate.Limiter

	logger zerolog.Logger

	// sleep waits between attempts; tests replace it to record delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a TMDB client from configuration.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewClient(cfg *config.TMDBConfig, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(orDefault(cfg.BaseURL, defaultBaseURL), "/"),
		apiKey:         cfg.APIKey,
		language:       orDefault(cfg.Language, defaultLanguage),
		imageBase:      strings.TrimRight(orDefault(cfg.ImageBase, defaultImageBase), "/"),
		placeholder:    orDefault(cfg.Placeholder, DefaultPlaceholder),
		client:         &http.Client{},
		attemptTimeout: cfg.Timeout,
		maxAttempts:    cfg.MaxAttempts,
		backoff:        cfg.Backoff,
		logger:         logger.With().Str("component", "enrich").Logger(),
		sleep:          sleepContext,
	}
	if c.attemptTimeout <= 0 {
		c.attemptTimeout = 6 * time.Second
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// Placeholder returns the poster URL used for degraded results.
func (c *Client) Placeholder() string {
	return c.placeholder
}

// Fetch implements Fetcher. Failures are logged and replaced with the
// default result.
func (c *Client) Fetch(ctx context.Context, externalID string) Result {
	res, err := c.Lookup(ctx, externalID)
	if err != nil {
		return fallback(ctx, c.logger, externalID, err, c.placeholder, "fallback")
	}
	metrics.RecordEnrichment("success")
	return res
}

// Lookup fetches details for externalID, retrying transient failures.
func (c *Client) Lookup(ctx context.Context, externalID string) (Result, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Result{}, &FetchError{Attempts: 0, Err: ErrEmptyExternalID}
	}
	reqURL := c.detailsURL(externalID)

	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Result{}, &FetchError{ExternalID: externalID, Attempts: attempt - 1, Err: err}
			}
		}

		details, err := c.doAttempt(ctx, reqURL, attempt > 1)
		if err == nil {
			return c.toResult(details), nil
		}

		if ctx.Err() != nil || !retryable(err) || attempt >= c.maxAttempts {
			return Result{}, &FetchError{ExternalID: externalID, Attempts: attempt, Err: err}
		}

		delay := c.retryDelay(attempt, err)
		c.logger.Debug().
			Str("external_id", externalID).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying enrichment request")

		if err := c.sleep(ctx, delay); err != nil {
			return Result{}, &FetchError{ExternalID: externalID, Attempts: attempt, Err: err}
		}
	}
}

// doAttempt performs one GET bounded by the per-attempt timeout.
func (c *Client) doAttempt(ctx context.Context, reqURL string, retry bool) (*movieDetails, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordEnrichmentAttempt(0, time.Since(start), retry)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordEnrichmentAttempt(resp.StatusCode, time.Since(start), retry)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	metrics.RecordEnrichmentAttempt(resp.StatusCode, time.Since(start), retry)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var details movieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &details, nil
}

func (c *Client) detailsURL(externalID string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	return fmt.Sprintf("%s/movie/%s?%s", c.baseURL, url.PathEscape(externalID), params.Encode())
}

func (c *Client) toResult(d *movieDetails) Result {
	res := Result{PosterURL: c.placeholder}
	if d.PosterPath != nil && *d.PosterPath != "" {
		res.PosterURL = c.imageBase + "/" + strings.TrimLeft(*d.PosterPath, "/")
	}
	if d.Overview != nil {
		res.Overview = *d.Overview
	}
	if d.ReleaseDate != nil {
		res.ReleaseDate = *d.ReleaseDate
	}
	return res
}

// retryDelay is backoff * 2^(attempt-1), raised to Retry-After when larger.
func (c *Client) retryDelay(attempt int, err error) time.Duration {
	delay := c.backoff * time.Duration(1<<uint(attempt-1))
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > delay {
		delay = se.RetryAfter
	}
	return delay
}

// retryable reports whether another attempt may succeed. Transport errors,
// including a per-attempt timeout, are retryable; decode errors are not.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return retryableStatus[se.StatusCode]
	}
	return !errors.Is(err, ErrMalformedResponse)
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	}
	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return bytes.TrimSpace(body)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fallback logs a failed lookup and returns the default result.
//
//nolint:gocritic // zerolog.Logger is passed by value
func fallback(ctx context.Context, logger zerolog.Logger, externalID string, err error, placeholder, outcome string) Result {
	event := logging.FromContext(ctx, logger).Warn().Str("external_id", externalID).Err(err)
	var fe *FetchError
	if errors.As(err, &fe) {
		event = event.Int("attempts", fe.Attempts)
	}
	event.Str("outcome", outcome).Msg("Enrichment failed, using default result")
	metrics.RecordEnrichment(outcome)
	return DefaultResult(placeholder)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
