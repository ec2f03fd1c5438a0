// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrMalformedResponse is returned when a 200 body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response body")

	// ErrEmptyExternalID is returned for blank ids without touching the network.
	ErrEmptyExternalID = errors.New("empty external id")
)

// StatusError is a non-200 HTTP response.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// FetchError reports a lookup that gave up, with the number of attempts made.
type FetchError struct {
	ExternalID string
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.ExternalID, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// retryableStatus lists the statuses worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// isPermanent reports errors that say nothing about upstream health: the
// request itself was wrong (404 for an unknown id, 401 for a bad key) or the
// input was blank. The circuit breaker counts these as successes.
func isPermanent(err error) bool {
	if errors.Is(err, ErrEmptyExternalID) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
	}
	return false
}
