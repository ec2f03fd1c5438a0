// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomtom215/cinematch/internal/validation"
)

// RecommendRequest is the validated query of /recommendations.
// K is zero when the caller did not pass k.
type RecommendRequest struct {
	Title string `query:"title" validate:"required,title,max=500"`
	K     int    `query:"k"`
}

// TitlesRequest is the validated query of /titles.
type TitlesRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=1000"`
	Offset int `query:"offset" validate:"min=0"`
}

// parseRecommendRequest reads and validates the recommendation query.
// An explicit k must lie in [1, maxK].
func parseRecommendRequest(r *http.Request, maxK int) (RecommendRequest, *validation.APIError) {
	q := r.URL.Query()
	req := RecommendRequest{Title: q.Get("title")}

	if raw := q.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return req, intParseError("k", raw)
		}
		if verr := validation.ValidateVar("k", k, fmt.Sprintf("min=1,max=%d", maxK)); verr != nil {
			return req, verr.ToAPIError()
		}
		req.K = k
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr.ToAPIError()
	}
	return req, nil
}

// parseTitlesRequest reads the pagination query, defaulting limit to 100.
func parseTitlesRequest(r *http.Request) (TitlesRequest, *validation.APIError) {
	q := r.URL.Query()
	req := TitlesRequest{Limit: 100}

	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &req.Limit}, {"offset", &req.Offset}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, intParseError(p.key, raw)
		}
		*p.dst = n
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr.ToAPIError()
	}
	return req, nil
}

func intParseError(field, raw string) *validation.APIError {
	return &validation.APIError{
		Code:    ErrCodeValidation,
		Message: field + " must be an integer",
		Details: map[string]interface{}{
			"field": field,
			"tag":   "numeric",
			"value": raw,
		},
	}
}
