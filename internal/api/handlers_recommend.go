// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"

	"github.com/tomtom215/cinematch/internal/logging"
)

// TitleEntry is one row of the /titles listing.
type TitleEntry struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Recommendations handles GET /api/v1/recommendations?title=&k=.
// An unknown title is not an error: the response has found=false and no
// items.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.Ready() {
		rw.ServiceUnavailable("Snapshots are not loaded")
		return
	}

	req, apiErr := parseRecommendRequest(r, h.recommender.Config().MaxK)
	if apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	resp := h.recommender.Recommend(r.Context(), req.Title, req.K)

	logging.Ctx(r.Context()).Debug().
		Bool("found", resp.Found).
		Int("k", resp.K).
		Int("items", len(resp.Items)).
		Int("degraded", resp.DegradedCount()).
		Msg("Recommendation served")

	rw.Success(resp)
}

// Titles handles GET /api/v1/titles?limit=&offset=.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.Ready() {
		rw.ServiceUnavailable("Snapshots are not loaded")
		return
	}

	req, apiErr := parseTitlesRequest(r)
	if apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	titles := h.titles.Titles()
	total := len(titles)
	start := min(req.Offset, total)
	end := min(start+req.Limit, total)

	page := make([]TitleEntry, 0, end-start)
	for i := start; i < end; i++ {
		page = append(page, TitleEntry{Index: i, Title: titles[i]})
	}

	rw.SuccessWithPagination(page, &PaginationMeta{
		Total:   total,
		Count:   len(page),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: end < total,
	})
}
