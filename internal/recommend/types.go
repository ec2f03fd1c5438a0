// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import "github.com/tomtom215/cinematch/internal/enrich"

// Item is one recommended movie.
type Item struct {
	Index      int           `json:"index"`
	ExternalID string        `json:"external_id"`
	Title      string        `json:"title"`
	Score      float64       `json:"score"`
	Enrichment enrich.Result `json:"enrichment"`

	// Degraded is set when Enrichment is the default value, either because
	// the lookup failed or because it missed the request deadline.
	Degraded bool `json:"degraded"`
}

// Response is the answer to one query. Items are ordered by descending
// score, ties by ascending index.
type Response struct {
	Query      string `json:"query"`
	Found      bool   `json:"found"`
	QueryIndex int    `json:"query_index"` // -1 when not found
	K          int    `json:"k"`
	Items      []Item `json:"items"`
}

// DegradedCount returns how many items carry default enrichment.
func (r *Response) DegradedCount() int {
	n := 0
	for i := range r.Items {
		if r.Items[i].Degraded {
			n++
		}
	}
	return n
}
