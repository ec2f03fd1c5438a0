// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status  string  `json:"status"`
	Movies  int     `json:"movies,omitempty"`
	Uptime  float64 `json:"uptime_seconds"`
	Version string  `json:"version,omitempty"`
}

// Version is stamped at build time via -ldflags.
var Version = "dev"

// HealthLive reports that the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, HealthStatus{
		Status:  "alive",
		Uptime:  time.Since(h.startTime).Seconds(),
		Version: Version,
	})
}

// HealthReady returns 200 once snapshots are loaded and 503 before that.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.Ready() {
		NewResponseWriter(w, r).ServiceUnavailable("Snapshots are not loaded")
		return
	}
	WriteSuccess(w, r, HealthStatus{
		Status:  "ready",
		Movies:  h.titles.Len(),
		Uptime:  time.Since(h.startTime).Seconds(),
		Version: Version,
	})
}
