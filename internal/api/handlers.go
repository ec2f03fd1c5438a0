// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Recommender answers similarity queries. *recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, title string, k int) recommend.Response
	Config() *recommend.Config
}

// TitleSource lists catalog titles in index order. *catalog.Store
// implements it.
type TitleSource interface {
	Titles() []string
	Len() int
}

// Handler serves the HTTP endpoints.
type Handler struct {
	recommender Recommender
	titles      TitleSource
	startTime   time.Time
	ready       atomic.Bool
}

// NewHandler creates a handler. It reports ready once MarkReady is called.
func NewHandler(rec Recommender, titles TitleSource) *Handler {
	return &Handler{
		recommender: rec,
		titles:      titles,
		startTime:   time.Now(),
	}
}

// MarkReady flips the readiness probe to healthy.
func (h *Handler) MarkReady() {
	h.ready.Store(true)
}

// Ready reports whether snapshots are loaded and the engine is built.
func (h *Handler) Ready() bool {
	return h.ready.Load() && h.recommender != nil && h.titles != nil
}
