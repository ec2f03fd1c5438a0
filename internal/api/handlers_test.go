// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/enrich"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// stubRecommender returns a canned response and records the calls it got.
type stubRecommender struct {
	mu     sync.Mutex
	calls  []stubCall
	config *recommend.Config
	known  map[string]bool
}

type stubCall struct {
	title string
	k     int
}

func newStubRecommender() *stubRecommender {
	return &stubRecommender{
		config: recommend.DefaultConfig(),
		known:  map[string]bool{"Avatar": true},
	}
}

func (s *stubRecommender) Config() *recommend.Config { return s.config }

func (s *stubRecommender) Recommend(_ context.Context, title string, k int) recommend.Response {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{title: title, k: k})
	s.mu.Unlock()

	if k <= 0 {
		k = s.config.DefaultK
	}
	resp := recommend.Response{Query: title, QueryIndex: -1, K: k, Items: []recommend.Item{}}
	if !s.known[title] {
		return resp
	}
	resp.Found = true
	resp.QueryIndex = 0
	resp.Items = append(resp.Items,
		recommend.Item{Index: 3, ExternalID: "19995", Title: "Heat", Score: 0.9,
			Enrichment: enrich.Result{PosterURL: "https://image.tmdb.org/t/p/w500/heat.jpg", Overview: "Heist.", ReleaseDate: "1995-12-15"}},
		recommend.Item{Index: 1, ExternalID: "597", Title: "Titanic", Score: 0.7,
			Enrichment: enrich.DefaultResult(""), Degraded: true},
	)
	return resp
}

func (s *stubRecommender) lastCall() stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return stubCall{}
	}
	return s.calls[len(s.calls)-1]
}

type stubTitles []string

func (s stubTitles) Titles() []string { return append([]string(nil), s...) }
func (s stubTitles) Len() int         { return len(s) }

func newTestHandler() (*Handler, *stubRecommender) {
	rec := newStubRecommender()
	h := NewHandler(rec, stubTitles{"Avatar", "Titanic", "Alien", "Heat", "Up"})
	h.MarkReady()
	return h, rec
}

type recommendEnvelope struct {
	Success bool               `json:"success"`
	Data    recommend.Response `json:"data"`
	Error   *APIError          `json:"error"`
	Meta    *APIMeta           `json:"meta"`
}

func decodeRecommend(t *testing.T, rec *httptest.ResponseRecorder) recommendEnvelope {
	t.Helper()
	var env recommendEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func TestRecommendations_Found(t *testing.T) {
	t.Parallel()

	h, stub := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?title=Avatar&k=2", nil)
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	env := decodeRecommend(t, rec)
	if !env.Success || !env.Data.Found {
		t.Fatalf("success=%v found=%v", env.Success, env.Data.Found)
	}
	if len(env.Data.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(env.Data.Items))
	}
	if env.Data.Items[0].Title != "Heat" || env.Data.Items[0].Enrichment.ReleaseDate != "1995-12-15" {
		t.Errorf("first item = %+v", env.Data.Items[0])
	}
	if !env.Data.Items[1].Degraded || env.Data.Items[1].Enrichment.PosterURL != enrich.DefaultPlaceholder {
		t.Errorf("second item = %+v, want degraded with placeholder", env.Data.Items[1])
	}
	if got := stub.lastCall(); got.title != "Avatar" || got.k != 2 {
		t.Errorf("Recommend called with %+v", got)
	}
}

func TestRecommendations_UnknownTitle(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?title=Nonexistent", nil)
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeRecommend(t, rec)
	if env.Data.Found || len(env.Data.Items) != 0 || env.Data.QueryIndex != -1 {
		t.Errorf("data = %+v, want not found with no items", env.Data)
	}
}

func TestRecommendations_DefaultK(t *testing.T) {
	t.Parallel()

	h, stub := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?title=Avatar", nil)
	h.Recommendations(httptest.NewRecorder(), req)

	if got := stub.lastCall().k; got != 0 {
		t.Errorf("k passed to engine = %d, want 0 (engine default)", got)
	}
}

func TestRecommendations_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing title", "", "title"},
		{"blank title", "?title=%20%20", "title"},
		{"control character", "?title=Ava%00tar", "title"},
		{"k not a number", "?title=Avatar&k=abc", "k"},
		{"k zero", "?title=Avatar&k=0", "k"},
		{"k negative", "?title=Avatar&k=-3", "k"},
		{"k above max", "?title=Avatar&k=51", "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, stub := newTestHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.Recommendations(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			env := decodeRecommend(t, rec)
			if env.Success || env.Error == nil || env.Error.Code != ErrCodeValidation {
				t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
			details, ok := env.Error.Details.(map[string]interface{})
			if !ok || details["field"] != tt.field {
				t.Errorf("details = %v, want field %q", env.Error.Details, tt.field)
			}
			if len(stub.calls) != 0 {
				t.Error("engine must not be called on invalid input")
			}
		})
	}
}

func TestRecommendations_NotReady(t *testing.T) {
	t.Parallel()

	h := NewHandler(newStubRecommender(), stubTitles{"Avatar"})
	rec := httptest.NewRecorder()
	h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?title=Avatar", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

type titlesEnvelope struct {
	Success bool         `json:"success"`
	Data    []TitleEntry `json:"data"`
	Meta    *APIMeta     `json:"meta"`
	Error   *APIError    `json:"error"`
}

func TestTitles_Pagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantCount int
		hasMore   bool
	}{
		{"default", "", "Avatar", 5, false},
		{"first page", "?limit=2", "Avatar", 2, true},
		{"middle page", "?limit=2&offset=2", "Alien", 2, true},
		{"last page", "?limit=2&offset=4", "Up", 1, false},
		{"past the end", "?limit=2&offset=10", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestHandler()
			rec := httptest.NewRecorder()
			h.Titles(rec, httptest.NewRequest(http.MethodGet, "/api/v1/titles"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var env titlesEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(env.Data) != tt.wantCount {
				t.Fatalf("count = %d, want %d", len(env.Data), tt.wantCount)
			}
			if tt.wantCount > 0 && env.Data[0].Title != tt.wantFirst {
				t.Errorf("first title = %q, want %q", env.Data[0].Title, tt.wantFirst)
			}
			p := env.Meta.Pagination
			if p == nil || p.Total != 5 || p.Count != tt.wantCount || p.HasMore != tt.hasMore {
				t.Errorf("pagination = %+v", p)
			}
		})
	}
}

func TestTitles_InvalidQuery(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"?limit=0", "?limit=1001", "?offset=-1", "?limit=ten"} {
		h, _ := newTestHandler()
		rec := httptest.NewRecorder()
		h.Titles(rec, httptest.NewRequest(http.MethodGet, "/api/v1/titles"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewHandler(newStubRecommender(), stubTitles{"Avatar", "Titanic"})

	live := httptest.NewRecorder()
	h.HealthLive(live, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if live.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", live.Code)
	}

	notReady := httptest.NewRecorder()
	h.HealthReady(notReady, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if notReady.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before MarkReady = %d, want 503", notReady.Code)
	}

	h.MarkReady()
	ready := httptest.NewRecorder()
	h.HealthReady(ready, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if ready.Code != http.StatusOK {
		t.Fatalf("ready after MarkReady = %d, want 200", ready.Code)
	}

	var env struct {
		Data HealthStatus `json:"data"`
	}
	if err := json.Unmarshal(ready.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Status != "ready" || env.Data.Movies != 2 {
		t.Errorf("health = %+v", env.Data)
	}
}
