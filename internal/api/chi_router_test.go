// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/config"
)

func newTestServer(t *testing.T, sec *config.SecurityConfig) *httptest.Server {
	t.Helper()
	h, _ := newTestHandler()
	router := NewRouter(h, NewChiMiddlewareFromConfig(sec), zerolog.Nop())
	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitDisabled: true})

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/health/live", http.StatusOK},
		{"/api/v1/health/ready", http.StatusOK},
		{"/api/v1/recommendations?title=Avatar", http.StatusOK},
		{"/api/v1/recommendations", http.StatusBadRequest},
		{"/api/v1/titles?limit=3", http.StatusOK},
		{"/api/v1/unknown", http.StatusNotFound},
		{"/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		resp, _ := get(t, srv.URL+tt.path, nil)
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitDisabled: true})
	resp, body := get(t, srv.URL+"/nope", nil)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var env APIResponse
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("envelope = %s", body)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitDisabled: true})
	resp, err := http.Post(srv.URL+"/api/v1/recommendations", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRouter_RequestIDAndSecurityHeaders(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitDisabled: true})
	resp, body := get(t, srv.URL+"/api/v1/recommendations?title=Avatar", http.Header{
		"X-Request-Id": []string{"req-abc-123"},
	})

	if got := resp.Header.Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("X-Request-ID = %q, want req-abc-123", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := resp.Header.Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS sent over plain HTTP: %q", got)
	}

	var env APIResponse
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Meta == nil || env.Meta.RequestID != "req-abc-123" {
		t.Errorf("meta = %+v, want request id echoed", env.Meta)
	}
}

func TestRouter_RateLimited(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitReqs: 2, RateLimitWindow: time.Minute})

	var last *http.Response
	var lastBody []byte
	for i := 0; i < 3; i++ {
		last, lastBody = get(t, srv.URL+"/api/v1/titles", nil)
	}

	if last.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.StatusCode)
	}
	var env APIResponse
	if err := json.Unmarshal(lastBody, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Code != ErrCodeRateLimited {
		t.Errorf("envelope = %s, want RATE_LIMITED", lastBody)
	}

	// Health probes have their own budget.
	resp, _ := get(t, srv.URL+"/api/v1/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health after API limit = %d, want 200", resp.StatusCode)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{
		RateLimitDisabled: true,
		CORSOrigins:       []string{"https://movies.example.com"},
	})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/recommendations", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://movies.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://movies.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_MetricsExposeRoutePattern(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &config.SecurityConfig{RateLimitDisabled: true})
	get(t, srv.URL+"/api/v1/recommendations?title=Avatar", nil)

	_, body := get(t, srv.URL+"/metrics", nil)
	if !strings.Contains(string(body), `endpoint="/api/v1/recommendations"`) {
		t.Error("metrics do not contain the recommendations route pattern")
	}
	if strings.Contains(string(body), "Avatar") {
		t.Error("query values leaked into metric labels")
	}
}
