// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/cache"
)

// countingFetcher returns a fallback for ids listed in fail.
type countingFetcher struct {
	calls atomic.Int32
	fail  map[string]bool
	delay time.Duration
}

func (f *countingFetcher) Fetch(_ context.Context, externalID string) Result {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[externalID] {
		return DefaultResult("")
	}
	return Result{PosterURL: "p/" + externalID, Overview: "o/" + externalID}
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	data    map[string]Result
	getErr  error
	putErrs int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]Result)}
}

func (m *memStore) Get(id string) (Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Result{}, false, m.getErr
	}
	r, ok := m.data[id]
	return r, ok, nil
}

func (m *memStore) Put(id string, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = r
	return nil
}

func TestCachedFetcher_HitsMemory(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{}
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), nil, "", zerolog.Nop())

	first := c.Fetch(context.Background(), "10")
	second := c.Fetch(context.Background(), "10")

	if first != second || first.PosterURL != "p/10" {
		t.Errorf("results = %+v / %+v", first, second)
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestCachedFetcher_FallbackNotCached(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{fail: map[string]bool{"bad": true}}
	store := newMemStore()
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), store, "", zerolog.Nop())

	for i := 0; i < 3; i++ {
		if res := c.Fetch(context.Background(), "bad"); !res.Fallback {
			t.Fatalf("Fetch() = %+v, want fallback", res)
		}
	}
	if got := next.calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if _, ok, _ := store.Get("bad"); ok {
		t.Error("fallback result was persisted")
	}
}

func TestCachedFetcher_StoreLayer(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	_ = store.Put("20", Result{PosterURL: "stored", Overview: "from disk"})

	next := &countingFetcher{}
	lru := cache.NewLRU[Result](16, time.Minute)
	c := NewCachedFetcher(next, lru, store, "", zerolog.Nop())

	if res := c.Fetch(context.Background(), "20"); res.Overview != "from disk" {
		t.Errorf("Fetch() = %+v, want stored result", res)
	}
	if next.calls.Load() != 0 {
		t.Error("upstream called despite store hit")
	}
	if _, ok := lru.Get("20"); !ok {
		t.Error("store hit not promoted to memory")
	}

	c.Fetch(context.Background(), "21")
	if r, ok, _ := store.Get("21"); !ok || r.PosterURL != "p/21" {
		t.Errorf("store after miss = %+v, %v", r, ok)
	}
}

func TestCachedFetcher_StoreErrorFallsThrough(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.getErr = errors.New("disk on fire")
	next := &countingFetcher{}
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), store, "", zerolog.Nop())

	if res := c.Fetch(context.Background(), "30"); res.PosterURL != "p/30" {
		t.Errorf("Fetch() = %+v", res)
	}
}

func TestCachedFetcher_CoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{delay: 50 * time.Millisecond}
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), nil, "", zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := c.Fetch(context.Background(), "40"); res.PosterURL != "p/40" {
				t.Errorf("Fetch() = %+v", res)
			}
		}()
	}
	wg.Wait()

	if got := next.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestCachedFetcher_ContextDone(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{delay: 200 * time.Millisecond}
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), nil, "", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if res := c.Fetch(ctx, "50"); !res.Fallback {
		t.Errorf("Fetch() = %+v, want fallback after context done", res)
	}
}

// ctxFetcher honours its context the way Client does: a done context before
// the upstream answers yields the fallback.
type ctxFetcher struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *ctxFetcher) Fetch(ctx context.Context, externalID string) Result {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
		return Result{PosterURL: "p/" + externalID}
	case <-ctx.Done():
		return DefaultResult("")
	}
}

func TestCachedFetcher_CanceledCallerDoesNotDegradeOthers(t *testing.T) {
	t.Parallel()

	next := &ctxFetcher{delay: 100 * time.Millisecond}
	c := NewCachedFetcher(next, cache.NewLRU[Result](16, time.Minute), nil, "", zerolog.Nop())

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	resA := make(chan Result, 1)
	go func() { resA <- c.Fetch(ctxA, "60") }()

	// Let A start the shared call before B joins it.
	time.Sleep(10 * time.Millisecond)
	resB := make(chan Result, 1)
	go func() { resB <- c.Fetch(context.Background(), "60") }()

	time.Sleep(10 * time.Millisecond)
	cancelA()

	if res := <-resA; !res.Fallback {
		t.Errorf("canceled caller got %+v, want fallback", res)
	}
	if res := <-resB; res.Fallback || res.PosterURL != "p/60" {
		t.Errorf("live caller got %+v, want upstream result", res)
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}

	// The completed shared call is cached for later callers.
	if res := c.Fetch(context.Background(), "60"); res.PosterURL != "p/60" {
		t.Errorf("cached Fetch() = %+v", res)
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("upstream calls after cache hit = %d, want 1", got)
	}
}
