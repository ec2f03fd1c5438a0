// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestLRU(capacity int, ttl time.Duration) (*LRU[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string](capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRU_BasicOperations(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(3, time.Minute)
	c.Add("a", "alpha")
	c.Add("b", "beta")

	if v, ok := c.Get("a"); !ok || v != "alpha" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Add("a", "alpha2")
	if v, _ := c.Get("a"); v != "alpha2" {
		t.Errorf("Get(a) after update = %q, want alpha2", v)
	}

	if !c.Remove("b") {
		t.Error("Remove(b) = false, want true")
	}
	if c.Remove("b") {
		t.Error("second Remove(b) = true, want false")
	}
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(3, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	c.Get("a") // a becomes most recently used, b is now oldest
	c.Add("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be present", k)
		}
	}
	if _, _, evictions, _ := c.Stats(); evictions != 1 {
		t.Errorf("evictions = %d, want 1", evictions)
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	t.Parallel()

	c, clock := newTestLRU(10, time.Minute)
	c.Add("a", "1")
	clock.Advance(30 * time.Second)
	c.Add("b", "2")

	clock.Advance(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive")
	}

	clock.Advance(time.Minute)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(2, time.Minute)
	c.Add("a", "1")
	c.Get("a")
	c.Get("a")
	c.Get("z")

	hits, misses, _, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = hits %d misses %d size %d", hits, misses, size)
	}
}

func TestLRU_Defaults(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](0, 0)
	if c.capacity != 1024 || c.ttl != time.Hour {
		t.Errorf("defaults = capacity %d ttl %v", c.capacity, c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := strconv.Itoa((g*31 + i) % 100)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d, exceeds capacity 64", c.Len())
	}
}
