package cache

import (
	"sync"
	"testing"
	"time"
)

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
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTTL_MissHitExpire(t *testing.T) {
	clk := newClock()
	c := New[string, int](time.Minute, WithClock(clk.Now))

	if _, ok := c.Get("k"); ok {
		t.Fatal("get before set should miss")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v != 42 {
		t.Fatalf("get after set = (%d, %v), want (42, true)", v, ok)
	}

	clk.Advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry should still be fresh just before ttl")
	}

	clk.Advance(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should miss once age == ttl")
	}
}

func TestTTL_PeekServesStale(t *testing.T) {
	clk := newClock()
	c := New[string, string](time.Minute, WithClock(clk.Now))
	c.Set("k", "v1")
	written := clk.Now()

	clk.Advance(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected stale entry to miss on Get")
	}
	v, at, ok := c.Peek("k")
	if !ok || v != "v1" {
		t.Fatalf("peek = (%q, %v), want (v1, true)", v, ok)
	}
	if !at.Equal(written) {
		t.Errorf("writtenAt = %v, want %v", at, written)
	}
}

func TestTTL_SetReplacesAndResetsAge(t *testing.T) {
	clk := newClock()
	c := New[string, string](time.Minute, WithClock(clk.Now))
	c.Set("k", "old")
	clk.Advance(50 * time.Second)
	c.Set("k", "new")
	clk.Advance(50 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != "new" {
		t.Errorf("get = (%q, %v), want (new, true)", v, ok)
	}
}

func TestTTL_Invalidate(t *testing.T) {
	c := New[string, int](time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	c.Invalidate("missing")

	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key should miss")
	}
	if _, _, ok := c.Peek("a"); ok {
		t.Error("invalidated key should not be peekable")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestTTL_Prune(t *testing.T) {
	clk := newClock()
	c := New[string, int](time.Minute, WithClock(clk.Now))
	c.Set("old", 1)
	clk.Advance(10 * time.Minute)
	c.Set("new", 2)

	if n := c.Prune(5 * time.Minute); n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	keys := c.Keys()
	if len(keys) != 1 || keys[0] != "new" {
		t.Errorf("Keys() = %v, want [new]", keys)
	}
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i%5, i)
			c.Get(i % 5)
			c.Keys()
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
}
