package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with its write timestamp. Entries are replaced
// wholesale on Set and never modified after creation.
type entry[V any] struct {
	value     V
	writtenAt time.Time
}

// TTL is an in-memory key/value store whose entries expire ttl after they
// were written. It is safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu    sync.RWMutex
	store map[K]*entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a TTL cache. Expiry is evaluated lazily on read; nothing is
// evicted in the background.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[K, V]{
		store: make(map[K]*entry[V]),
		ttl:   ttl,
		now:   o.now,
	}
}

// Get returns the value for key if it was set less than ttl ago.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.writtenAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Peek returns the value for key regardless of its age, together with the
// time it was written. Callers use it to serve stale data.
func (c *TTL[K, V]) Peek(key K) (V, time.Time, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.writtenAt, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTL[K, V]) Set(key K, value V) {
	e := &entry[V]{value: value, writtenAt: c.now()}

	c.mu.Lock()
	c.store[key] = e
	c.mu.Unlock()
}

// Invalidate removes key. It is a no-op for unknown keys.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

// Keys returns every key currently held, fresh or stale.
func (c *TTL[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.store))
	for k := range c.store {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries held, fresh or stale.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// TTL returns the configured time-to-live.
func (c *TTL[K, V]) TTL() time.Duration {
	return c.ttl
}

// Prune drops entries older than maxAge and returns how many were removed.
func (c *TTL[K, V]) Prune(maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.store {
		if e.writtenAt.Before(cutoff) {
			delete(c.store, k)
			removed++
		}
	}
	return removed
}
