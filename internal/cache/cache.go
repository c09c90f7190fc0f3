// Package cache provides the process-local TTL cache shared by the
// webhook resolver and the stats recorder. Entries are never the source
// of truth; the authoritative data lives in the store.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]entry[V]
}

// New builds a cache whose entries expire ttl after they were set.
// now is injectable for tests; pass nil for time.Now.
func New[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLCache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value for key. An entry older than the TTL is
// treated as a miss and removed.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteFunc removes every entry whose key matches.
func (c *TTLCache[K, V]) DeleteFunc(match func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if match(k) {
			delete(c.entries, k)
		}
	}
}

func (c *TTLCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len counts live (non-expired) entries.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if c.now().Sub(e.storedAt) < c.ttl {
			n++
		}
	}
	return n
}
