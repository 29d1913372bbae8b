// Package lruk implements LRU-K: an LRU cache guarded by a hit-count
// admission filter, so a key only enters the main cache once it has been
// seen K times.
package lruk

import (
	"sync"

	"github.com/go-kvcache/kvcache/policy"
	"github.com/go-kvcache/kvcache/policy/lru"
)

// Cache is LRU-K: an inner main LRU of capacity mainCap, a bounded
// history table (itself an LRU of Key->hit count, so a churning or
// hostile workload cannot grow it without bound), and a pending-value
// table for keys not yet promoted.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	k    int
	main *lru.Cache[K, V]
	hist *lru.Cache[K, int]
	pend map[K]V
}

// New constructs LRU-K with a main cache capacity, a history-table
// capacity, and a promotion threshold k (>= 1). mainCap and histCap must
// be > 0; k must be >= 1.
func New[K comparable, V any](mainCap, histCap, k int) (*Cache[K, V], error) {
	if k < 1 {
		return nil, policy.ErrInvalidCapacity
	}
	main, err := lru.NewCache[K, V](mainCap)
	if err != nil {
		return nil, err
	}
	hist, err := lru.NewCache[K, int](histCap)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{
		k:    k,
		main: main,
		hist: hist,
		pend: make(map[K]V),
	}, nil
}

// Put records a write. If key is already promoted, its value and
// recency are updated in place. K=1 degenerates to plain LRU (no
// gating is meaningful with a one-reference threshold), so a brand-new
// key goes straight into the main LRU. Otherwise the value is only
// staged in the pending table — a write is not itself a qualifying
// reference; only TryGet misses advance the history count, matching
// the two-get promotion scenario of this policy.
//
// Per spec open question #2: if a later Put overwrites pend[k] before
// promotion fires, the promoted value is the latest Put's value — this
// is intended, not a bug.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.main.TryGet(key); ok {
		c.main.Put(key, value)
		return
	}

	if c.k <= 1 {
		c.main.Put(key, value)
		return
	}

	c.pend[key] = value
}

// TryGet reads key. A main-cache hit returns directly. A miss bumps the
// history count; if that bump reaches the promotion threshold and a
// pending value still exists, the key is promoted and its value
// returned as a hit. Otherwise it reports a miss.
func (c *Cache[K, V]) TryGet(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.main.TryGet(key); ok {
		return v, true
	}

	count, _ := c.hist.TryGet(key)
	count++
	c.hist.Put(key, count)

	if count >= c.k {
		if v, ok := c.pend[key]; ok {
			delete(c.pend, key)
			c.hist.Remove(key)
			c.main.Put(key, v)
			return v, true
		}
	}

	var zero V
	return zero, false
}

// Get fails with policy.ErrNotFound on miss.
func (c *Cache[K, V]) Get(key K) (V, error) {
	if v, ok := c.TryGet(key); ok {
		return v, nil
	}
	var zero V
	return zero, policy.ErrNotFound
}

// Remove deletes key from whichever table currently holds it (main,
// pending, or history). Silent if absent everywhere.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.main.Remove(key)
	if _, ok := c.pend[key]; ok {
		delete(c.pend, key)
		removed = true
	}
	if c.hist.Remove(key) {
		removed = true
	}
	return removed
}

// Len reports the number of promoted (main-cache) entries.
func (c *Cache[K, V]) Len() int {
	return c.main.Len()
}

// Clear empties the main cache, history table, and pending table.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.main.Clear()
	c.hist.Clear()
	c.pend = make(map[K]V)
}

var _ policy.Core[int, int] = (*Cache[int, int])(nil)
