// Package arc implements the Adaptive Replacement Cache: an adaptive
// partition between recency (T1) and frequency (T2) lists, guided by
// ghost lists (B1/B2). Grounded on
// original_source/include/Arc_new.h, reworked into this module's
// plain-struct-plus-mutex idiom.
package arc

import (
	"sync"

	"github.com/go-kvcache/kvcache/policy"
	"github.com/go-kvcache/kvcache/policy/orderedlist"
)

type listTag int

const (
	tagT1 listTag = iota
	tagT2
)

type entry[K comparable, V any] struct {
	val V
	tag listTag
	h   orderedlist.Handle[K]
}

// Cache is a standalone, self-locking ARC. Capacity may be 0, which
// yields a pure ghost-only instance that always misses: every Put is
// a no-op and every Get misses.
type Cache[K comparable, V any] struct {
	mu  sync.Mutex
	cap int
	p   int

	t1, t2, b1, b2 *orderedlist.List[K]
	values         map[K]*entry[K, V]
	b1h, b2h       map[K]orderedlist.Handle[K]
}

// New constructs an ARC cache. capacity must be >= 0.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity < 0 {
		return nil, policy.ErrInvalidCapacity
	}
	return &Cache[K, V]{
		cap:    capacity,
		t1:     orderedlist.New[K](),
		t2:     orderedlist.New[K](),
		b1:     orderedlist.New[K](),
		b2:     orderedlist.New[K](),
		values: make(map[K]*entry[K, V]),
		b1h:    make(map[K]orderedlist.Handle[K]),
		b2h:    make(map[K]orderedlist.Handle[K]),
	}, nil
}

// Put implements ARC's admission and hit-promotion transitions: a
// resident key is refreshed and promoted to T2; a B1/B2 ghost hit
// adjusts p and triggers a replace before the key is reinserted into
// T2; a fresh key is admitted into T1 after dropping B1's LRU ghost
// and/or replacing as needed, so that |T1|+|T2| never exceeds cap.
// Each ghost list is trimmed to cap on its own, so the four lists
// together can hold up to 3*cap keys.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == 0 {
		return
	}

	if e, ok := c.values[key]; ok {
		e.val = value
		c.promoteToT2Locked(key, e)
		return
	}

	if _, ok := c.b1h[key]; ok {
		c.removeGhostLocked(c.b1, c.b1h, key)
		c.adjustPOnB1HitLocked()
		c.replaceLocked(true)
		c.insertT2Locked(key, value)
		return
	}

	if _, ok := c.b2h[key]; ok {
		c.removeGhostLocked(c.b2, c.b2h, key)
		c.adjustPOnB2HitLocked()
		c.replaceLocked(false)
		c.insertT2Locked(key, value)
		return
	}

	// Fresh key: enforce the meta-constraint before inserting at T1 MRU.
	if c.t1.Len()+len(c.b1h) >= c.cap {
		if c.t1.Len() < c.cap {
			c.dropGhostLRULocked(c.b1, c.b1h)
			if c.t1.Len()+c.t2.Len() >= c.cap {
				c.replaceLocked(false)
			}
		} else {
			c.replaceLocked(false)
		}
	} else if c.t1.Len()+c.t2.Len() >= c.cap {
		c.replaceLocked(false)
	}
	c.insertT1Locked(key, value)
}

// TryGet implements ARC's lookup: a resident hit promotes the key to
// T2 and returns its value; a ghost hit (B1 or B2) adjusts p but still
// reports a miss, since no value is stored for a ghost entry.
func (c *Cache[K, V]) TryGet(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.values[key]; ok {
		c.promoteToT2Locked(key, e)
		return e.val, true
	}

	if _, ok := c.b1h[key]; ok {
		c.removeGhostLocked(c.b1, c.b1h, key)
		c.adjustPOnB1HitLocked()
		c.replaceLocked(true)
		var zero V
		return zero, false
	}

	if _, ok := c.b2h[key]; ok {
		c.removeGhostLocked(c.b2, c.b2h, key)
		c.adjustPOnB2HitLocked()
		c.replaceLocked(false)
		var zero V
		return zero, false
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

// Remove deletes key from T1/T2 (ghost entries are left untouched: a
// ghost is "evicted but remembered", not a live entry). Silent if
// absent from the value index.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.values[key]
	if !ok {
		return false
	}
	if e.tag == tagT1 {
		c.t1.Detach(e.h)
	} else {
		c.t2.Detach(e.h)
	}
	delete(c.values, key)
	return true
}

// Len reports |T1| + |T2|, the number of live value-bearing entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t1.Len() + c.t2.Len()
}

// P reports the current adaptive target size of T1.
func (c *Cache[K, V]) P() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p
}

// Contains reports whether key currently holds a live value (T1 or T2).
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

// Clear empties all four lists and resets p to 0.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t1, c.t2, c.b1, c.b2 = orderedlist.New[K](), orderedlist.New[K](), orderedlist.New[K](), orderedlist.New[K]()
	c.values = make(map[K]*entry[K, V])
	c.b1h = make(map[K]orderedlist.Handle[K])
	c.b2h = make(map[K]orderedlist.Handle[K])
	c.p = 0
}

// -------------------- internals (mu held) --------------------

func (c *Cache[K, V]) promoteToT2Locked(key K, e *entry[K, V]) {
	if e.tag == tagT1 {
		c.t1.Detach(e.h)
	} else {
		c.t2.Detach(e.h)
	}
	e.tag = tagT2
	e.h = c.t2.PushFront(key)
}

func (c *Cache[K, V]) insertT1Locked(key K, value V) {
	h := c.t1.PushFront(key)
	c.values[key] = &entry[K, V]{val: value, tag: tagT1, h: h}
}

func (c *Cache[K, V]) insertT2Locked(key K, value V) {
	h := c.t2.PushFront(key)
	c.values[key] = &entry[K, V]{val: value, tag: tagT2, h: h}
}

func (c *Cache[K, V]) removeGhostLocked(l *orderedlist.List[K], idx map[K]orderedlist.Handle[K], key K) {
	if h, ok := idx[key]; ok {
		l.Detach(h)
		delete(idx, key)
	}
}

func (c *Cache[K, V]) dropGhostLRULocked(l *orderedlist.List[K], idx map[K]orderedlist.Handle[K]) {
	if k, ok := l.PopBack(); ok {
		delete(idx, k)
	}
}

// adjustPOnB1HitLocked implements p <- min(C, p + max(1, |B2|/max(1,|B1|))).
func (c *Cache[K, V]) adjustPOnB1HitLocked() {
	delta := maxInt(1, c.b2.Len()/maxInt(1, c.b1.Len()))
	c.p = minInt(c.cap, c.p+delta)
}

// adjustPOnB2HitLocked implements p <- max(0, p - max(1, |B1|/max(1,|B2|))).
func (c *Cache[K, V]) adjustPOnB2HitLocked() {
	delta := maxInt(1, c.b1.Len()/maxInt(1, c.b2.Len()))
	c.p = maxInt(0, c.p-delta)
}

// replaceLocked evicts T1's or T2's tail to the corresponding ghost
// list, then trims ghosts to cap. hitInB1 breaks the |T1|==p tie in
// favor of evicting from T1; T1 is also the victim whenever T2 is empty.
func (c *Cache[K, V]) replaceLocked(hitInB1 bool) {
	evictFromT1 := c.t1.Len() > 0 && (c.t2.Len() == 0 || c.t1.Len() > c.p || (hitInB1 && c.t1.Len() == c.p))

	if evictFromT1 {
		k, ok := c.t1.PeekBack()
		if !ok {
			return
		}
		c.t1.Detach(c.values[k].h)
		delete(c.values, k)
		c.b1h[k] = c.b1.PushFront(k)
	} else {
		k, ok := c.t2.PeekBack()
		if !ok {
			return
		}
		c.t2.Detach(c.values[k].h)
		delete(c.values, k)
		c.b2h[k] = c.b2.PushFront(k)
	}

	for c.b1.Len() > c.cap {
		c.dropGhostLRULocked(c.b1, c.b1h)
	}
	for c.b2.Len() > c.cap {
		c.dropGhostLRULocked(c.b2, c.b2h)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var _ policy.Core[int, int] = (*Cache[int, int])(nil)
