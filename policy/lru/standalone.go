package lru

import (
	"sync"

	"github.com/go-kvcache/kvcache/policy"
	"github.com/go-kvcache/kvcache/policy/orderedlist"
)

// Cache is a standalone, self-locking recency-ordered bounded map: the
// foundation every other policy in this module is either built from
// (LRU-K wraps one; sharded LRU fans out many) or patterned after.
//
// Unlike the ShardPolicy adapter above (which plugs into cache.Cache's
// shared shard lock and intrusive node list), Cache owns its own mutex,
// map, and ordered list end to end, implementing policy.Core directly.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	m    map[K]*entry[K, V]
	list *orderedlist.List[K]
}

type entry[K comparable, V any] struct {
	val V
	h   orderedlist.Handle[K]
}

// NewCache constructs a standalone LRU with the given capacity.
// Capacity must be > 0; otherwise ErrInvalidCapacity is returned.
func NewCache[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, policy.ErrInvalidCapacity
	}
	return &Cache[K, V]{
		cap:  capacity,
		m:    make(map[K]*entry[K, V], capacity),
		list: orderedlist.New[K](),
	}, nil
}

// Put inserts or updates key/value. On update the node is moved to MRU.
// On insertion past capacity, the LRU tail is evicted first.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[key]; ok {
		e.val = value
		c.list.MoveToFront(e.h)
		return
	}
	if len(c.m) >= c.cap {
		c.evictTailLocked()
	}
	h := c.list.PushFront(key)
	c.m[key] = &entry[K, V]{val: value, h: h}
}

// TryGet reads key, promoting it to MRU on hit.
func (c *Cache[K, V]) TryGet(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.list.MoveToFront(e.h)
	return e.val, true
}

// Get fails with policy.ErrNotFound on miss.
func (c *Cache[K, V]) Get(key K) (V, error) {
	if v, ok := c.TryGet(key); ok {
		return v, nil
	}
	var zero V
	return zero, policy.ErrNotFound
}

// Remove deletes key if present; silent (false) if absent.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return false
	}
	c.list.Detach(e.h)
	delete(c.m, key)
	return true
}

// Len reports the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Clear empties the cache, discarding all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[K]*entry[K, V], c.cap)
	c.list = orderedlist.New[K]()
}

// evictTailLocked evicts the current LRU tail. Caller holds mu.
func (c *Cache[K, V]) evictTailLocked() {
	k, ok := c.list.PeekBack()
	if !ok {
		return
	}
	if e, ok := c.m[k]; ok {
		c.list.Detach(e.h)
		delete(c.m, k)
	}
}

var _ policy.Core[int, int] = (*Cache[int, int])(nil)
