// Package shardedlru implements a hash-sharded LRU: N independent LRU
// instances fanned out by hash(key) mod N, trading global capacity
// contention for independent per-shard contention. Across shards there
// is no ordering guarantee — only per-shard atomicity.
package shardedlru

import (
	"github.com/go-kvcache/kvcache/internal/util"
	"github.com/go-kvcache/kvcache/policy"
	"github.com/go-kvcache/kvcache/policy/lru"
)

// Cache fans out to N independent lru.Cache shards, each with capacity
// ceil(totalCapacity / N).
type Cache[K comparable, V any] struct {
	shards []*lru.Cache[K, V]
	n      int
}

// New constructs a sharded LRU. totalCapacity must be > 0. shardCount
// <= 0 means "auto" (util.ReasonableShardCount, i.e. the hardware
// parallelism estimate), and must resolve to >= 1.
func New[K comparable, V any](totalCapacity, shardCount int) (*Cache[K, V], error) {
	if totalCapacity <= 0 {
		return nil, policy.ErrInvalidCapacity
	}
	n := shardCount
	if n <= 0 {
		n = util.ReasonableShardCount()
	}
	if n < 1 {
		n = 1
	}

	perShard := (totalCapacity + n - 1) / n
	shards := make([]*lru.Cache[K, V], n)
	for i := 0; i < n; i++ {
		s, err := lru.NewCache[K, V](perShard)
		if err != nil {
			return nil, err
		}
		shards[i] = s
	}
	return &Cache[K, V]{shards: shards, n: n}, nil
}

// Put routes to shard hash(key) mod N and delegates unchanged.
func (c *Cache[K, V]) Put(key K, value V) { c.shardFor(key).Put(key, value) }

// TryGet routes to shard hash(key) mod N and delegates unchanged.
func (c *Cache[K, V]) TryGet(key K) (V, bool) { return c.shardFor(key).TryGet(key) }

// Get routes to shard hash(key) mod N and delegates unchanged.
func (c *Cache[K, V]) Get(key K) (V, error) { return c.shardFor(key).Get(key) }

// Remove routes to shard hash(key) mod N and delegates unchanged.
func (c *Cache[K, V]) Remove(key K) bool { return c.shardFor(key).Remove(key) }

// Len sums the resident entry count across all shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// ShardCount reports N, the number of independent shards.
func (c *Cache[K, V]) ShardCount() int { return c.n }

// Clear empties every shard.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.Clear()
	}
}

func (c *Cache[K, V]) shardFor(key K) *lru.Cache[K, V] {
	h := util.Fnv64a(key)
	return c.shards[util.ShardIndex(h, c.n)]
}

var _ policy.Core[int, int] = (*Cache[int, int])(nil)
