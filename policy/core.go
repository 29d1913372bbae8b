package policy

import "errors"

// ErrInvalidCapacity is returned by a policy constructor when the
// requested capacity is negative, or zero where the policy forbids it.
var ErrInvalidCapacity = errors.New("policy: invalid capacity")

// ErrNotFound is returned by the value-returning Get variant when the
// key is absent.
var ErrNotFound = errors.New("policy: not found")

// Core is the abstract contract shared by every eviction policy in this
// module: LRU, LRU-K, sharded LRU, frequency-aging LFU, and ARC.
//
// An implementation owns a single mutual-exclusion primitive protecting
// its entire internal state; every method acquires it for the full
// duration of the call, so concurrent callers observe a total order of
// completed operations (sequential consistency per instance). The
// sharded LRU (shardedlru.Cache) is the exception: it holds one lock per
// shard, so that order holds only among operations on the same shard.
type Core[K comparable, V any] interface {
	// Put inserts or updates key/value. It never fails.
	Put(key K, value V)

	// TryGet reads key. On miss it returns the zero value and false,
	// without mutating policy state beyond what the policy's own
	// admission/aging rules require.
	TryGet(key K) (value V, hit bool)

	// Get is a convenience read that fails with ErrNotFound on miss.
	Get(key K) (V, error)

	// Remove deletes key if present. It is silent (returns false,
	// no error) when key is absent; Remove is idempotent.
	Remove(key K) bool

	// Len reports the number of live, value-bearing entries.
	Len() int
}
