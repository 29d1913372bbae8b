package arc

import (
	"errors"
	"strconv"
	"testing"

	"github.com/go-kvcache/kvcache/policy"
	"golang.org/x/sync/errgroup"
)

func TestNew_InvalidCapacity(t *testing.T) {
	t.Parallel()
	if _, err := New[int, string](-1); !errors.Is(err, policy.ErrInvalidCapacity) {
		t.Fatalf("want ErrInvalidCapacity, got %v", err)
	}
}

func TestNew_ZeroCapacityAlwaysMisses(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](0)
	if err != nil {
		t.Fatal(err)
	}
	c.Put(1, "a") // no-op
	if _, ok := c.TryGet(1); ok {
		t.Fatal("zero-capacity ARC must always miss")
	}
	if c.Len() != 0 {
		t.Fatalf("want len 0, got %d", c.Len())
	}
}

// With cap=2, put(1); put(2); put(3) evicts 1 into the B1 ghost list.
// A subsequent get(1) still misses, increases p and consumes the ghost;
// a following put(1,v) then makes 1 resident again as a fresh key.
func TestARC_Scenario_GhostPromotionShiftsP(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](2)
	if err != nil {
		t.Fatal(err)
	}

	c.Put(1, "v1")
	c.Put(2, "v2")
	c.Put(3, "v3") // T1 overflow: 1 (LRU of T1) becomes a B1 ghost

	if _, ok := c.b1h[1]; !ok {
		t.Fatal("1 must be a B1 ghost after T1 overflow")
	}

	pBefore := c.P()
	if _, ok := c.TryGet(1); ok {
		t.Fatal("ghost hit must report a miss (no value is synthesized)")
	}
	if c.P() <= pBefore {
		t.Fatalf("p must have increased on B1 hit: before=%d after=%d", pBefore, c.P())
	}
	if _, ok := c.b1h[1]; ok {
		t.Fatal("ghost hit must remove the entry from B1")
	}

	c.Put(1, "v1-again")
	if !c.Contains(1) {
		t.Fatal("1 must be resident after re-Put")
	}
	// Note: get()'s B1-hit already removed the ghost (checked above),
	// so this re-Put takes the "fresh key" path (into T1) rather than the
	// B1-hit path into T2;
	// see DESIGN.md for the resolution of this spec tension.
}

// put()'s own B1-hit transition places the key in T2, unambiguously
// (no intervening get() has consumed the ghost).
func TestARC_Scenario_PutOnGhostPromotesToT2(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](2)
	if err != nil {
		t.Fatal(err)
	}

	c.Put(1, "v1")
	c.Put(2, "v2")
	c.Put(3, "v3") // 1 becomes a B1 ghost

	if _, ok := c.b1h[1]; !ok {
		t.Fatal("1 must be a B1 ghost after T1 overflow")
	}

	c.Put(1, "v1-reinserted")

	if _, ok := c.b1h[1]; ok {
		t.Fatal("ghost must be consumed by the re-Put")
	}
	if e := c.values[1]; e == nil || e.tag != tagT2 {
		t.Fatalf("1 must land in T2 after a B1-ghost-hit Put, got %+v", e)
	}
}

func TestARC_Invariants_AfterRandomOps(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](4)
	if err != nil {
		t.Fatal(err)
	}

	ops := []int{1, 2, 3, 4, 5, 1, 2, 6, 7, 1, 3, 8, 9, 2, 10}
	for _, k := range ops {
		if _, ok := c.TryGet(k); !ok {
			c.Put(k, "v")
		}
		assertARCInvariants(t, c)
	}
}

func assertARCInvariants[K comparable, V any](t *testing.T, c *Cache[K, V]) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.t1.Len()+c.t2.Len() > c.cap {
		t.Fatalf("|T1|+|T2| exceeds capacity: %d+%d > %d", c.t1.Len(), c.t2.Len(), c.cap)
	}
	if c.b1.Len() > c.cap {
		t.Fatalf("|B1| exceeds capacity: %d > %d", c.b1.Len(), c.cap)
	}
	if c.b2.Len() > c.cap {
		t.Fatalf("|B2| exceeds capacity: %d > %d", c.b2.Len(), c.cap)
	}
	if c.p < 0 || c.p > c.cap {
		t.Fatalf("p out of range: %d not in [0,%d]", c.p, c.cap)
	}
	for k := range c.b1h {
		if _, ok := c.b2h[k]; ok {
			t.Fatalf("key %v present in both B1 and B2", k)
		}
		if _, ok := c.values[k]; ok {
			t.Fatalf("key %v present in both B1 and value index", k)
		}
	}
}

// Concurrent Put/TryGet from many goroutines must never corrupt the
// internal invariants checked by assertARCInvariants (run under -race).
func TestARC_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](32)
	if err != nil {
		t.Fatal(err)
	}

	const goroutines = 16
	const opsPer = 200

	var g errgroup.Group
	for w := 0; w < goroutines; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < opsPer; i++ {
				k := strconv.Itoa((w*opsPer + i) % 40)
				if _, ok := c.TryGet(k); !ok {
					c.Put(k, i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	assertARCInvariants(t, c)
}

func TestARC_RoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := New[string, int](4)
	c.Put("k", 7)
	v, err := c.Get("k")
	if err != nil || v != 7 {
		t.Fatalf("want 7, got %d err=%v", v, err)
	}
}

func TestARC_Clear(t *testing.T) {
	t.Parallel()

	c, _ := New[int, string](2)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(3, "c") // 1 becomes a B1 ghost
	c.Clear()

	if c.Len() != 0 || c.P() != 0 {
		t.Fatalf("want len=0 p=0 after Clear, got len=%d p=%d", c.Len(), c.P())
	}
	if _, ok := c.b1h[1]; ok {
		t.Fatal("ghost state must be cleared too")
	}
	c.Put(1, "a-again")
	if !c.Contains(1) {
		t.Fatal("cache must be usable after Clear")
	}
}

func TestARC_RemoveIdempotent(t *testing.T) {
	t.Parallel()

	c, _ := New[string, int](4)
	c.Put("k", 1)
	if !c.Remove("k") {
		t.Fatal("first remove must report true")
	}
	if c.Remove("k") {
		t.Fatal("second remove must report false")
	}
}
