package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestFIFOCache_AddGet(t *testing.T) {
	c := NewFIFOCache[string, int](2, Options{ConcurrencySafe: false})
	c.Add("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit with value 1, got ok=%v v=%v", ok, v)
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len=1, got %d", c.Len())
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestFIFOCache_EvictsFirstInserted(t *testing.T) {
	const capacity = 50
	c := NewFIFOCache[string, int](capacity, Options{ConcurrencySafe: true})
	for i := 0; i < capacity; i++ {
		if evicted := c.Add(fmt.Sprintf("q%d", i), i); evicted {
			t.Fatalf("unexpected eviction while filling at %d", i)
		}
	}
	// reads must not change FIFO order
	if _, ok := c.Get("q0"); !ok {
		t.Fatalf("expected q0 present")
	}

	if evicted := c.Add("q50", 50); !evicted {
		t.Fatalf("expected eviction on the (N+1)th key")
	}
	if c.Len() != capacity {
		t.Fatalf("expected Len=%d, got %d", capacity, c.Len())
	}
	if _, ok := c.Get("q0"); ok {
		t.Fatalf("expected first inserted key q0 to be evicted")
	}
	for i := 1; i <= capacity; i++ {
		if _, ok := c.Get(fmt.Sprintf("q%d", i)); !ok {
			t.Fatalf("expected q%d to survive", i)
		}
	}
	if keys := c.Keys(); keys[0] != "q1" || keys[len(keys)-1] != "q50" {
		t.Fatalf("unexpected order %v", keys)
	}
}

func TestFIFOCache_ReAddKeepsPosition(t *testing.T) {
	c := NewFIFOCache[string, int](2, Options{})
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10) // last write wins, still the oldest
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("expected replaced value 10, got %d", v)
	}
	c.Add("c", 3)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted as the oldest insertion")
	}
	if c.Len() != 2 {
		t.Fatalf("expected Len=2, got %d", c.Len())
	}
}

func TestFIFOCache_Delete_Clear(t *testing.T) {
	c := NewFIFOCache[int, int](4, Options{ConcurrencySafe: true})
	c.Add(1, 10)
	c.Add(2, 20)
	c.Delete(1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected key 1 to be deleted")
	}
	if c.Len() != 1 {
		t.Fatalf("expected Len=1, got %d", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected Len=0 after Clear, got %d", c.Len())
	}
}

func TestFIFOCache_ConcurrencySafe_NeverExceedsCapacity(t *testing.T) {
	const capacity = 16
	keys := 100
	rounds := 50

	c := NewFIFOCache[int, int](capacity, Options{ConcurrencySafe: true})
	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				c.Add(i, r)
				_, _ = c.Get(i)
				if n := c.Len(); n > capacity {
					t.Errorf("Len=%d exceeds capacity %d", n, capacity)
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() != capacity {
		t.Fatalf("expected full cache Len=%d, got %d", capacity, c.Len())
	}
}
