package cache

import (
	"container/list"
	"sync"
)

// entry stores a cached value together with its key so eviction can find the map slot.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// FIFOCache is a map-backed cache that evicts in insertion order, with optional concurrency safety.
// Re-adding an existing key replaces its value but keeps its original position.
type FIFOCache[K comparable, V any] struct {
	// If muPtr is nil, the cache is NOT goroutine-safe.
	// If muPtr is non-nil, it guards all operations.
	muPtr *sync.RWMutex

	capacity int
	order    *list.List // front = oldest
	items    map[K]*list.Element
}

// Options controls construction of a FIFOCache.
type Options struct {
	// ConcurrencySafe controls whether operations are guarded by a RWMutex.
	// If false, the cache is not safe for concurrent use and may be faster in single-threaded contexts.
	ConcurrencySafe bool
}

// NewFIFOCache constructs a new FIFOCache holding at most capacity entries.
func NewFIFOCache[K comparable, V any](capacity int, opts Options) *FIFOCache[K, V] {
	var mu *sync.RWMutex
	if opts.ConcurrencySafe {
		mu = &sync.RWMutex{}
	}
	if capacity < 1 {
		capacity = 1
	}
	return &FIFOCache[K, V]{
		muPtr:    mu,
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

func (c *FIFOCache[K, V]) lockR() func() {
	if c.muPtr == nil {
		return func() {}
	}
	c.muPtr.RLock()
	return c.muPtr.RUnlock
}

func (c *FIFOCache[K, V]) lockW() func() {
	if c.muPtr == nil {
		return func() {}
	}
	c.muPtr.Lock()
	return c.muPtr.Unlock
}

// Get implements Cache.Get.
func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
	unlock := c.lockR()
	defer unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[K, V]).value, true
}

// Add implements Cache.Add.
func (c *FIFOCache[K, V]) Add(key K, value V) bool {
	unlock := c.lockW()
	defer unlock()

	if el, ok := c.items[key]; ok {
		// last write wins, insertion position is kept
		el.Value.(*entry[K, V]).value = value
		return false
	}

	evicted := false
	if len(c.items) >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			e := c.order.Remove(oldest).(*entry[K, V])
			delete(c.items, e.key)
			evicted = true
		}
	}
	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})
	return evicted
}

// Delete removes a key if present.
func (c *FIFOCache[K, V]) Delete(key K) {
	unlock := c.lockW()
	defer unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Keys returns the keys from oldest to newest.
func (c *FIFOCache[K, V]) Keys() []K {
	unlock := c.lockR()
	defer unlock()
	keys := make([]K, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Len implements Cache.Len.
func (c *FIFOCache[K, V]) Len() int {
	unlock := c.lockR()
	defer unlock()
	return len(c.items)
}

// Cap implements Cache.Cap.
func (c *FIFOCache[K, V]) Cap() int {
	return c.capacity
}

// Clear implements Cache.Clear.
func (c *FIFOCache[K, V]) Clear() {
	unlock := c.lockW()
	defer unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

// Ensure FIFOCache implements Cache at compile time.
var _ Cache[any, any] = (*FIFOCache[any, any])(nil)
