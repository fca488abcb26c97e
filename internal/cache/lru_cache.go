package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache evicts the least recently used entry; Get counts as a use.
// It is safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	inner    *lru.Cache[K, V]
	capacity int
}

// NewLRUCache constructs an LRUCache holding at most capacity entries.
func NewLRUCache[K comparable, V any](capacity int) (*LRUCache[K, V], error) {
	inner, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUCache[K, V]{inner: inner, capacity: capacity}, nil
}

// Get implements Cache.Get.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	return c.inner.Get(key)
}

// Add implements Cache.Add.
func (c *LRUCache[K, V]) Add(key K, value V) bool {
	return c.inner.Add(key, value)
}

// Len implements Cache.Len.
func (c *LRUCache[K, V]) Len() int {
	return c.inner.Len()
}

// Cap implements Cache.Cap.
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}

// Clear implements Cache.Clear.
func (c *LRUCache[K, V]) Clear() {
	c.inner.Purge()
}

var _ Cache[any, any] = (*LRUCache[any, any])(nil)
