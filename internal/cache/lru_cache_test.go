package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUCache_TouchOnRead(t *testing.T) {
	c, err := NewLRUCache[string, int](2)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	_, ok := c.Get("a") // a becomes most recently used
	require.True(t, ok)

	require.True(t, c.Add("c", 3))
	_, ok = c.Get("b")
	require.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
	require.Equal(t, 2, c.Cap())

	c.Clear()
	require.Zero(t, c.Len())
}

func TestNew_Policies(t *testing.T) {
	fifo, err := New[string, int](PolicyFIFO, 3)
	require.NoError(t, err)
	require.IsType(t, &FIFOCache[string, int]{}, fifo)

	lru, err := New[string, int](PolicyLRU, 3)
	require.NoError(t, err)
	require.IsType(t, &LRUCache[string, int]{}, lru)

	_, err = New[string, int]("random", 3)
	require.Error(t, err)

	_, err = New[string, int](PolicyFIFO, 0)
	require.Error(t, err)
}
