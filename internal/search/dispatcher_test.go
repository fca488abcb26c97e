package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ducktorrents/internal/cache"
	"ducktorrents/internal/testutil"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, src Source) *Dispatcher {
	t.Helper()
	rc, err := NewResultCache(cache.PolicyFIFO, 50)
	require.NoError(t, err)
	return NewDispatcher(src, rc)
}

func TestDispatcher_SecondSearchHitsCache(t *testing.T) {
	d := newTestDispatcher(t, NewGormSource(seededDB(t), SourceOptions{}))
	ctx := context.Background()

	first, err := d.Search(ctx, "Ubuntu")
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.False(t, first.IsDefaultView)
	require.Len(t, first.Rows, 3)

	second, err := d.Search(ctx, "  ubuntu ")
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Rows, second.Rows)
	require.Equal(t, first.Duration, second.Duration)
	require.Equal(t, Stats{Hits: 1, Misses: 1}, d.Cache().Stats())
}

func TestDispatcher_DefaultView(t *testing.T) {
	src := newFakeSource(testutil.Fixtures()[:2])
	d := newTestDispatcher(t, src)

	res, err := d.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.True(t, res.IsDefaultView)
	require.Equal(t, "", res.Term)
	require.Len(t, res.Rows, 2)

	res, err = d.Search(context.Background(), "")
	require.NoError(t, err)
	require.True(t, res.Cached)
	require.True(t, res.IsDefaultView)
	require.Equal(t, []string{""}, src.Calls())
}

func TestDispatcher_FailureIsNotCached(t *testing.T) {
	src := newFakeSource(nil)
	src.setErr(errors.New("no such table: torrents"))
	d := newTestDispatcher(t, src)

	_, err := d.Search(context.Background(), "debian")
	require.ErrorIs(t, err, ErrSearchFailed)
	require.Equal(t, 0, d.Cache().Len())

	src.setErr(nil)
	res, err := d.Search(context.Background(), "debian")
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.Equal(t, []string{"debian", "debian"}, src.Calls())
}

func TestDispatcher_CollapsesConcurrentSearches(t *testing.T) {
	src := newFakeSource(nil)
	release := src.holdTerm("arch")
	d := newTestDispatcher(t, src)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = d.Search(context.Background(), "Arch")
		}(i)
	}
	require.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, []string{"arch"}, src.Calls())
	for i, res := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "arch", res.Rows[0].Name)
	}
}

func TestDispatcher_ClearDuringSearchDropsLateResult(t *testing.T) {
	src := newFakeSource(nil)
	release := src.holdTerm("ubuntu")
	d := newTestDispatcher(t, src)

	done := make(chan error, 1)
	go func() {
		_, err := d.Search(context.Background(), "ubuntu")
		done <- err
	}()
	require.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, time.Millisecond)

	// the row-set was replaced while the search was in flight
	d.Cache().Clear()
	close(release)
	require.NoError(t, <-done)
	require.Equal(t, 0, d.Cache().Len())

	res, err := d.Search(context.Background(), "ubuntu")
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.Equal(t, []string{"ubuntu", "ubuntu"}, src.Calls())
}

func TestResultCache_InsertAtStaleEpoch(t *testing.T) {
	rc, err := NewResultCache(cache.PolicyFIFO, 5)
	require.NoError(t, err)

	epoch := rc.Epoch()
	require.True(t, rc.InsertAt(epoch, "a", Entry{}))
	rc.Clear()
	require.False(t, rc.InsertAt(epoch, "b", Entry{}))
	require.True(t, rc.InsertAt(rc.Epoch(), "c", Entry{}))

	_, ok := rc.Lookup("b")
	require.False(t, ok)
	require.Equal(t, 1, rc.Len())
}

func TestResultCache_EvictsFirstInserted(t *testing.T) {
	rc, err := NewResultCache(cache.PolicyFIFO, 50)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		rc.Insert(fmt.Sprintf("q%d", i), Entry{})
	}
	rc.Lookup("q0")
	rc.Insert("q50", Entry{})

	require.Equal(t, 50, rc.Len())
	_, ok := rc.Lookup("q0")
	require.False(t, ok)
	_, ok = rc.Lookup("q1")
	require.True(t, ok)
	_, ok = rc.Lookup("q50")
	require.True(t, ok)
}

func TestResultCache_LRUKeepsTouchedKey(t *testing.T) {
	rc, err := NewResultCache(cache.PolicyLRU, 2)
	require.NoError(t, err)

	rc.Insert("a", Entry{})
	rc.Insert("b", Entry{})
	rc.Lookup("a")
	rc.Insert("c", Entry{})

	_, ok := rc.Lookup("a")
	require.True(t, ok)
	_, ok = rc.Lookup("b")
	require.False(t, ok)
	require.LessOrEqual(t, rc.Len(), rc.Cap())
}
