package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ducktorrents/internal/metrics"
	"ducktorrents/internal/models"

	"golang.org/x/sync/singleflight"
)

// ErrSearchFailed is returned when the data source round trip fails.
var ErrSearchFailed = errors.New("search failed")

// Result is what the dispatcher hands to the renderer.
type Result struct {
	Term          string
	Rows          []models.Torrent
	Duration      time.Duration
	IsDefaultView bool
	Cached        bool
}

// Dispatcher answers searches from the result cache or the data source.
type Dispatcher struct {
	source Source
	cache  *ResultCache
	group  singleflight.Group
}

// NewDispatcher creates a dispatcher over source and cache.
func NewDispatcher(source Source, cache *ResultCache) *Dispatcher {
	return &Dispatcher{source: source, cache: cache}
}

// Cache returns the result cache the dispatcher consults.
func (d *Dispatcher) Cache() *ResultCache {
	return d.cache
}

// Search runs text against the data source unless the result cache already
// holds its normalized key. Concurrent searches for the same key share one
// round trip. Failures are reported as ErrSearchFailed and never cached.
func (d *Dispatcher) Search(ctx context.Context, text string) (Result, error) {
	q := ParseQuery(text)
	res := Result{Term: q.Term, IsDefaultView: q.IsDefault()}

	if e, ok := d.cache.Lookup(q.Key); ok {
		res.Rows, res.Duration = e.Rows, e.Duration
		res.Cached = true
		return res, nil
	}

	// searches started before a Clear neither share a flight with nor
	// store into the new epoch
	epoch := d.cache.Epoch()
	v, err, _ := d.group.Do(strconv.FormatUint(epoch, 10)+"\x00"+q.Key, func() (interface{}, error) {
		// a concurrent caller may have filled the slot while we waited
		if e, ok := d.cache.store.Get(q.Key); ok {
			return e, nil
		}
		start := time.Now()
		rows, err := d.run(ctx, q)
		if err != nil {
			metrics.SearchFailures.Inc()
			return nil, err
		}
		e := Entry{Rows: rows, Duration: time.Since(start)}
		metrics.SearchDuration.Observe(e.Duration.Seconds())
		d.cache.InsertAt(epoch, q.Key, e)
		return e, nil
	})
	if err != nil {
		return res, fmt.Errorf("%w: %q: %w", ErrSearchFailed, q.Term, err)
	}
	e := v.(Entry)
	res.Rows, res.Duration = e.Rows, e.Duration
	return res, nil
}

func (d *Dispatcher) run(ctx context.Context, q Query) ([]models.Torrent, error) {
	if q.IsDefault() {
		return d.source.Top(ctx, DefaultLimit)
	}
	return d.source.Match(ctx, q.Key, SearchLimit)
}
