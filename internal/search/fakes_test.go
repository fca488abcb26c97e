package search

import (
	"context"
	"sync"

	"ducktorrents/internal/models"
)

// fakeSource records every query and can hold a term until released.
type fakeSource struct {
	mu    sync.Mutex
	calls []string
	hold  map[string]chan struct{}
	err   error
	rows  []models.Torrent
}

func newFakeSource(rows []models.Torrent) *fakeSource {
	return &fakeSource{rows: rows, hold: map[string]chan struct{}{}}
}

func (f *fakeSource) holdTerm(term string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.hold[term] = ch
	return ch
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) record(ctx context.Context, term string) error {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	ch := f.hold[term]
	err := f.err
	f.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeSource) Top(ctx context.Context, limit int) ([]models.Torrent, error) {
	if err := f.record(ctx, ""); err != nil {
		return nil, err
	}
	return f.rows, nil
}

func (f *fakeSource) Match(ctx context.Context, term string, limit int) ([]models.Torrent, error) {
	if err := f.record(ctx, term); err != nil {
		return nil, err
	}
	return []models.Torrent{{InfoHash: term, Name: term}}, nil
}

// recordingSink collects what the pipeline delivers.
type recordingSink struct {
	mu       sync.Mutex
	rendered []Result
	failed   []string
}

func (s *recordingSink) Render(res Result) {
	s.mu.Lock()
	s.rendered = append(s.rendered, res)
	s.mu.Unlock()
}

func (s *recordingSink) Failed(term string, err error) {
	s.mu.Lock()
	s.failed = append(s.failed, term)
	s.mu.Unlock()
}

func (s *recordingSink) Rendered() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.rendered...)
}

func (s *recordingSink) Failures() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.failed...)
}
