package assetcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"ducktorrents/internal/cachestore"

	"golang.org/x/sync/singleflight"
)

// Outcome describes how a request was resolved; it labels the asset metrics.
type Outcome string

const (
	OutcomeHit         Outcome = "hit"
	OutcomeNetwork     Outcome = "network"
	OutcomeFallback    Outcome = "fallback"
	OutcomeOffline     Outcome = "offline"
	OutcomePassthrough Outcome = "passthrough"
)

const (
	OfflineText        = "Offline - Please check your connection"
	OfflineNoCacheText = "Offline - Cached version not available"
)

// Offline synthesizes the 503 placeholder answered when neither network nor
// cache can serve req.
func Offline(req *http.Request, text string) *http.Response {
	return &http.Response{
		Status:        "503 Service Unavailable",
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain"}},
		Body:          io.NopCloser(strings.NewReader(text)),
		ContentLength: int64(len(text)),
		Request:       req,
	}
}

// Strategies resolves requests against one generation and the network.
// Only 200 responses are written to the cache.
type Strategies struct {
	Next   http.RoundTripper
	Logger *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

// Wait blocks until background revalidations have finished.
func (s *Strategies) Wait() {
	s.wg.Wait()
}

// CacheFirst answers from gen when possible, otherwise from the network,
// storing a 200 for next time. Network failure with nothing cached yields 503.
func (s *Strategies) CacheFirst(req *http.Request, gen cachestore.Generation) (*http.Response, Outcome) {
	if cached := s.match(req, gen); cached != nil {
		return cached.Response(req), OutcomeHit
	}
	resp, err := s.fetchAndStore(req, gen)
	if err != nil {
		s.logger().Error("fetch failed", slog.String("url", req.URL.String()), slog.Any("error", err))
		return Offline(req, OfflineText), OutcomeOffline
	}
	return resp, OutcomeNetwork
}

// NetworkFirst always tries the network, storing a 200, and falls back to gen
// when the network fails.
func (s *Strategies) NetworkFirst(req *http.Request, gen cachestore.Generation) (*http.Response, Outcome) {
	resp, err := s.fetchAndStore(req, gen)
	if err == nil {
		return resp, OutcomeNetwork
	}
	s.logger().Warn("network request failed, using cache", slog.String("url", req.URL.String()), slog.Any("error", err))
	if cached := s.match(req, gen); cached != nil {
		return cached.Response(req), OutcomeFallback
	}
	return Offline(req, OfflineNoCacheText), OutcomeOffline
}

// StaleWhileRevalidate answers from gen immediately and refreshes the entry in
// the background. Without a cached copy it waits for the network.
func (s *Strategies) StaleWhileRevalidate(req *http.Request, gen cachestore.Generation) (*http.Response, Outcome) {
	if cached := s.match(req, gen); cached != nil {
		s.revalidate(req, gen)
		return cached.Response(req), OutcomeHit
	}
	resp, err := s.fetchAndStore(req, gen)
	if err != nil {
		s.logger().Warn("network request failed", slog.String("url", req.URL.String()), slog.Any("error", err))
		return Offline(req, OfflineText), OutcomeOffline
	}
	return resp, OutcomeNetwork
}

// revalidate refreshes gen from the network once per URL at a time. It
// outlives the request that triggered it.
func (s *Strategies) revalidate(req *http.Request, gen cachestore.Generation) {
	key := gen.Name() + " " + cacheKey(req.URL)
	bg := req.Clone(context.WithoutCancel(req.Context()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _, _ = s.group.Do(key, func() (interface{}, error) {
			resp, err := s.fetchAndStore(bg, gen)
			if err != nil {
				s.logger().Warn("revalidation failed", slog.String("url", bg.URL.String()), slog.Any("error", err))
				return nil, err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil
		})
	}()
}

// match returns the cached entry or nil. Storage errors count as a miss.
func (s *Strategies) match(req *http.Request, gen cachestore.Generation) *cachestore.Entry {
	e, err := gen.Match(req.Context(), cacheKey(req.URL))
	if err != nil {
		if !errors.Is(err, cachestore.ErrNotFound) {
			s.logger().Warn("cache match failed", slog.String("cache", gen.Name()), slog.Any("error", err))
		}
		return nil
	}
	return e
}

// fetchAndStore performs the network round trip. A 200 body is buffered and
// stored; any other status passes through untouched.
func (s *Strategies) fetchAndStore(req *http.Request, gen cachestore.Generation) (*http.Response, error) {
	resp, err := s.Next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := cachestore.NewEntry(cacheKey(req.URL), resp, body)
	if err := gen.Put(context.WithoutCancel(req.Context()), entry); err != nil {
		s.logger().Warn("cache put failed", slog.String("cache", gen.Name()), slog.String("url", entry.URL), slog.Any("error", err))
	}
	return resp, nil
}

func (s *Strategies) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
