// Package cachestore keeps named cache generations of request -> response pairs.
package cachestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrNotFound          = errors.New("cache entry not found")
	ErrGenerationDeleted = errors.New("cache generation was deleted")
)

// Storage is the set of cache generations, addressed by name.
// Every operation is atomic on its own; callers need no extra locking.
type Storage interface {
	// Open returns the named generation, creating it when missing.
	Open(ctx context.Context, name string) (Generation, error)
	Has(ctx context.Context, name string) (bool, error)
	// Delete removes the generation and all its entries. Handles opened
	// earlier stop accepting writes.
	Delete(ctx context.Context, name string) (bool, error)
	// Keys lists generation names in creation order.
	Keys(ctx context.Context) ([]string, error)
}

// Generation is one named store of responses keyed by URL.
type Generation interface {
	Name() string
	// Match returns the stored entry for url or ErrNotFound.
	Match(ctx context.Context, url string) (*Entry, error)
	// Put stores e, replacing any entry with the same URL.
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, url string) (bool, error)
	// Keys lists stored URLs in insertion order.
	Keys(ctx context.Context) ([]string, error)
}

// Entry is a stored response.
type Entry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// NewEntry captures resp with an already read body.
func NewEntry(url string, resp *http.Response, body []byte) *Entry {
	return &Entry{
		URL:      url,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     append([]byte(nil), body...),
		StoredAt: time.Now(),
	}
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = append([]byte(nil), e.Body...)
	return &c
}

// Response builds a fresh *http.Response for req from the stored entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
