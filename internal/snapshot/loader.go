package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"ducktorrents/internal/models"
)

// Loader fetches the snapshot through an HTTP client, preferring the columnar
// file and falling back to the delimited one.
type Loader struct {
	Client   *http.Client
	BaseURL  *url.URL
	Primary  string
	Fallback string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Result is a decoded snapshot and where it came from.
type Result struct {
	Rows   []models.Torrent
	URL    string
	Format Format
}

// Load fetches and decodes the snapshot. Failing both files is fatal for the
// session and reported as ErrInitFailed.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, primaryErr := l.fetch(ctx, l.Primary)
	if primaryErr == nil {
		return res, nil
	}
	logger.Warn("snapshot load failed", slog.String("path", l.Primary), slog.Any("error", primaryErr))

	if l.Fallback == "" {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, primaryErr)
	}
	res, fallbackErr := l.fetch(ctx, l.Fallback)
	if fallbackErr != nil {
		logger.Error("snapshot fallback failed", slog.String("path", l.Fallback), slog.Any("error", fallbackErr))
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, errors.Join(primaryErr, fallbackErr))
	}
	return res, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) (*Result, error) {
	u, err := l.BaseURL.Parse(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	rows, err := Decode(u.Path, data)
	if err != nil {
		return nil, err
	}
	format, _ := FormatOf(u.Path)
	return &Result{Rows: rows, URL: u.String(), Format: format}, nil
}
