package cachestore

import (
	"context"
	"io"
	"net/http"
	"testing"

	"ducktorrents/internal/testutil"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func() Storage {
	return map[string]func() Storage{
		"memory": func() Storage { return NewMemoryStorage() },
		"sql": func() Storage {
			db, err := testutil.NewInMemoryDB()
			require.NoError(t, err)
			return NewSQLStorage(db)
		},
	}
}

func entry(url, body string) *Entry {
	return &Entry{
		URL:    url,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/octet-stream"}},
		Body:   []byte(body),
	}
}

func TestStorage_Generations(t *testing.T) {
	for name, newStorage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStorage()

			_, err := s.Open(ctx, "ducktorrents-v1.0.0")
			require.NoError(t, err)
			_, err = s.Open(ctx, "ducktorrents-data-v1.0.0")
			require.NoError(t, err)
			// opening twice is idempotent
			_, err = s.Open(ctx, "ducktorrents-v1.0.0")
			require.NoError(t, err)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"ducktorrents-v1.0.0", "ducktorrents-data-v1.0.0"}, keys)

			ok, err := s.Has(ctx, "ducktorrents-v1.0.0")
			require.NoError(t, err)
			require.True(t, ok)

			deleted, err := s.Delete(ctx, "ducktorrents-v1.0.0")
			require.NoError(t, err)
			require.True(t, deleted)
			deleted, err = s.Delete(ctx, "ducktorrents-v1.0.0")
			require.NoError(t, err)
			require.False(t, deleted)

			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"ducktorrents-data-v1.0.0"}, keys)
		})
	}
}

func TestGeneration_PutMatchDelete(t *testing.T) {
	for name, newStorage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g, err := newStorage().Open(ctx, "static")
			require.NoError(t, err)

			_, err = g.Match(ctx, "http://localhost:8008/index.html")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, g.Put(ctx, entry("http://localhost:8008/index.html", "v1")))
			require.NoError(t, g.Put(ctx, entry("http://localhost:8008/style.css", "css")))
			require.NoError(t, g.Put(ctx, entry("http://localhost:8008/index.html", "v2")))

			got, err := g.Match(ctx, "http://localhost:8008/index.html")
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), got.Body)
			require.Equal(t, http.StatusOK, got.Status)
			require.Equal(t, "application/octet-stream", got.Header.Get("Content-Type"))

			keys, err := g.Keys(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"http://localhost:8008/index.html", "http://localhost:8008/style.css"}, keys)

			removed, err := g.Delete(ctx, "http://localhost:8008/style.css")
			require.NoError(t, err)
			require.True(t, removed)
			keys, err = g.Keys(ctx)
			require.NoError(t, err)
			require.Len(t, keys, 1)
		})
	}
}

func TestGeneration_DeletedRejectsWrites(t *testing.T) {
	for name, newStorage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStorage()
			g, err := s.Open(ctx, "data")
			require.NoError(t, err)
			require.NoError(t, g.Put(ctx, entry("http://localhost:8008/torrents.parquet", "old")))

			_, err = s.Delete(ctx, "data")
			require.NoError(t, err)

			require.ErrorIs(t, g.Put(ctx, entry("http://localhost:8008/torrents.parquet", "late")), ErrGenerationDeleted)
			_, err = g.Match(ctx, "http://localhost:8008/torrents.parquet")
			require.ErrorIs(t, err, ErrNotFound)

			ok, err := s.Has(ctx, "data")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestEntry_Response(t *testing.T) {
	e := entry("http://localhost:8008/lib/engine.wasm", "\x00asm")
	req, err := http.NewRequest(http.MethodGet, e.URL, nil)
	require.NoError(t, err)

	resp := e.Response(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "200 OK", resp.Status)
	require.Equal(t, int64(4), resp.ContentLength)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, e.Body, body)

	// the response is independent of the stored entry
	resp.Header.Set("X-Test", "1")
	require.Empty(t, e.Header.Get("X-Test"))
}
