package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ducktorrents/internal/realtime"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(ev realtime.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1, nil
}

func (r *recorder) get() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

func TestWatcher_AnnouncesSettledSnapshot(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(dir, rec, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := filepath.Join(dir, "torrents.parquet")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	events := rec.get()
	require.Len(t, events, 1)
	require.Equal(t, realtime.EventSnapshotUpdated, events[0].Type)
	require.Equal(t, "torrents.parquet", events[0].File)
}
