// Package watcher announces replaced snapshot files to connected clients.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"ducktorrents/internal/metrics"
	"ducktorrents/internal/realtime"
	"ducktorrents/internal/snapshot"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a file must stay quiet before it is announced.
const DefaultDelay = 300 * time.Millisecond

// Publisher delivers events to clients; *realtime.Hub implements it.
type Publisher interface {
	Publish(ev realtime.Event) (int, error)
}

// Watcher watches a snapshot directory and publishes one snapshot_updated
// event per file once writes to it have settled.
type Watcher struct {
	dir   string
	delay time.Duration
	pub   Publisher
	fsw   *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New starts watching dir.
func New(dir string, pub Publisher, delay time.Duration) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{dir: dir, delay: delay, pub: pub, fsw: fsw, timers: make(map[string]*time.Timer)}, nil
}

// Run handles file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !snapshot.IsSnapshotPath(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule(filepath.Base(event.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("snapshot watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// schedule restarts the quiet period of name.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()
		w.announce(name)
	})
}

func (w *Watcher) announce(name string) {
	sent, err := w.pub.Publish(realtime.SnapshotUpdated(name))
	if err != nil {
		log.Printf("failed to publish update of %s: %v", name, err)
		return
	}
	metrics.SnapshotBroadcasts.Inc()
	log.Printf("snapshot %s updated, notified %d clients", name, sent)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
}
