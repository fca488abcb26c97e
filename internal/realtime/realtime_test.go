package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu   sync.Mutex
	msgs [][]byte
	fail bool
}

func (c *fakeClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false
	}
	c.msgs = append(c.msgs, message)
	return true
}

func (c *fakeClient) Close() {}

func TestHub_PublishReachesEveryClient(t *testing.T) {
	hub := NewHub()
	a, b, broken := &fakeClient{}, &fakeClient{}, &fakeClient{fail: true}
	hub.Register("a", a)
	hub.Register("b", b)
	hub.Register("broken", broken)
	require.Equal(t, 3, hub.Count())

	sent, err := hub.Publish(SnapshotUpdated("torrents.parquet"))
	require.NoError(t, err)
	require.Equal(t, 2, sent)

	ev, err := DecodeEvent(a.msgs[0])
	require.NoError(t, err)
	require.Equal(t, EventSnapshotUpdated, ev.Type)
	require.Equal(t, "torrents.parquet", ev.File)
	require.Len(t, b.msgs, 1)

	hub.Unregister("a")
	hub.Unregister("broken")
	sent, err = hub.Publish(SnapshotUpdated("torrents.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, a.msgs, 1)
}

func TestSubscriber_ReceivesEventsAndReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	accepted := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		accepted++
		n := accepted
		mu.Unlock()

		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot_updated","file":"torrents.parquet"}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
			// drop the connection to force a reconnect
			_ = conn.Close()
			return
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	var (
		evMu     sync.Mutex
		events   []Event
		connects []bool
	)
	sub := &Subscriber{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Backoff: 10 * time.Millisecond,
		OnEvent: func(ev Event) {
			evMu.Lock()
			events = append(events, ev)
			evMu.Unlock()
		},
		OnConnect: func(reconnect bool) {
			evMu.Lock()
			connects = append(connects, reconnect)
			evMu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool {
		evMu.Lock()
		defer evMu.Unlock()
		return len(connects) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	evMu.Lock()
	defer evMu.Unlock()
	require.Equal(t, []bool{false, true}, connects[:2])
	require.Len(t, events, 1)
	require.Equal(t, "torrents.parquet", events[0].File)
}
