package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Subscriber keeps a websocket open to the server and hands every event to
// OnEvent. Losing the connection and getting it back is reported through
// OnConnect with reconnect set, which is when connectivity has returned.
type Subscriber struct {
	URL       string
	Header    http.Header
	Dialer    *websocket.Dialer
	OnEvent   func(Event)
	OnConnect func(reconnect bool)
	// Backoff is the wait between connection attempts.
	Backoff time.Duration
	Logger  *slog.Logger
}

// Run connects and reads events until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	connected := false
	for {
		conn, _, err := dialer.DialContext(ctx, s.URL, s.Header)
		if err == nil {
			if s.OnConnect != nil {
				s.OnConnect(connected)
			}
			connected = true
			err = s.read(ctx, conn)
			logger.Info("event stream disconnected", slog.String("url", s.URL), slog.Any("error", err))
		} else if ctx.Err() == nil {
			logger.Debug("event stream unavailable", slog.String("url", s.URL), slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (s *Subscriber) read(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		ev, err := DecodeEvent(data)
		if err != nil || ev.Type == "" {
			continue
		}
		if s.OnEvent != nil {
			s.OnEvent(ev)
		}
	}
}
