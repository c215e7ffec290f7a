package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// WSSource dials a pose-estimator WebSocket endpoint and reads JSON text
// messages, one capture per message. A pump goroutine owns all reads
// because gorilla read errors are permanent; Next consumes from a
// single-slot channel, so a slow consumer sees the freshest frame and
// stale ones are dropped.
type WSSource struct {
	conn      *websocket.Conn
	frames    chan hand.Capture
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSSource connects to the given ws:// or wss:// URL.
func NewWSSource(url string) (*WSSource, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pose source %s: %w", url, err)
	}
	log.Info("pose source connected", "url", url)

	s := &WSSource{
		conn:   conn,
		frames: make(chan hand.Capture, 1),
		done:   make(chan struct{}),
	}
	go s.readPump()
	return s, nil
}

func (s *WSSource) readPump() {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		c, _, err := Decode(data)
		if err != nil {
			log.Debug("skipping unparseable message", "error", err)
			continue
		}
		select {
		case s.frames <- c:
		default:
			// Slot is full; replace the parked frame so Next reads the
			// freshest capture.
			select {
			case <-s.frames:
			default:
			}
			select {
			case s.frames <- c:
			default:
			}
		}
	}
}

// Next blocks until a capture arrives, the connection ends, or ctx is done.
func (s *WSSource) Next(ctx context.Context) (hand.Capture, error) {
	select {
	case c := <-s.frames:
		return c, nil
	case <-s.done:
		// The pump may have parked one last frame before exiting.
		select {
		case c := <-s.frames:
			return c, nil
		default:
		}
		return hand.Capture{}, ErrSourceClosed
	case <-ctx.Done():
		return hand.Capture{}, ctx.Err()
	}
}

// Close closes the connection; a blocked Next returns ErrSourceClosed.
func (s *WSSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
