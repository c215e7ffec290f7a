package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// pollInterval bounds how long a UDP read can outlive a cancelled context.
const pollInterval = 500 * time.Millisecond

// UDPSource listens for telemetry-format JSON datagrams, one capture per
// datagram. This is the default ingest path for estimators running as a
// separate process or on another machine.
type UDPSource struct {
	conn net.PacketConn
	buf  []byte
}

// NewUDPSource binds the listener. addr is host:port; an empty host binds
// all interfaces.
func NewUDPSource(addr string) (*UDPSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Info("pose ingest listening", "addr", conn.LocalAddr().String())
	return &UDPSource{conn: conn, buf: make([]byte, telemetry.MaxDatagram)}, nil
}

// Addr returns the bound listen address.
func (s *UDPSource) Addr() string {
	return s.conn.LocalAddr().String()
}

// Next blocks until a parseable datagram arrives. Unparseable datagrams
// are skipped; cancellation is honored within pollInterval.
func (s *UDPSource) Next(ctx context.Context) (hand.Capture, error) {
	for {
		if err := ctx.Err(); err != nil {
			return hand.Capture{}, err
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return hand.Capture{}, fmt.Errorf("failed to arm read deadline: %w", err)
		}
		n, _, err := s.conn.ReadFrom(s.buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return hand.Capture{}, ErrSourceClosed
			}
			return hand.Capture{}, fmt.Errorf("failed to read datagram: %w", err)
		}

		c, _, err := Decode(s.buf[:n])
		if err != nil {
			log.Debug("skipping unparseable datagram", "bytes", n, "error", err)
			continue
		}
		return c, nil
	}
}

// Close stops the listener; a blocked Next returns ErrSourceClosed.
func (s *UDPSource) Close() error {
	return s.conn.Close()
}
