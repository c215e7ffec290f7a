package telemetry

import (
	"errors"
	"fmt"
	"net"
)

// MaxDatagram is the largest UDP payload that fits a single IPv4 datagram.
const MaxDatagram = 65507

// ErrPayloadTooLarge means an encoded packet exceeds the sink's datagram
// limit. The frame is dropped; later frames are unaffected.
var ErrPayloadTooLarge = errors.New("telemetry: payload exceeds datagram limit")

// Sink delivers one pose packet per frame to an external consumer.
type Sink interface {
	Send(p *Packet) error
	Close() error
}

// UDPSink sends each packet as a single fire-and-forget datagram.
type UDPSink struct {
	conn  net.Conn
	limit int
}

// NewUDPSink dials the given host:port. A limit of 0 means MaxDatagram;
// constrained consumers can set it lower.
func NewUDPSink(addr string, limit int) (*UDPSink, error) {
	if limit <= 0 || limit > MaxDatagram {
		limit = MaxDatagram
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial telemetry target %s: %w", addr, err)
	}
	return &UDPSink{conn: conn, limit: limit}, nil
}

// Send encodes and transmits one packet.
func (s *UDPSink) Send(p *Packet) error {
	data, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode pose packet: %w", err)
	}
	if len(data) > s.limit {
		return fmt.Errorf("%w (%d > %d bytes)", ErrPayloadTooLarge, len(data), s.limit)
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send pose packet: %w", err)
	}
	return nil
}

func (s *UDPSink) Close() error {
	return s.conn.Close()
}
