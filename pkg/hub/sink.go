package hub

import (
	"fmt"

	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// Sink adapts a Hub to the telemetry fan-out so pose packets reach
// websocket viewers alongside UDP and OSC consumers.
type Sink struct {
	hub *Hub
}

// NewSink wraps a hub for use as a telemetry sink.
func NewSink(h *Hub) *Sink {
	return &Sink{hub: h}
}

// Send encodes the packet and broadcasts it to every viewer.
func (s *Sink) Send(p *telemetry.Packet) error {
	data, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode pose packet: %w", err)
	}
	s.hub.Broadcast(data)
	return nil
}

// Close is a no-op; the hub's lifetime belongs to whoever runs it.
func (s *Sink) Close() error {
	return nil
}
