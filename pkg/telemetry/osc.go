package telemetry

import (
	"fmt"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// OSCSink re-expresses each packet as an OSC bundle for creative runtimes
// (TouchDesigner, Max/MSP, VRChat-style consumers). Per joint one message
// /mirrormate/hand/<index>/<jointName> with float32 x, y, z, plus a
// /mirrormate/hand/<index>/type message carrying the handedness string.
type OSCSink struct {
	client *osc.Client
}

// NewOSCSink creates a sink targeting the given OSC endpoint.
func NewOSCSink(host string, port int) *OSCSink {
	return &OSCSink{client: osc.NewClient(host, port)}
}

// Send transmits one packet as a single bundle.
func (s *OSCSink) Send(p *Packet) error {
	b, err := bundle(p)
	if err != nil {
		return err
	}
	if err := s.client.Send(b); err != nil {
		return fmt.Errorf("failed to send OSC bundle: %w", err)
	}
	return nil
}

func (s *OSCSink) Close() error {
	return nil
}

// bundle builds the OSC bundle for a packet. Split out so the address
// layout is testable without a live endpoint.
func bundle(p *Packet) (*osc.Bundle, error) {
	b := osc.NewBundle(time.Now())
	for i, h := range p.Hands {
		typeMsg := osc.NewMessage(fmt.Sprintf("/mirrormate/hand/%d/type", i))
		typeMsg.Append(h.Type)
		if err := b.Append(typeMsg); err != nil {
			return nil, fmt.Errorf("failed to build OSC bundle: %w", err)
		}
		for _, lm := range h.Landmarks {
			msg := osc.NewMessage(fmt.Sprintf("/mirrormate/hand/%d/%s", i, lm.Name))
			msg.Append(float32(lm.Position[0]))
			msg.Append(float32(lm.Position[1]))
			msg.Append(float32(lm.Position[2]))
			if err := b.Append(msg); err != nil {
				return nil, fmt.Errorf("failed to build OSC bundle: %w", err)
			}
		}
	}
	return b, nil
}
