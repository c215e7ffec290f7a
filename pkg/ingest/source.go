// Package ingest is the boundary where external pose data becomes typed
// frames. Sources read raw packets from UDP, a byte stream, or a WebSocket
// endpoint; validation happens here so downstream stages never see a
// malformed hand.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// ErrSourceClosed is returned by Next once a source has been closed or its
// underlying stream has ended.
var ErrSourceClosed = errors.New("ingest: source closed")

// Source supplies captures to the pipeline.
type Source interface {
	// Next blocks until a frame arrives, the source closes, or ctx is
	// done. Malformed hands are already dropped from the returned capture.
	Next(ctx context.Context) (hand.Capture, error)
	Close() error
}

// Decode parses a telemetry-format payload into a validated capture. Hands
// failing validation are dropped and counted; the capture survives with
// whatever remains, possibly zero hands.
func Decode(data []byte) (hand.Capture, int, error) {
	p, err := telemetry.ParsePacket(data)
	if err != nil {
		return hand.Capture{}, 0, err
	}

	c := hand.Capture{
		Timestamp: p.Timestamp,
		Hands:     make([]hand.Frame, 0, len(p.Hands)),
	}
	dropped := 0
	for i := range p.Hands {
		f, err := convertHand(&p.Hands[i])
		if err != nil {
			dropped++
			log.Debug("dropped malformed hand", "index", i, "error", err)
			continue
		}
		c.Hands = append(c.Hands, *f)
	}
	return c, dropped, nil
}

// convertHand turns wire-format hand data into a frame. Joint IDs are
// authoritative: names on the wire are ignored and later regenerated from
// the canonical table. Synthesized joints 21-24 are dropped since they are
// recomputed downstream; the canonical 21 must each appear exactly once.
func convertHand(hd *telemetry.HandData) (*hand.Frame, error) {
	var joints [hand.NumCanonical]hand.Joint
	var seen [hand.NumCanonical]bool
	for _, lm := range hd.Landmarks {
		id := hand.JointID(lm.ID)
		if id.Synthesized() {
			continue
		}
		if !id.Canonical() {
			return nil, fmt.Errorf("joint ID %d out of range", lm.ID)
		}
		if seen[lm.ID] {
			return nil, fmt.Errorf("duplicate joint ID %d", lm.ID)
		}
		seen[lm.ID] = true
		joints[lm.ID] = hand.Joint{
			ID:  id,
			Pos: r3.Vec{X: lm.Position[0], Y: lm.Position[1], Z: lm.Position[2]},
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing joint %s", hand.JointID(i).Name())
		}
	}
	return hand.NewFrame(hand.ParseHandedness(hd.Type), joints[:], hd.Timestamp)
}
