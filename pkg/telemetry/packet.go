// Package telemetry defines the JSON pose packet emitted once per frame and
// the sinks that carry it to external consumers (UDP, OSC, the dashboard hub).
// The format is shared between mirrormate (producer) and posewatch/handsim
// (consumers), so the decoder lives here too.
package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// Landmark is one joint on the wire.
type Landmark struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
}

// HandData is one tracked hand with its full joint list, canonical joints
// 0-20 first, synthesized forearm joints 21-24 after.
type HandData struct {
	Type      string     `json:"hand_type"`
	Timestamp float64    `json:"timestamp"`
	Landmarks []Landmark `json:"landmarks"`
}

// Packet is the per-frame telemetry message.
type Packet struct {
	Timestamp float64    `json:"timestamp"`
	Hands     []HandData `json:"hands"`
}

// Encode converts a scene into a wire packet. A hand whose joint list is not
// the full in-order set is omitted rather than emitted truncated; the
// returned error reports how many were dropped. The packet is valid either
// way, so callers can log the error and still send it.
func Encode(scene hand.Scene) (*Packet, error) {
	p := &Packet{
		Timestamp: scene.Timestamp,
		Hands:     make([]HandData, 0, len(scene.Hands)),
	}

	omitted := 0
	var firstErr error
	for i := range scene.Hands {
		hd, err := encodeHand(&scene.Hands[i])
		if err != nil {
			omitted++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.Hands = append(p.Hands, hd)
	}

	if omitted > 0 {
		return p, fmt.Errorf("omitted %d of %d hands: %w", omitted, len(scene.Hands), firstErr)
	}
	return p, nil
}

func encodeHand(e *hand.Extended) (HandData, error) {
	joints := e.AllJoints()
	hd := HandData{
		Type:      string(e.Handedness),
		Timestamp: e.Timestamp,
		Landmarks: make([]Landmark, 0, len(joints)),
	}
	for i, j := range joints {
		if j.ID != hand.JointID(i) {
			return HandData{}, fmt.Errorf("%s hand: joint %d has ID %d", e.Handedness, i, int(j.ID))
		}
		hd.Landmarks = append(hd.Landmarks, Landmark{
			ID:       int(j.ID),
			Name:     j.ID.Name(),
			Position: [3]float64{j.Pos.X, j.Pos.Y, j.Pos.Z},
		})
	}
	return hd, nil
}

// Bytes returns the JSON-encoded packet.
func (p *Packet) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// ParsePacket parses a JSON pose packet. It is lenient about shape: a
// missing or empty "hands" field is a valid zero-hand frame, and hands may
// carry 21 or 25 landmarks depending on whether the sender synthesizes the
// forearm. Strict per-hand validation is the ingest boundary's job.
func ParsePacket(data []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pose packet: %w", err)
	}
	if p.Hands == nil {
		p.Hands = []HandData{}
	}
	return &p, nil
}
