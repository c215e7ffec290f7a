package servo

import (
	"fmt"
	"math"

	"github.com/ekvirika/MirrorMate/pkg/angles"
)

// Command is one actuator instruction: a channel and its target angle.
type Command struct {
	Channel int
	Angle   int
}

// Map applies a channel's linear calibration to a raw angle and clamps
// the result. Pure: no state, deterministic for fixed inputs. Not meant
// to be chained; its output lives in clamp space, not domain space.
func Map(angle float64, c Channel) float64 {
	raw := angle
	if c.Extension {
		raw = 180 - angle
	}
	out := (raw-c.DomainMin)*(c.ClampMax-c.ClampMin)/(c.DomainMax-c.DomainMin) + c.ClampMin
	return clamp(out, c.ClampMin, c.ClampMax)
}

// Mapper turns one frame's extracted angles into the per-channel command
// sequence, in table order, applying smoothing where configured.
type Mapper struct {
	channels []Channel
	state    *State
}

// NewMapper validates the calibration table up front; a bad table is a
// configuration error and never reaches frame processing.
func NewMapper(channels []Channel, state *State) (*Mapper, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if state == nil {
		state = NewState()
	}
	seen := make(map[int]bool, len(channels))
	for _, c := range channels {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("channel %d: duplicate ID", c.ID)
		}
		seen[c.ID] = true
	}
	return &Mapper{channels: channels, state: state}, nil
}

// Channels returns the table in emission order.
func (m *Mapper) Channels() []Channel {
	return m.channels
}

// State returns the smoothing state the mapper writes through.
func (m *Mapper) State() *State {
	return m.state
}

// MapAngles produces one Command per configured channel for a frame's
// angles. Identical angles and identical prior state reproduce identical
// output.
func (m *Mapper) MapAngles(a angles.Angles) []Command {
	out := make([]Command, 0, len(m.channels))
	for _, c := range m.channels {
		v := Map(m.inputValue(c, a), c)
		if c.Smooth {
			v = m.state.smooth(c, v)
		}
		out = append(out, Command{Channel: c.ID, Angle: int(math.Round(v))})
	}
	return out
}

// inputValue selects the extracted angle a channel consumes.
func (m *Mapper) inputValue(c Channel, a angles.Angles) float64 {
	switch c.Input {
	case InputThumb:
		return a.Fingers[angles.Thumb]
	case InputIndex:
		return a.Fingers[angles.Index]
	case InputMiddle:
		return a.Fingers[angles.Middle]
	case InputRing:
		return a.Fingers[angles.Ring]
	case InputPinky:
		return a.Fingers[angles.Pinky]
	case InputWrist:
		return a.Wrist
	default:
		// Unreachable after NewMapper validation; neutral keeps the
		// frame alive if it ever happens.
		return angles.Neutral
	}
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
