// Package servo converts extracted hand angles into actuator channel
// commands: per-channel linear calibration with inverted-domain support,
// optional exponential smoothing, and the session-scoped smoothing state.
package servo

import (
	"fmt"
	"time"
)

// Input names the extracted angle a channel consumes.
type Input string

const (
	InputThumb  Input = "thumb"
	InputIndex  Input = "index"
	InputMiddle Input = "middle"
	InputRing   Input = "ring"
	InputPinky  Input = "pinky"
	InputWrist  Input = "wrist"
)

// Channel is the calibration for one actuator degree of freedom. The
// domain is the raw-angle interval from fully extended to fully bent and
// may be inverted (DomainMin > DomainMax) to express "more bend = lower
// output". Channels calibrated on hardware against the extension angle
// (180 minus bend) set Extension; the wrist consumes its rotation value
// directly.
type Channel struct {
	ID        int
	Input     Input
	DomainMin float64
	DomainMax float64
	ClampMin  float64
	ClampMax  float64
	Extension bool
	Smooth    bool
	Alpha     float64
	Delay     time.Duration
}

// Validate rejects calibrations that would corrupt the pipeline
// mid-stream: empty domains divide by zero, clamps outside the servo's
// 0-180 travel produce impossible commands.
func (c Channel) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("channel %d: negative ID", c.ID)
	}
	switch c.Input {
	case InputThumb, InputIndex, InputMiddle, InputRing, InputPinky, InputWrist:
	default:
		return fmt.Errorf("channel %d: unknown input %q", c.ID, c.Input)
	}
	if c.DomainMin == c.DomainMax {
		return fmt.Errorf("channel %d: empty domain [%v,%v]", c.ID, c.DomainMin, c.DomainMax)
	}
	if c.ClampMin < 0 || c.ClampMax > 180 || c.ClampMin >= c.ClampMax {
		return fmt.Errorf("channel %d: invalid clamp [%v,%v]", c.ID, c.ClampMin, c.ClampMax)
	}
	if c.Smooth && (c.Alpha < 0 || c.Alpha > 1) {
		return fmt.Errorf("channel %d: alpha %v outside [0,1]", c.ID, c.Alpha)
	}
	if c.Delay < 0 {
		return fmt.Errorf("channel %d: negative delay %v", c.ID, c.Delay)
	}
	return nil
}

// DefaultChannels returns the calibration table observed on the InMoov
// rig, in emission order. Finger domains were measured on the extension
// angle; the asymmetric ring clamp floor protects its linkage.
func DefaultChannels() []Channel {
	return []Channel{
		{ID: 3, Input: InputThumb, DomainMin: 170, DomainMax: 120, ClampMin: 0, ClampMax: 180, Extension: true, Delay: 20 * time.Millisecond},
		{ID: 1, Input: InputIndex, DomainMin: 180, DomainMax: 30, ClampMin: 0, ClampMax: 180, Extension: true, Delay: 10 * time.Millisecond},
		{ID: 2, Input: InputMiddle, DomainMin: 180, DomainMax: 30, ClampMin: 0, ClampMax: 180, Extension: true, Delay: 10 * time.Millisecond},
		{ID: 4, Input: InputRing, DomainMin: 180, DomainMax: 20, ClampMin: 30, ClampMax: 180, Extension: true, Delay: 10 * time.Millisecond},
		{ID: 5, Input: InputPinky, DomainMin: 175, DomainMax: 20, ClampMin: 0, ClampMax: 180, Extension: true, Delay: 20 * time.Millisecond},
		{ID: 6, Input: InputWrist, DomainMin: 70, DomainMax: 110, ClampMin: 0, ClampMax: 180, Smooth: true, Alpha: 0.3, Delay: 30 * time.Millisecond},
	}
}
