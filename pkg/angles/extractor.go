// Package angles extracts per-finger bend angles and overall wrist
// rotation from a hand frame. Angles are geometric quantities in degrees;
// turning them into servo values is the servo package's job.
package angles

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// Neutral is the angle reported when geometry degenerates (zero-length
// segments, missing data). It maps to a centered servo.
const Neutral = 90.0

// minSegment is the magnitude below which a segment vector counts as
// degenerate.
const minSegment = 1e-9

// Convention selects which finger-segment pair defines the bend angle.
// Both appear in deployed trackers; the tip form is what drove hardware.
type Convention string

const (
	// ConventionTip measures between the base->mid and mid->tip segments.
	ConventionTip Convention = "tip"
	// ConventionDIP measures between the base->mid and mid->DIP segments
	// (mid->IP for the thumb).
	ConventionDIP Convention = "dip"
)

// Finger indexes the five digits in channel-table order.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// String returns the lowercase finger name.
func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	default:
		return fmt.Sprintf("finger(%d)", int(f))
	}
}

// triple names the joints whose two segments define a finger's bend.
type triple struct {
	base, mid, end hand.JointID
}

// The thumb has no PIP/DIP; its triple runs CMC->MCP->TIP (or ->IP).
var tipTriples = [NumFingers]triple{
	{hand.ThumbCMC, hand.ThumbMCP, hand.ThumbTip},
	{hand.IndexMCP, hand.IndexPIP, hand.IndexTip},
	{hand.MiddleMCP, hand.MiddlePIP, hand.MiddleTip},
	{hand.RingMCP, hand.RingPIP, hand.RingTip},
	{hand.PinkyMCP, hand.PinkyPIP, hand.PinkyTip},
}

var dipTriples = [NumFingers]triple{
	{hand.ThumbCMC, hand.ThumbMCP, hand.ThumbIP},
	{hand.IndexMCP, hand.IndexPIP, hand.IndexDIP},
	{hand.MiddleMCP, hand.MiddlePIP, hand.MiddleDIP},
	{hand.RingMCP, hand.RingPIP, hand.RingDIP},
	{hand.PinkyMCP, hand.PinkyPIP, hand.PinkyDIP},
}

// Config holds the extractor tunables.
type Config struct {
	// Convention picks the finger-segment pair (tip or dip).
	Convention Convention
	// RotationMin and RotationMax bound the natural wrist-rotation range
	// (degrees from vertical) that maps linearly onto 0..180.
	RotationMin float64
	RotationMax float64
	// DeadZone snaps the mapped rotation to 90 when within this many
	// degrees of center, suppressing jitter from a stationary hand.
	DeadZone float64
}

// DefaultConfig returns the extractor configuration observed on hardware.
func DefaultConfig() Config {
	return Config{
		Convention:  ConventionTip,
		RotationMin: -60,
		RotationMax: 60,
		DeadZone:    5,
	}
}

// Angles is one frame's extracted values, in degrees. Finger entries are
// bend angles (0 = straight, 180 = fully folded); Wrist is the mapped
// rotation in [0,180] with 90 centered.
type Angles struct {
	Fingers [NumFingers]float64
	Wrist   float64
}

// Extractor computes angles for hand frames under a fixed configuration.
type Extractor struct {
	cfg     Config
	triples [NumFingers]triple
}

// New builds an extractor. The convention must be known; an invalid
// rotation domain (min == max) is rejected here because it would divide
// by zero in the rotation map.
func New(cfg Config) (*Extractor, error) {
	e := &Extractor{cfg: cfg}
	switch cfg.Convention {
	case ConventionTip:
		e.triples = tipTriples
	case ConventionDIP:
		e.triples = dipTriples
	default:
		return nil, fmt.Errorf("unknown bend convention %q", cfg.Convention)
	}
	if cfg.RotationMin == cfg.RotationMax {
		return nil, fmt.Errorf("rotation domain is empty: min == max == %v", cfg.RotationMin)
	}
	return e, nil
}

// Extract computes all finger bends plus the wrist rotation for a frame.
func (e *Extractor) Extract(f *hand.Frame) Angles {
	var a Angles
	for finger := Thumb; finger < NumFingers; finger++ {
		a.Fingers[finger] = e.FingerBend(f, finger)
	}
	a.Wrist = e.WristRotation(f)
	return a
}

// FingerBend returns the bend angle of one finger in degrees: the angle
// between its two segment vectors, 0 when straight. Degenerate segments
// yield Neutral.
func (e *Extractor) FingerBend(f *hand.Frame, finger Finger) float64 {
	if finger < 0 || finger >= NumFingers {
		return Neutral
	}
	tr := e.triples[finger]
	v1 := r3.Sub(f.At(tr.mid), f.At(tr.base))
	v2 := r3.Sub(f.At(tr.end), f.At(tr.mid))
	return segmentAngle(v1, v2)
}

// WristRotation returns the hand's rotation mapped onto [0,180]. The palm
// center is the mean of the four finger MCPs; the wrist-to-palm vector is
// measured against vertical in image space (y grows downward), mapped
// from the configured natural domain, clamped, and dead-zoned around 90.
func (e *Extractor) WristRotation(f *hand.Frame) float64 {
	wrist := f.WristPos()
	palm := palmCenter(f)

	dx := palm.X - wrist.X
	dy := palm.Y - wrist.Y
	deg := math.Atan2(dx, -dy) * 180 / math.Pi

	mapped := (deg - e.cfg.RotationMin) * 180 / (e.cfg.RotationMax - e.cfg.RotationMin)
	mapped = clamp(mapped, 0, 180)

	if math.Abs(mapped-Neutral) < e.cfg.DeadZone {
		return Neutral
	}
	return mapped
}

// palmCenter averages the index/middle/ring/pinky MCP positions.
func palmCenter(f *hand.Frame) r3.Vec {
	sum := r3.Add(
		r3.Add(f.At(hand.IndexMCP), f.At(hand.MiddleMCP)),
		r3.Add(f.At(hand.RingMCP), f.At(hand.PinkyMCP)),
	)
	return r3.Scale(0.25, sum)
}

// segmentAngle returns the angle between two vectors in degrees, with the
// cosine clamped to [-1,1] against floating-point drift.
func segmentAngle(v1, v2 r3.Vec) float64 {
	m1 := r3.Norm(v1)
	m2 := r3.Norm(v2)
	if m1 < minSegment || m2 < minSegment {
		return Neutral
	}
	cos := clamp(r3.Dot(v1, v2)/(m1*m2), -1, 1)
	return math.Acos(cos) * 180 / math.Pi
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
