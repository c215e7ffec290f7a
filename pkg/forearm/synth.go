// Package forearm synthesizes elbow and intermediate forearm points from
// wrist and palm geometry. Hand trackers stop at the wrist; downstream
// consumers want an arm, so four extension joints (IDs 21-24) are
// extrapolated fresh every frame.
package forearm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// Policy selects how far the synthesized elbow sits from the wrist.
type Policy string

const (
	// PolicyOrientation scales the forearm by hand orientation: shorter
	// when the hand points vertically, longer when horizontal.
	PolicyOrientation Policy = "orientation"
	// PolicyFixed places each point at a fixed distance from the wrist.
	PolicyFixed Policy = "fixed"
)

// minDirection is the averaged-direction magnitude below which the hand
// counts as perfectly foreshortened.
const minDirection = 1e-9

// pointFractions ties each synthesized joint to its position along the
// wrist-elbow segment: elbow, mid, quarter, three-quarter. Depth offsets
// scale by the same fractions in both policies.
var pointFractions = [4]float64{1.0, 0.5, 0.25, 0.75}

var pointIDs = [4]hand.JointID{hand.Elbow, hand.ForearmMid, hand.ForearmQuarter, hand.ForearmThreeQuarter}

// Config holds the synthesizer tunables.
type Config struct {
	Policy Policy
	// DepthOffset pulls the elbow toward the camera relative to the
	// wrist, in normalized depth units.
	DepthOffset float64
	// VerticalFactor and HorizontalFactor are the elbow distances used
	// by the orientation policy.
	VerticalFactor   float64
	HorizontalFactor float64
	// FixedDistances are the per-point distances used by the fixed
	// policy, in pointFractions order.
	FixedDistances [4]float64
}

// DefaultConfig returns the synthesizer configuration observed in
// deployed trackers.
func DefaultConfig() Config {
	return Config{
		Policy:           PolicyOrientation,
		DepthOffset:      0.1,
		VerticalFactor:   0.5,
		HorizontalFactor: 0.7,
		FixedDistances:   [4]float64{0.8, 0.6, 0.4, 0.2},
	}
}

// Synthesizer extrapolates forearm points under a fixed configuration.
type Synthesizer struct {
	cfg Config
}

// New validates the configuration; geometry errors here would otherwise
// surface as NaN positions mid-stream.
func New(cfg Config) (*Synthesizer, error) {
	switch cfg.Policy {
	case PolicyOrientation, PolicyFixed:
	default:
		return nil, fmt.Errorf("unknown forearm policy %q", cfg.Policy)
	}
	if cfg.DepthOffset < 0 {
		return nil, fmt.Errorf("negative depth offset %v", cfg.DepthOffset)
	}
	if cfg.VerticalFactor <= 0 || cfg.HorizontalFactor <= 0 {
		return nil, fmt.Errorf("length factors must be positive, got %v and %v", cfg.VerticalFactor, cfg.HorizontalFactor)
	}
	for i, d := range cfg.FixedDistances {
		if d <= 0 {
			return nil, fmt.Errorf("fixed distance %d must be positive, got %v", i, d)
		}
	}
	return &Synthesizer{cfg: cfg}, nil
}

// Synthesize returns the four forearm joints for a hand, IDs 21-24 in
// order. The reference direction averages the image-plane vectors from
// the index, middle, and pinky MCPs to the wrist, which stays stable
// when a single finger drops out. A perfectly foreshortened hand
// (near-zero direction) collapses all four points onto the wrist.
func (s *Synthesizer) Synthesize(f *hand.Frame) [4]hand.Joint {
	wrist := f.WristPos()

	dir := r3.Vec{}
	for _, id := range []hand.JointID{hand.IndexMCP, hand.MiddleMCP, hand.PinkyMCP} {
		dir = r3.Add(dir, r3.Sub(wrist, f.At(id)))
	}
	dir = r3.Scale(1.0/3.0, dir)
	dir.Z = 0 // direction lives in the image plane; depth is modeled separately

	var out [4]hand.Joint
	mag := r3.Norm(dir)
	if mag < minDirection {
		for i, id := range pointIDs {
			out[i] = hand.Joint{ID: id, Pos: wrist}
		}
		return out
	}
	unit := r3.Scale(1/mag, dir)

	elbowDist := s.elbowDistance(dir)
	for i, id := range pointIDs {
		dist := elbowDist * pointFractions[i]
		if s.cfg.Policy == PolicyFixed {
			dist = s.cfg.FixedDistances[i]
		}
		pos := r3.Add(wrist, r3.Scale(dist, unit))
		pos.Z = wrist.Z - s.cfg.DepthOffset*pointFractions[i]
		out[i] = hand.Joint{ID: id, Pos: pos}
	}
	return out
}

// Extend wraps a frame with its synthesized forearm.
func (s *Synthesizer) Extend(f *hand.Frame) hand.Extended {
	return hand.Extended{Frame: *f, Forearm: s.Synthesize(f)}
}

// elbowDistance picks the orientation-policy length factor: hands
// pointing more vertical than horizontal get the shorter forearm.
func (s *Synthesizer) elbowDistance(dir r3.Vec) float64 {
	dx := dir.X
	if dx == 0 {
		dx = 0.001
	}
	if math.Abs(dir.Y/dx) > 1 {
		return s.cfg.VerticalFactor
	}
	return s.cfg.HorizontalFactor
}
