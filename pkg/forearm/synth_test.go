package forearm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// frameWith builds a frame with the wrist and MCPs a test cares about;
// remaining joints sit at a harmless offset.
func frameWith(t *testing.T, overrides map[hand.JointID]r3.Vec) *hand.Frame {
	t.Helper()
	joints := make([]hand.Joint, hand.NumCanonical)
	for i := range joints {
		joints[i] = hand.Joint{ID: hand.JointID(i), Pos: r3.Vec{X: 0.45, Y: 0.45, Z: 0}}
	}
	for id, pos := range overrides {
		joints[id].Pos = pos
	}
	f, err := hand.NewFrame(hand.Right, joints, 0)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return f
}

func newSynth(t *testing.T, cfg Config) *Synthesizer {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown policy", func(c *Config) { c.Policy = "dynamic" }},
		{"negative depth offset", func(c *Config) { c.DepthOffset = -0.1 }},
		{"zero vertical factor", func(c *Config) { c.VerticalFactor = 0 }},
		{"zero fixed distance", func(c *Config) { c.FixedDistances[2] = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := New(cfg); err == nil {
				t.Errorf("New(%s) should fail", tt.name)
			}
		})
	}
}

func TestSynthesize_IDsAndNames(t *testing.T) {
	s := newSynth(t, DefaultConfig())
	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist: {X: 0.5, Y: 0.8},
	})

	got := s.Synthesize(f)
	wantNames := []string{"ELBOW", "FOREARM_MID", "FOREARM_QUARTER", "FOREARM_THREE_QUARTER"}
	for i, j := range got {
		if j.ID != hand.JointID(hand.NumCanonical+i) {
			t.Errorf("joint %d ID = %d, want %d", i, int(j.ID), hand.NumCanonical+i)
		}
		if j.ID.Name() != wantNames[i] {
			t.Errorf("joint %d name = %q, want %q", i, j.ID.Name(), wantNames[i])
		}
	}
}

func TestSynthesize_ElbowOppositeRay(t *testing.T) {
	s := newSynth(t, DefaultConfig())
	// Wrist at the origin, MCPs symmetric about the vertical axis and
	// above it (image y up is negative): the averaged MCP direction is
	// straight up, so the elbow extends straight down at the vertical
	// length factor.
	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist:     {},
		hand.IndexMCP:  {X: -0.1, Y: -0.2},
		hand.MiddleMCP: {X: 0, Y: -0.25},
		hand.PinkyMCP:  {X: 0.1, Y: -0.2},
	})

	got := s.Synthesize(f)
	elbow := got[0].Pos
	if !floatEquals(elbow.X, 0) {
		t.Errorf("elbow X = %v, want 0", elbow.X)
	}
	if !floatEquals(elbow.Y, 0.5) {
		t.Errorf("elbow Y = %v, want vertical factor 0.5", elbow.Y)
	}
	if !floatEquals(elbow.Z, -0.1) {
		t.Errorf("elbow Z = %v, want depth offset -0.1", elbow.Z)
	}
}

func TestSynthesize_HorizontalHand(t *testing.T) {
	s := newSynth(t, DefaultConfig())
	// MCPs to the left of the wrist: direction is +x, orientation is
	// horizontal, so the longer 0.7 factor applies.
	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist:     {X: 0.5, Y: 0.5, Z: 0.2},
		hand.IndexMCP:  {X: 0.3, Y: 0.48, Z: 0},
		hand.MiddleMCP: {X: 0.3, Y: 0.5, Z: 0},
		hand.PinkyMCP:  {X: 0.3, Y: 0.52, Z: 0},
	})

	got := s.Synthesize(f)

	wantX := []float64{0.5 + 0.7, 0.5 + 0.35, 0.5 + 0.175, 0.5 + 0.525}
	wantZ := []float64{0.2 - 0.1, 0.2 - 0.05, 0.2 - 0.025, 0.2 - 0.075}
	for i := range got {
		if !floatEquals(got[i].Pos.X, wantX[i]) {
			t.Errorf("point %d X = %v, want %v", i, got[i].Pos.X, wantX[i])
		}
		if !floatEquals(got[i].Pos.Y, 0.5) {
			t.Errorf("point %d Y = %v, want 0.5", i, got[i].Pos.Y)
		}
		if !floatEquals(got[i].Pos.Z, wantZ[i]) {
			t.Errorf("point %d Z = %v, want %v", i, got[i].Pos.Z, wantZ[i])
		}
	}
}

func TestSynthesize_FixedPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyFixed
	s := newSynth(t, cfg)

	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist:     {X: 0.5, Y: 0.5},
		hand.IndexMCP:  {X: 0.3, Y: 0.5},
		hand.MiddleMCP: {X: 0.3, Y: 0.5},
		hand.PinkyMCP:  {X: 0.3, Y: 0.5},
	})

	got := s.Synthesize(f)
	wantDist := []float64{0.8, 0.6, 0.4, 0.2}
	for i := range got {
		if !floatEquals(got[i].Pos.X, 0.5+wantDist[i]) {
			t.Errorf("point %d X = %v, want %v", i, got[i].Pos.X, 0.5+wantDist[i])
		}
	}
	// Depth offsets still follow the named fractions.
	if !floatEquals(got[0].Pos.Z, -0.1) || !floatEquals(got[1].Pos.Z, -0.05) {
		t.Errorf("fixed policy depth = %v, %v, want -0.1, -0.05", got[0].Pos.Z, got[1].Pos.Z)
	}
}

func TestSynthesize_ForeshortenedCollapsesToWrist(t *testing.T) {
	s := newSynth(t, DefaultConfig())
	wrist := r3.Vec{X: 0.5, Y: 0.5, Z: 0.3}
	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist:     wrist,
		hand.IndexMCP:  wrist,
		hand.MiddleMCP: wrist,
		hand.PinkyMCP:  wrist,
	})

	got := s.Synthesize(f)
	for i, j := range got {
		if j.Pos != wrist {
			t.Errorf("point %d = %+v, want wrist %+v", i, j.Pos, wrist)
		}
	}
}

func TestExtend_FullJointSet(t *testing.T) {
	s := newSynth(t, DefaultConfig())
	f := frameWith(t, map[hand.JointID]r3.Vec{
		hand.Wrist: {X: 0.5, Y: 0.8},
	})

	e := s.Extend(f)
	all := e.AllJoints()
	if len(all) != hand.NumExtended {
		t.Fatalf("AllJoints() len = %d, want %d", len(all), hand.NumExtended)
	}
	for i, j := range all {
		if j.ID != hand.JointID(i) {
			t.Errorf("joint %d has ID %d", i, int(j.ID))
		}
	}
}
