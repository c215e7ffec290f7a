// Package hand defines the typed hand-skeleton model shared by the whole
// pipeline: canonical joint IDs and names (MediaPipe hand-landmark
// convention), validated per-hand frames, and the multi-hand captures and
// scenes that flow through one pipeline invocation.
package hand

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// JointID identifies one tracked or synthesized point of a hand.
type JointID int

// Canonical joint IDs 0-20 follow the MediaPipe hand-landmark convention.
// IDs 21-24 are synthesized forearm points; they never arrive from the
// estimator and are recomputed every frame.
const (
	Wrist JointID = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
	Elbow
	ForearmMid
	ForearmQuarter
	ForearmThreeQuarter
)

const (
	// NumCanonical is the number of joints the estimator reports per hand.
	NumCanonical = 21
	// NumExtended includes the four synthesized forearm points.
	NumExtended = 25
)

var jointNames = [NumExtended]string{
	"WRIST",
	"THUMB_CMC", "THUMB_MCP", "THUMB_IP", "THUMB_TIP",
	"INDEX_FINGER_MCP", "INDEX_FINGER_PIP", "INDEX_FINGER_DIP", "INDEX_FINGER_TIP",
	"MIDDLE_FINGER_MCP", "MIDDLE_FINGER_PIP", "MIDDLE_FINGER_DIP", "MIDDLE_FINGER_TIP",
	"RING_FINGER_MCP", "RING_FINGER_PIP", "RING_FINGER_DIP", "RING_FINGER_TIP",
	"PINKY_MCP", "PINKY_PIP", "PINKY_DIP", "PINKY_TIP",
	"ELBOW", "FOREARM_MID", "FOREARM_QUARTER", "FOREARM_THREE_QUARTER",
}

// Name returns the canonical name for the joint ID.
func (id JointID) Name() string {
	if id < 0 || int(id) >= NumExtended {
		return fmt.Sprintf("UNKNOWN_%d", int(id))
	}
	return jointNames[id]
}

// Canonical reports whether the ID is one of the 21 estimator-reported joints.
func (id JointID) Canonical() bool {
	return id >= 0 && id < NumCanonical
}

// Synthesized reports whether the ID is a forearm extension point.
func (id JointID) Synthesized() bool {
	return id >= NumCanonical && int(id) < NumExtended
}

// Joint is one tracked anatomical point. Position is camera-normalized:
// x and y roughly in [0,1] (or pixel space), z is relative depth with
// smaller values closer to the camera.
type Joint struct {
	ID  JointID
	Pos r3.Vec
}

// Handedness classifies a tracked hand.
type Handedness string

const (
	Left    Handedness = "Left"
	Right   Handedness = "Right"
	Unknown Handedness = "Unknown"
)

// ParseHandedness maps an estimator-reported label onto the enum,
// defaulting to Unknown for anything unrecognized.
func ParseHandedness(s string) Handedness {
	switch s {
	case "Left":
		return Left
	case "Right":
		return Right
	default:
		return Unknown
	}
}

// Frame is one hand's observation for a single camera frame: exactly the
// 21 canonical joints in anatomical order. The fixed-size array makes the
// "no duplicates, no gaps" invariant structural; NewFrame enforces it for
// data arriving from outside.
type Frame struct {
	Handedness Handedness
	Joints     [NumCanonical]Joint
	Timestamp  float64
}

// NewFrame builds a validated Frame from a joint sequence. The slice must
// contain exactly the canonical joints 0-20, each once, in order.
func NewFrame(h Handedness, joints []Joint, timestamp float64) (*Frame, error) {
	if len(joints) != NumCanonical {
		return nil, fmt.Errorf("hand frame needs %d joints, got %d", NumCanonical, len(joints))
	}
	f := &Frame{Handedness: h, Timestamp: timestamp}
	for i, j := range joints {
		if j.ID != JointID(i) {
			return nil, fmt.Errorf("joint %d out of order: got ID %d", i, int(j.ID))
		}
		f.Joints[i] = j
	}
	return f, nil
}

// At returns the position of the given canonical joint.
func (f *Frame) At(id JointID) r3.Vec {
	return f.Joints[id].Pos
}

// WristPos returns the wrist position.
func (f *Frame) WristPos() r3.Vec {
	return f.Joints[Wrist].Pos
}

// Extended is a Frame plus the four synthesized forearm joints. The
// forearm points carry IDs 21-24 and are recomputed from the current
// frame each time; nothing persists them across frames.
type Extended struct {
	Frame
	Forearm [4]Joint
}

// AllJoints returns the 25 joints in wire order: canonical 0-20 then
// synthesized 21-24.
func (e *Extended) AllJoints() []Joint {
	out := make([]Joint, 0, NumExtended)
	out = append(out, e.Joints[:]...)
	out = append(out, e.Forearm[:]...)
	return out
}

// Capture is one validated multi-hand observation entering the pipeline,
// before forearm synthesis. Zero hands is a valid capture.
type Capture struct {
	Timestamp float64
	Hands     []Frame
}

// Scene is the per-frame output shape: every hand extended with forearm
// points, ready for encoding. Owned by the pipeline call that builds it
// and discarded after sending.
type Scene struct {
	Timestamp float64
	Hands     []Extended
}
