package gesture

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

// shapeFrame builds a frame with the thumb spread or tucked and each other
// finger raised or curled.
func shapeFrame(t *testing.T, thumb bool, fingers [4]bool) *hand.Frame {
	t.Helper()
	joints := make([]hand.Joint, hand.NumCanonical)
	for i := range joints {
		joints[i] = hand.Joint{ID: hand.JointID(i), Pos: r3.Vec{X: 0.5, Y: 0.5}}
	}

	joints[hand.ThumbIP].Pos = r3.Vec{X: 0.4, Y: 0.5}
	if thumb {
		joints[hand.ThumbTip].Pos = r3.Vec{X: 0.3, Y: 0.45}
	} else {
		joints[hand.ThumbTip].Pos = r3.Vec{X: 0.42, Y: 0.5}
	}

	for i, pair := range fingerPairs {
		x := 0.5 + float64(i)*0.05
		joints[pair[1]].Pos = r3.Vec{X: x, Y: 0.4}
		if fingers[i] {
			joints[pair[0]].Pos = r3.Vec{X: x, Y: 0.3}
		} else {
			joints[pair[0]].Pos = r3.Vec{X: x, Y: 0.5}
		}
	}

	f, err := hand.NewFrame(hand.Right, joints, 0)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return f
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		thumb   bool
		fingers [4]bool
		want    Shape
	}{
		{"fist", false, [4]bool{}, Rock},
		{"open hand", true, [4]bool{true, true, true, true}, Paper},
		{"four fingers no thumb", false, [4]bool{true, true, true, true}, Paper},
		{"index and middle", false, [4]bool{true, true, false, false}, Scissors},
		{"index only", false, [4]bool{true, false, false, false}, Unknown},
		{"thumb and index", true, [4]bool{true, false, false, false}, Unknown},
		{"three fingers", false, [4]bool{true, true, true, false}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := shapeFrame(t, tt.thumb, tt.fingers)
			if got := Classify(f); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtended_ThumbSpread(t *testing.T) {
	spread := shapeFrame(t, true, [4]bool{})
	if ext := Extended(spread); !ext[0] {
		t.Error("spread thumb not detected as extended")
	}
	tucked := shapeFrame(t, false, [4]bool{})
	if ext := Extended(tucked); ext[0] {
		t.Error("tucked thumb detected as extended")
	}
}

func TestPreset_OrderAndValues(t *testing.T) {
	wantOrder := []int{3, 1, 2, 4, 5, 6}
	wantAngles := map[Shape][]int{
		Paper:    {120, 30, 30, 20, 20, 90},
		Scissors: {170, 30, 30, 180, 175, 90},
		Rock:     {170, 180, 180, 180, 175, 90},
	}

	for shape, angles := range wantAngles {
		cmds := Preset(shape)
		if len(cmds) != len(wantOrder) {
			t.Fatalf("Preset(%v) has %d commands, want %d", shape, len(cmds), len(wantOrder))
		}
		for i, cmd := range cmds {
			if cmd.Channel != wantOrder[i] {
				t.Errorf("Preset(%v)[%d].Channel = %d, want %d", shape, i, cmd.Channel, wantOrder[i])
			}
			if cmd.Angle != angles[i] {
				t.Errorf("Preset(%v)[%d].Angle = %d, want %d", shape, i, cmd.Angle, angles[i])
			}
		}
	}

	if Preset(Unknown) != nil {
		t.Error("Preset(Unknown) should be nil")
	}
}

func TestPreset_CallerOwnsSlice(t *testing.T) {
	first := Preset(Rock)
	first[0].Angle = 0
	second := Preset(Rock)
	if second[0].Angle != 170 {
		t.Errorf("mutating a returned preset leaked into the table: %d", second[0].Angle)
	}
}

func TestBeats(t *testing.T) {
	tests := []struct {
		a, b Shape
		want bool
	}{
		{Rock, Scissors, true},
		{Paper, Rock, true},
		{Scissors, Paper, true},
		{Rock, Paper, false},
		{Paper, Scissors, false},
		{Scissors, Rock, false},
		{Rock, Rock, false},
		{Unknown, Rock, false},
		{Rock, Unknown, false},
	}

	for _, tt := range tests {
		if got := tt.a.Beats(tt.b); got != tt.want {
			t.Errorf("%v.Beats(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
