// Package gesture reads rock-paper-scissors hand shapes from joint frames
// and provides the matching canned servo poses. Purely rule-based; the
// heuristics assume image coordinates where y grows downward.
package gesture

import (
	"math"

	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/servo"
)

// Shape is a classified hand shape.
type Shape string

const (
	Rock     Shape = "rock"
	Paper    Shape = "paper"
	Scissors Shape = "scissors"
	Unknown  Shape = "unknown"
)

// thumbSpread is the minimum sideways distance between thumb tip and IP
// joint for the thumb to count as extended.
const thumbSpread = 0.05

// fingerPairs maps each non-thumb finger to its TIP and PIP joints.
var fingerPairs = [4][2]hand.JointID{
	{hand.IndexTip, hand.IndexPIP},
	{hand.MiddleTip, hand.MiddlePIP},
	{hand.RingTip, hand.RingPIP},
	{hand.PinkyTip, hand.PinkyPIP},
}

// Extended reports which fingers are extended, in order thumb, index,
// middle, ring, pinky. The thumb reads sideways spread; the others read
// whether the tip sits above the PIP joint.
func Extended(f *hand.Frame) [5]bool {
	var ext [5]bool
	ext[0] = math.Abs(f.At(hand.ThumbTip).X-f.At(hand.ThumbIP).X) > thumbSpread
	for i, pair := range fingerPairs {
		ext[i+1] = f.At(pair[0]).Y < f.At(pair[1]).Y
	}
	return ext
}

// Classify maps a frame to a shape: no fingers extended is Rock, four or
// more is Paper, exactly index plus middle is Scissors, anything else is
// Unknown.
func Classify(f *hand.Frame) Shape {
	ext := Extended(f)
	count := 0
	for _, e := range ext {
		if e {
			count++
		}
	}
	switch {
	case count == 0:
		return Rock
	case count >= 4:
		return Paper
	case count == 2 && ext[1] && ext[2]:
		return Scissors
	default:
		return Unknown
	}
}

// Beats reports whether s wins against other.
func (s Shape) Beats(other Shape) bool {
	switch s {
	case Rock:
		return other == Scissors
	case Paper:
		return other == Rock
	case Scissors:
		return other == Paper
	}
	return false
}

// presets holds the canned poses in the default emission order 3,1,2,4,5,6.
var presets = map[Shape][]servo.Command{
	Paper: {
		{Channel: 3, Angle: 120},
		{Channel: 1, Angle: 30},
		{Channel: 2, Angle: 30},
		{Channel: 4, Angle: 20},
		{Channel: 5, Angle: 20},
		{Channel: 6, Angle: 90},
	},
	Scissors: {
		{Channel: 3, Angle: 170},
		{Channel: 1, Angle: 30},
		{Channel: 2, Angle: 30},
		{Channel: 4, Angle: 180},
		{Channel: 5, Angle: 175},
		{Channel: 6, Angle: 90},
	},
	Rock: {
		{Channel: 3, Angle: 170},
		{Channel: 1, Angle: 180},
		{Channel: 2, Angle: 180},
		{Channel: 4, Angle: 180},
		{Channel: 5, Angle: 175},
		{Channel: 6, Angle: 90},
	},
}

// Preset returns the ordered command sequence posing the robot hand as the
// given shape, or nil for Unknown. The returned slice is the caller's to
// keep.
func Preset(s Shape) []servo.Command {
	cmds, ok := presets[s]
	if !ok {
		return nil
	}
	out := make([]servo.Command, len(cmds))
	copy(out, cmds)
	return out
}
