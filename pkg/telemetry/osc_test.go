package telemetry

import (
	"testing"

	"github.com/ekvirika/MirrorMate/pkg/hand"
)

func TestBundle_AddressLayout(t *testing.T) {
	p, err := Encode(hand.Scene{
		Timestamp: 1,
		Hands:     []hand.Extended{testHand(t, hand.Left, 0.1), testHand(t, hand.Right, 0.5)},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	b, err := bundle(p)
	if err != nil {
		t.Fatalf("bundle() error = %v", err)
	}

	// Per hand: one type message plus 25 joint messages.
	perHand := 1 + hand.NumExtended
	if len(b.Messages) != 2*perHand {
		t.Fatalf("bundle has %d messages, want %d", len(b.Messages), 2*perHand)
	}

	if got := b.Messages[0].Address; got != "/mirrormate/hand/0/type" {
		t.Errorf("first address = %q", got)
	}
	if got := b.Messages[0].Arguments[0]; got != "Left" {
		t.Errorf("hand 0 type arg = %v, want Left", got)
	}
	if got := b.Messages[1].Address; got != "/mirrormate/hand/0/WRIST" {
		t.Errorf("first joint address = %q", got)
	}
	if got := b.Messages[perHand].Address; got != "/mirrormate/hand/1/type" {
		t.Errorf("hand 1 type address = %q", got)
	}

	args := b.Messages[1].Arguments
	if len(args) != 3 {
		t.Fatalf("joint message has %d args, want 3", len(args))
	}
	for i, a := range args {
		if _, ok := a.(float32); !ok {
			t.Errorf("arg %d is %T, want float32", i, a)
		}
	}
}

func TestBundle_EmptyPacket(t *testing.T) {
	p, err := Encode(hand.Scene{Timestamp: 2})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b, err := bundle(p)
	if err != nil {
		t.Fatalf("bundle() error = %v", err)
	}
	if len(b.Messages) != 0 {
		t.Errorf("empty packet bundle has %d messages", len(b.Messages))
	}
}
