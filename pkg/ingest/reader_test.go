package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

func TestReaderSource_ReadsSequence(t *testing.T) {
	first := packetBytes(t, telemetry.Packet{Timestamp: 1, Hands: []telemetry.HandData{wireHand("Right", hand.NumCanonical)}})
	last := packetBytes(t, telemetry.Packet{Timestamp: 2})

	// Blank and garbage lines interleaved; final line has no newline.
	input := string(first) + "\n\n{broken\n" + string(last)
	src := NewReaderSource(strings.NewReader(input))
	defer src.Close()

	ctx := context.Background()

	c, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !floatEquals(c.Timestamp, 1) || len(c.Hands) != 1 {
		t.Errorf("first capture = %+v, want timestamp 1 with one hand", c)
	}

	c, err = src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !floatEquals(c.Timestamp, 2) || len(c.Hands) != 0 {
		t.Errorf("second capture = %+v, want timestamp 2 with no hands", c)
	}

	if _, err := src.Next(ctx); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("Next() after EOF = %v, want ErrSourceClosed", err)
	}
}

func TestReaderSource_ContextCancelled(t *testing.T) {
	src := NewReaderSource(strings.NewReader(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() = %v, want context.Canceled", err)
	}
}

func TestReaderSource_CloseWithoutCloser(t *testing.T) {
	src := NewReaderSource(strings.NewReader(""))
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
