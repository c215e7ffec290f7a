package servo

import "testing"

func smoothChannel(alpha float64) Channel {
	return Channel{ID: 6, Input: InputWrist, DomainMin: 70, DomainMax: 110, ClampMin: 0, ClampMax: 180, Smooth: true, Alpha: alpha}
}

func TestSmooth_FirstSampleInitializes(t *testing.T) {
	s := NewState()
	c := smoothChannel(0.3)

	got := s.smooth(c, 120)
	if got != 120 {
		t.Errorf("first smooth() = %v, want raw 120", got)
	}
	if last, ok := s.Last(c.ID); !ok || last != 120 {
		t.Errorf("Last() = %v, %v, want 120, true", last, ok)
	}
}

func TestSmooth_Filter(t *testing.T) {
	s := NewState()
	c := smoothChannel(0.3)

	s.smooth(c, 100)
	got := s.smooth(c, 50)
	// 100*0.7 + 50*0.3 = 85
	if !floatEquals(got, 85) {
		t.Errorf("smooth(50) after 100 = %v, want 85", got)
	}
}

func TestSmooth_BetweenPrevAndRaw(t *testing.T) {
	prev, raw := 100.0, 40.0
	for _, alpha := range []float64{0, 0.25, 0.5, 0.75, 1} {
		s := NewState()
		c := smoothChannel(alpha)
		s.smooth(c, prev)
		got := s.smooth(c, raw)
		if got < raw || got > prev {
			t.Errorf("alpha=%v: smooth() = %v, outside [%v,%v]", alpha, got, raw, prev)
		}
	}
}

func TestSmooth_AlphaExtremes(t *testing.T) {
	s := NewState()
	c := smoothChannel(1)
	s.smooth(c, 100)
	if got := s.smooth(c, 30); got != 30 {
		t.Errorf("alpha=1: smooth() = %v, want raw 30", got)
	}

	s = NewState()
	c = smoothChannel(0)
	s.smooth(c, 100)
	if got := s.smooth(c, 30); got != 100 {
		t.Errorf("alpha=0: smooth() = %v, want prev 100", got)
	}
}

func TestSmooth_CenteredNoOp(t *testing.T) {
	s := NewState()
	c := smoothChannel(0.3)

	s.smooth(c, 90)
	if got := s.smooth(c, 90); got != 90 {
		t.Errorf("smooth(90) after 90 = %v, want 90", got)
	}
	if last, _ := s.Last(c.ID); last != 90 {
		t.Errorf("Last() = %v, want 90", last)
	}
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	c := smoothChannel(0.3)

	s.smooth(c, 100)
	s.Reset()

	if _, ok := s.Last(c.ID); ok {
		t.Error("Last() after Reset should report no value")
	}

	// Next sample re-initializes rather than filtering against stale state.
	if got := s.smooth(c, 40); got != 40 {
		t.Errorf("smooth() after Reset = %v, want raw 40", got)
	}
}

func TestState_LastMissing(t *testing.T) {
	s := NewState()
	if _, ok := s.Last(99); ok {
		t.Error("Last() on untouched channel should report no value")
	}
}
