package servo

import "sync"

// State is the per-channel smoothing memory that outlives a single frame.
// It belongs to one pipeline instance; Reset starts a fresh session. The
// stored values are unrounded floats so the filter stays exact even
// though emitted commands are integers.
type State struct {
	mu   sync.Mutex
	last map[int]float64
}

// NewState returns empty smoothing memory.
func NewState() *State {
	return &State{last: make(map[int]float64)}
}

// smooth applies the channel's exponential filter and updates the stored
// value. The first sample for a channel initializes the memory to the
// raw value, so there is no artificial ramp-in.
func (s *State) smooth(c Channel, raw float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.last[c.ID]
	if !ok {
		s.last[c.ID] = raw
		return raw
	}
	smoothed := prev*(1-c.Alpha) + raw*c.Alpha
	s.last[c.ID] = smoothed
	return smoothed
}

// Last returns the stored value for a channel, if any. Used by status
// reporting and tests.
func (s *State) Last(channelID int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.last[channelID]
	return v, ok
}

// Reset clears all smoothing memory; the next frame re-initializes each
// channel from its first raw value.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = make(map[int]float64)
}
