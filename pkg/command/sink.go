// Package command delivers servo commands to the actuator over a byte-stream
// transport, one ASCII line per channel in a fixed order with per-channel
// pacing. Transport failures are counted and rate-limited in the log but
// never stop the caller; with no transport attached the sink runs degraded
// and drops everything.
package command

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/servo"
)

// defaultDelay paces commands whose channel is missing from the configured
// list (should not happen after config validation).
const defaultDelay = 10 * time.Millisecond

// errLogWindow limits transport-failure logging to one Warn per window.
const errLogWindow = 5 * time.Second

// Transport is the byte stream command lines are written to. Each Write is
// one full line; serial ports and sockets flush per write.
type Transport interface {
	io.Writer
	io.Closer
}

// Stats is a snapshot of sink activity.
type Stats struct {
	Frames   uint64 `json:"frames"`   // frames offered to the sink
	Commands uint64 `json:"commands"` // lines written
	Dropped  uint64 `json:"dropped"`  // commands dropped (degraded mode or a failed frame)
	Errors   uint64 `json:"errors"`   // transport write failures
	Degraded bool   `json:"degraded"` // true when no transport is attached
}

// Sink writes one frame's commands at a time. All movement output flows
// through here so ordering and pacing hold even when presets and tracking
// frames interleave.
type Sink struct {
	mu        sync.Mutex
	transport Transport
	delays    map[int]time.Duration

	frames   uint64
	commands uint64
	dropped  uint64
	errors   uint64

	lastErrorTime time.Time
	suppressed    uint64
}

// NewSink creates a sink over the given transport, taking per-channel
// pacing from the channel list. A nil transport puts the sink in degraded
// mode: frames are accepted and dropped, which keeps the pipeline running
// when no actuator is reachable.
func NewSink(t Transport, channels []servo.Channel) *Sink {
	delays := make(map[int]time.Duration, len(channels))
	for _, c := range channels {
		delays[c.ID] = c.Delay
	}
	return &Sink{transport: t, delays: delays}
}

// SendFrame writes the commands in order, sleeping each channel's delay
// after its line so consecutive writes stay spaced. A write failure drops
// the rest of the frame; the next frame tries the transport again. Failures
// are counted and surfaced via Stats, not returned, since they must never
// stop frame processing.
func (s *Sink) SendFrame(cmds []servo.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	if s.transport == nil {
		s.dropped += uint64(len(cmds))
		return
	}

	for i, cmd := range cmds {
		line := fmt.Sprintf("%d:%d!\n", cmd.Channel, cmd.Angle)
		if _, err := s.transport.Write([]byte(line)); err != nil {
			s.dropped += uint64(len(cmds) - i)
			s.fail(err)
			return
		}
		s.commands++
		time.Sleep(s.delay(cmd.Channel))
	}
}

func (s *Sink) delay(channel int) time.Duration {
	if d, ok := s.delays[channel]; ok {
		return d
	}
	return defaultDelay
}

// fail records a transport error, logging at most once per errLogWindow.
func (s *Sink) fail(err error) {
	s.errors++
	if s.lastErrorTime.IsZero() || time.Since(s.lastErrorTime) > errLogWindow {
		log.Warn("actuator write failed",
			"error", err,
			"total_errors", s.errors,
			"suppressed", s.suppressed)
		s.lastErrorTime = time.Now()
		s.suppressed = 0
		return
	}
	s.suppressed++
}

// Stats returns a snapshot of the sink's counters.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Frames:   s.frames,
		Commands: s.commands,
		Dropped:  s.dropped,
		Errors:   s.errors,
		Degraded: s.transport == nil,
	}
}

// Close closes the transport if one is attached.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}
