// Package pipeline owns the frame loop: captures in, servo commands and
// telemetry packets out. Everything that outlives a single frame lives
// here: smoothing state, the session ID, counters, and the telemetry
// fan-out queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ekvirika/MirrorMate/internal/log"
	"github.com/ekvirika/MirrorMate/pkg/angles"
	"github.com/ekvirika/MirrorMate/pkg/command"
	"github.com/ekvirika/MirrorMate/pkg/forearm"
	"github.com/ekvirika/MirrorMate/pkg/hand"
	"github.com/ekvirika/MirrorMate/pkg/ingest"
	"github.com/ekvirika/MirrorMate/pkg/servo"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// Preference picks which hand drives the servo channels when a frame has
// more than one. Channels are one physical resource, so commands always
// come from at most one hand; the others still appear in telemetry.
type Preference string

const (
	PreferAny   Preference = "any"
	PreferLeft  Preference = "left"
	PreferRight Preference = "right"
)

// ParsePreference maps a config string onto a Preference.
func ParsePreference(s string) (Preference, error) {
	switch Preference(s) {
	case PreferAny, PreferLeft, PreferRight:
		return Preference(s), nil
	}
	return "", fmt.Errorf("unknown hand preference %q", s)
}

// defaultQueueSize bounds the telemetry fan-out queue.
const defaultQueueSize = 8

// errLogWindow rate-limits telemetry sink failure logging.
const errLogWindow = 5 * time.Second

// Config assembles a pipeline. Zero values fall back to defaults where a
// default exists; the channel table must be explicit.
type Config struct {
	Extractor angles.Config
	Channels  []servo.Channel
	Forearm   forearm.Config
	Prefer    Preference
	QueueSize int
}

// Stats is a point-in-time snapshot of pipeline activity.
type Stats struct {
	Session        string        `json:"session"`
	Frames         uint64        `json:"frames"`
	Hands          uint64        `json:"hands"`
	PacketsSent    uint64        `json:"packets_sent"`
	PacketsDropped uint64        `json:"packets_dropped"`
	SinkErrors     uint64        `json:"sink_errors"`
	EncodeErrors   uint64        `json:"encode_errors"`
	Commands       command.Stats `json:"commands"`
}

// Pipeline processes one capture at a time. Telemetry sends are decoupled
// through a bounded queue drained by a single goroutine, so a slow UDP or
// OSC endpoint cannot stall command emission.
type Pipeline struct {
	extractor *angles.Extractor
	mapper    *servo.Mapper
	synth     *forearm.Synthesizer
	commands  *command.Sink
	sinks     []telemetry.Sink
	prefer    Preference

	queue     chan *telemetry.Packet
	stop      chan struct{}
	stopOnce  sync.Once
	drainDone chan struct{}

	frames         atomic.Uint64
	hands          atomic.Uint64
	packetsSent    atomic.Uint64
	packetsDropped atomic.Uint64
	sinkErrors     atomic.Uint64
	encodeErrors   atomic.Uint64

	mu           sync.Mutex
	sessionID    string
	sessionStart time.Time
	lastCommands map[int]int
	lastErrorLog time.Time
}

// New builds a pipeline from config plus the sinks it feeds. The command
// sink is required (use a degraded sink when no actuator is attached);
// telemetry sinks are optional.
func New(cfg Config, commands *command.Sink, sinks ...telemetry.Sink) (*Pipeline, error) {
	extractor, err := angles.New(cfg.Extractor)
	if err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}
	mapper, err := servo.NewMapper(cfg.Channels, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}
	synth, err := forearm.New(cfg.Forearm)
	if err != nil {
		return nil, fmt.Errorf("invalid forearm config: %w", err)
	}

	prefer := cfg.Prefer
	if prefer == "" {
		prefer = PreferAny
	}
	if _, err := ParsePreference(string(prefer)); err != nil {
		return nil, err
	}

	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	p := &Pipeline{
		extractor:    extractor,
		mapper:       mapper,
		synth:        synth,
		commands:     commands,
		sinks:        sinks,
		prefer:       prefer,
		queue:        make(chan *telemetry.Packet, size),
		stop:         make(chan struct{}),
		drainDone:    make(chan struct{}),
		sessionID:    uuid.New().String(),
		sessionStart: time.Now(),
		lastCommands: make(map[int]int),
	}
	go p.drainTelemetry()
	return p, nil
}

// Session returns the current session ID.
func (p *Pipeline) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// SessionStarted returns when the current session began. A reset restarts
// the clock; process uptime does not.
func (p *Pipeline) SessionStarted() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionStart
}

// Reset starts a new session: fresh ID, smoothing state cleared. Counters
// keep accumulating; they describe the process, not the session.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.sessionID = uuid.New().String()
	p.sessionStart = time.Now()
	p.lastCommands = make(map[int]int)
	p.mu.Unlock()
	p.mapper.State().Reset()
	log.Info("session reset", "session", p.Session())
}

// Run consumes the source until it ends, the context is cancelled, or
// Stop is called. Source end and cancellation are clean returns; only
// unexpected source failures surface as errors.
func (p *Pipeline) Run(ctx context.Context, src ingest.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("pipeline running", "session", p.Session(), "prefer", string(p.prefer))
	for {
		c, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, ingest.ErrSourceClosed) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("source failed: %w", err)
		}
		p.ProcessCapture(c)
	}
}

// ProcessCapture runs one frame through every stage. Safe to call directly
// when the caller owns frame acquisition (replay tools, tests).
func (p *Pipeline) ProcessCapture(c hand.Capture) {
	p.frames.Add(1)
	p.hands.Add(uint64(len(c.Hands)))

	if f := p.commandHand(c); f != nil {
		a := p.extractor.Extract(f)
		cmds := p.mapper.MapAngles(a)
		p.commands.SendFrame(cmds)
		p.rememberCommands(cmds)
	}

	scene := hand.Scene{
		Timestamp: c.Timestamp,
		Hands:     make([]hand.Extended, 0, len(c.Hands)),
	}
	for i := range c.Hands {
		scene.Hands = append(scene.Hands, p.synth.Extend(&c.Hands[i]))
	}

	pkt, err := telemetry.Encode(scene)
	if err != nil {
		// The packet still carries the hands that encoded cleanly.
		p.encodeErrors.Add(1)
		log.Warn("pose packet incomplete", "error", err)
	}
	p.enqueue(pkt)
}

// commandHand picks the hand that drives the channels, or nil when the
// preferred hand is absent this frame.
func (p *Pipeline) commandHand(c hand.Capture) *hand.Frame {
	for i := range c.Hands {
		switch p.prefer {
		case PreferLeft:
			if c.Hands[i].Handedness == hand.Left {
				return &c.Hands[i]
			}
		case PreferRight:
			if c.Hands[i].Handedness == hand.Right {
				return &c.Hands[i]
			}
		default:
			return &c.Hands[i]
		}
	}
	return nil
}

func (p *Pipeline) rememberCommands(cmds []servo.Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmd := range cmds {
		p.lastCommands[cmd.Channel] = cmd.Angle
	}
}

// LastCommands returns the most recent angle written per channel.
func (p *Pipeline) LastCommands() map[int]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int]int, len(p.lastCommands))
	for ch, angle := range p.lastCommands {
		out[ch] = angle
	}
	return out
}

// enqueue hands a packet to the telemetry drain, dropping the oldest
// pending packet when the queue is full: fresh poses beat stale ones.
func (p *Pipeline) enqueue(pkt *telemetry.Packet) {
	select {
	case p.queue <- pkt:
		return
	default:
	}
	select {
	case <-p.queue:
		p.packetsDropped.Add(1)
	default:
	}
	select {
	case p.queue <- pkt:
	default:
		// The drain raced us and the queue refilled; drop the new one.
		p.packetsDropped.Add(1)
	}
}

func (p *Pipeline) drainTelemetry() {
	defer close(p.drainDone)
	for {
		select {
		case <-p.stop:
			// Flush whatever is already queued, then exit.
			for {
				select {
				case pkt := <-p.queue:
					p.sendPacket(pkt)
				default:
					return
				}
			}
		case pkt := <-p.queue:
			p.sendPacket(pkt)
		}
	}
}

func (p *Pipeline) sendPacket(pkt *telemetry.Packet) {
	sent := false
	for _, sink := range p.sinks {
		if err := sink.Send(pkt); err != nil {
			p.sinkErrors.Add(1)
			p.logSinkError(err)
			continue
		}
		sent = true
	}
	if sent {
		p.packetsSent.Add(1)
	}
}

func (p *Pipeline) logSinkError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastErrorLog.IsZero() || time.Since(p.lastErrorLog) > errLogWindow {
		log.Warn("telemetry send failed", "error", err, "total_errors", p.sinkErrors.Load())
		p.lastErrorLog = time.Now()
	}
}

// Stop halts the telemetry drain and makes a blocked Run return. Idempotent
// and safe from any goroutine; the in-flight frame completes first.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	<-p.drainDone
}

// Stats returns a snapshot of counters plus the command sink's view.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Session:        p.Session(),
		Frames:         p.frames.Load(),
		Hands:          p.hands.Load(),
		PacketsSent:    p.packetsSent.Load(),
		PacketsDropped: p.packetsDropped.Load(),
		SinkErrors:     p.sinkErrors.Load(),
		EncodeErrors:   p.encodeErrors.Load(),
		Commands:       p.commands.Stats(),
	}
}

// Channels exposes the configured calibration table (status surface).
func (p *Pipeline) Channels() []servo.Channel {
	return p.mapper.Channels()
}
