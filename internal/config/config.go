// Package config loads the daemon configuration. Precedence, lowest to
// highest: built-in defaults, a YAML file, MIRRORMATE_* environment
// variables, then command-line flags applied by each cmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ekvirika/MirrorMate/pkg/angles"
	"github.com/ekvirika/MirrorMate/pkg/forearm"
	"github.com/ekvirika/MirrorMate/pkg/pipeline"
	"github.com/ekvirika/MirrorMate/pkg/servo"
	"github.com/ekvirika/MirrorMate/pkg/telemetry"
)

// Serial configures the actuator transport probe.
type Serial struct {
	// Candidates are tried in order; empty means enumerate the host's
	// ports instead.
	Candidates []string `yaml:"candidates" json:"candidates"`
	Baud       int      `yaml:"baud" json:"baud"`
}

// Telemetry configures the outbound pose sinks. Empty addresses disable
// the corresponding sink.
type Telemetry struct {
	UDP          string `yaml:"udp" json:"udp"`
	OSC          string `yaml:"osc" json:"osc"`
	PayloadLimit int    `yaml:"payload_limit" json:"payload_limit"`
}

// Extractor mirrors the angle-extractor tunables.
type Extractor struct {
	Convention  string  `yaml:"convention" json:"convention"`
	RotationMin float64 `yaml:"rotation_min" json:"rotation_min"`
	RotationMax float64 `yaml:"rotation_max" json:"rotation_max"`
	DeadZone    float64 `yaml:"dead_zone" json:"dead_zone"`
}

// Forearm mirrors the forearm-synthesizer tunables.
type Forearm struct {
	Policy           string    `yaml:"policy" json:"policy"`
	DepthOffset      float64   `yaml:"depth_offset" json:"depth_offset"`
	VerticalFactor   float64   `yaml:"vertical_factor" json:"vertical_factor"`
	HorizontalFactor float64   `yaml:"horizontal_factor" json:"horizontal_factor"`
	FixedDistances   []float64 `yaml:"fixed_distances" json:"fixed_distances"`
}

// Channel mirrors one entry of the servo calibration table. A channels
// list in the file replaces the whole default table.
type Channel struct {
	ID        int     `yaml:"id" json:"id"`
	Input     string  `yaml:"input" json:"input"`
	DomainMin float64 `yaml:"domain_min" json:"domain_min"`
	DomainMax float64 `yaml:"domain_max" json:"domain_max"`
	ClampMin  float64 `yaml:"clamp_min" json:"clamp_min"`
	ClampMax  float64 `yaml:"clamp_max" json:"clamp_max"`
	Extension bool    `yaml:"extension" json:"extension"`
	Smooth    bool    `yaml:"smooth" json:"smooth"`
	Alpha     float64 `yaml:"alpha" json:"alpha"`
	DelayMS   int     `yaml:"delay_ms" json:"delay_ms"`
}

// Config is the full daemon configuration.
type Config struct {
	// Listen is the pose ingest UDP bind address.
	Listen    string    `yaml:"listen" json:"listen"`
	Serial    Serial    `yaml:"serial" json:"serial"`
	Telemetry Telemetry `yaml:"telemetry" json:"telemetry"`
	// Web is the status server bind address; empty disables it.
	Web string `yaml:"web" json:"web"`
	// Hand picks which tracked hand drives the actuator: any, left, right.
	Hand      string    `yaml:"hand" json:"hand"`
	LogLevel  string    `yaml:"log_level" json:"log_level"`
	Extractor Extractor `yaml:"extractor" json:"extractor"`
	Forearm   Forearm   `yaml:"forearm" json:"forearm"`
	Channels  []Channel `yaml:"channels" json:"channels"`
	QueueSize int       `yaml:"queue_size" json:"queue_size"`
}

// Default returns the configuration matching the deployed rig.
func Default() Config {
	cfg := Config{
		Listen:    ":9001",
		Serial:    Serial{Baud: 115200},
		Telemetry: Telemetry{PayloadLimit: telemetry.MaxDatagram},
		Web:       ":8080",
		Hand:      string(pipeline.PreferAny),
		LogLevel:  "info",
	}

	ex := angles.DefaultConfig()
	cfg.Extractor = Extractor{
		Convention:  string(ex.Convention),
		RotationMin: ex.RotationMin,
		RotationMax: ex.RotationMax,
		DeadZone:    ex.DeadZone,
	}

	fa := forearm.DefaultConfig()
	cfg.Forearm = Forearm{
		Policy:           string(fa.Policy),
		DepthOffset:      fa.DepthOffset,
		VerticalFactor:   fa.VerticalFactor,
		HorizontalFactor: fa.HorizontalFactor,
		FixedDistances:   fa.FixedDistances[:],
	}

	for _, ch := range servo.DefaultChannels() {
		cfg.Channels = append(cfg.Channels, Channel{
			ID:        ch.ID,
			Input:     string(ch.Input),
			DomainMin: ch.DomainMin,
			DomainMax: ch.DomainMax,
			ClampMin:  ch.ClampMin,
			ClampMax:  ch.ClampMax,
			Extension: ch.Extension,
			Smooth:    ch.Smooth,
			Alpha:     ch.Alpha,
			DelayMS:   int(ch.Delay / time.Millisecond),
		})
	}
	return cfg
}

// Load overlays the YAML file at path onto the defaults. Absent fields
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays MIRRORMATE_* environment variables onto cfg.
func FromEnv(cfg *Config) error {
	if v := os.Getenv("MIRRORMATE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MIRRORMATE_SERIAL"); v != "" {
		cfg.Serial.Candidates = strings.Split(v, ",")
	}
	if v := os.Getenv("MIRRORMATE_BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MIRRORMATE_BAUD %q: %w", v, err)
		}
		cfg.Serial.Baud = baud
	}
	if v := os.Getenv("MIRRORMATE_UDP"); v != "" {
		cfg.Telemetry.UDP = v
	}
	if v := os.Getenv("MIRRORMATE_OSC"); v != "" {
		cfg.Telemetry.OSC = v
	}
	if v := os.Getenv("MIRRORMATE_WEB"); v != "" {
		cfg.Web = v
	}
	if v := os.Getenv("MIRRORMATE_HAND"); v != "" {
		cfg.Hand = v
	}
	if v := os.Getenv("MIRRORMATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// ServoChannels converts the mirrored calibration table.
func (c Config) ServoChannels() []servo.Channel {
	out := make([]servo.Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		out = append(out, servo.Channel{
			ID:        ch.ID,
			Input:     servo.Input(ch.Input),
			DomainMin: ch.DomainMin,
			DomainMax: ch.DomainMax,
			ClampMin:  ch.ClampMin,
			ClampMax:  ch.ClampMax,
			Extension: ch.Extension,
			Smooth:    ch.Smooth,
			Alpha:     ch.Alpha,
			Delay:     time.Duration(ch.DelayMS) * time.Millisecond,
		})
	}
	return out
}

// PipelineConfig converts the mirrored sections into the pipeline's
// native configuration.
func (c Config) PipelineConfig() (pipeline.Config, error) {
	prefer, err := pipeline.ParsePreference(c.Hand)
	if err != nil {
		return pipeline.Config{}, err
	}

	fa := forearm.Config{
		Policy:           forearm.Policy(c.Forearm.Policy),
		DepthOffset:      c.Forearm.DepthOffset,
		VerticalFactor:   c.Forearm.VerticalFactor,
		HorizontalFactor: c.Forearm.HorizontalFactor,
	}
	switch len(c.Forearm.FixedDistances) {
	case 0:
		fa.FixedDistances = forearm.DefaultConfig().FixedDistances
	case 4:
		copy(fa.FixedDistances[:], c.Forearm.FixedDistances)
	default:
		return pipeline.Config{}, fmt.Errorf("forearm fixed_distances needs 4 entries, got %d", len(c.Forearm.FixedDistances))
	}

	return pipeline.Config{
		Extractor: angles.Config{
			Convention:  angles.Convention(c.Extractor.Convention),
			RotationMin: c.Extractor.RotationMin,
			RotationMax: c.Extractor.RotationMax,
			DeadZone:    c.Extractor.DeadZone,
		},
		Channels:  c.ServoChannels(),
		Forearm:   fa,
		Prefer:    prefer,
		QueueSize: c.QueueSize,
	}, nil
}

// Validate reports every violation at once so a broken file can be fixed
// in one pass.
func (c Config) Validate() error {
	var errs []error

	pc, err := c.PipelineConfig()
	if err != nil {
		errs = append(errs, err)
	} else {
		if _, err := angles.New(pc.Extractor); err != nil {
			errs = append(errs, err)
		}
		if _, err := servo.NewMapper(pc.Channels, nil); err != nil {
			errs = append(errs, err)
		}
		if _, err := forearm.New(pc.Forearm); err != nil {
			errs = append(errs, err)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud rate must be positive, got %d", c.Serial.Baud))
	}
	if c.Telemetry.PayloadLimit < 0 {
		errs = append(errs, fmt.Errorf("negative telemetry payload limit %d", c.Telemetry.PayloadLimit))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("ingest listen address is empty"))
	}

	return errors.Join(errs...)
}
