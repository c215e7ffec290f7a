package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mirrormate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if len(cfg.Channels) != 6 {
		t.Errorf("default channels = %d, want 6", len(cfg.Channels))
	}
	if cfg.Extractor.Convention != "tip" {
		t.Errorf("default convention = %q, want tip", cfg.Extractor.Convention)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
listen: ":7000"
serial:
  baud: 57600
hand: right
channels:
  - id: 9
    input: wrist
    domain_min: 70
    domain_max: 110
    clamp_min: 0
    clamp_max: 180
    smooth: true
    alpha: 0.5
    delay_ms: 15
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":7000" {
		t.Errorf("Listen = %q, want :7000", cfg.Listen)
	}
	if cfg.Serial.Baud != 57600 {
		t.Errorf("Baud = %d, want 57600", cfg.Serial.Baud)
	}
	if cfg.Hand != "right" {
		t.Errorf("Hand = %q, want right", cfg.Hand)
	}
	// A channels list replaces the default table outright.
	if len(cfg.Channels) != 1 || cfg.Channels[0].ID != 9 {
		t.Fatalf("Channels = %+v, want the single file-defined channel", cfg.Channels)
	}
	// Untouched sections keep their defaults.
	if cfg.Web != ":8080" {
		t.Errorf("Web = %q, want default :8080", cfg.Web)
	}
	if cfg.Extractor.RotationMin != -60 {
		t.Errorf("RotationMin = %v, want default -60", cfg.Extractor.RotationMin)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	channels := cfg.ServoChannels()
	if channels[0].Delay != 15*time.Millisecond {
		t.Errorf("Delay = %v, want 15ms", channels[0].Delay)
	}
	if !channels[0].Smooth || channels[0].Alpha != 0.5 {
		t.Errorf("smoothing = (%v, %v), want (true, 0.5)", channels[0].Smooth, channels[0].Alpha)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want read failure")
	}
	// The returned config is still the usable default set.
	if cfg.Listen != ":9001" {
		t.Errorf("fallback Listen = %q, want default :9001", cfg.Listen)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "channels: {not: [a, list}")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse failure")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MIRRORMATE_LISTEN", ":7100")
	t.Setenv("MIRRORMATE_SERIAL", "/dev/ttyUSB3,/dev/ttyACM1")
	t.Setenv("MIRRORMATE_BAUD", "9600")
	t.Setenv("MIRRORMATE_HAND", "left")

	cfg := Default()
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Listen != ":7100" {
		t.Errorf("Listen = %q, want :7100", cfg.Listen)
	}
	want := []string{"/dev/ttyUSB3", "/dev/ttyACM1"}
	if len(cfg.Serial.Candidates) != 2 || cfg.Serial.Candidates[0] != want[0] || cfg.Serial.Candidates[1] != want[1] {
		t.Errorf("Candidates = %v, want %v", cfg.Serial.Candidates, want)
	}
	if cfg.Serial.Baud != 9600 {
		t.Errorf("Baud = %d, want 9600", cfg.Serial.Baud)
	}
	if cfg.Hand != "left" {
		t.Errorf("Hand = %q, want left", cfg.Hand)
	}
}

func TestFromEnv_BadBaud(t *testing.T) {
	t.Setenv("MIRRORMATE_BAUD", "fast")
	cfg := Default()
	if err := FromEnv(&cfg); err == nil {
		t.Fatal("FromEnv() error = nil, want baud parse failure")
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.Hand = "both"
	cfg.LogLevel = "loud"
	cfg.Serial.Baud = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want three violations")
	}
	msg := err.Error()
	for _, fragment := range []string{"hand preference", "log level", "baud"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("Validate() error %q missing %q", msg, fragment)
		}
	}
}

func TestPipelineConfig_RejectsShortFixedDistances(t *testing.T) {
	cfg := Default()
	cfg.Forearm.FixedDistances = []float64{0.8, 0.6}
	if _, err := cfg.PipelineConfig(); err == nil {
		t.Fatal("PipelineConfig() error = nil, want fixed_distances length failure")
	}
}

func TestPipelineConfig_Defaults(t *testing.T) {
	pc, err := Default().PipelineConfig()
	if err != nil {
		t.Fatalf("PipelineConfig() error = %v", err)
	}
	if len(pc.Channels) != 6 {
		t.Errorf("channels = %d, want 6", len(pc.Channels))
	}
	if pc.Prefer != "any" {
		t.Errorf("Prefer = %q, want any", pc.Prefer)
	}
	if pc.Forearm.FixedDistances != [4]float64{0.8, 0.6, 0.4, 0.2} {
		t.Errorf("FixedDistances = %v, want the default distances", pc.Forearm.FixedDistances)
	}
}
