package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "touchpiped.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

// TestDefaultConfig_Validates ensures the shipped defaults are well-formed.
func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestLoadConfigFile_OverridesDefaults checks file values land on top of defaults.
func TestLoadConfigFile_OverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
input:
  device: /dev/input/event7
  params: grab_events=1
pipeline:
  read_hz: 120
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Input.Device != "/dev/input/event7" {
		t.Errorf("device=%q, want /dev/input/event7", cfg.Input.Device)
	}
	if cfg.Input.Params != "grab_events=1" {
		t.Errorf("params=%q, want grab_events=1", cfg.Input.Params)
	}
	if cfg.Pipeline.ReadHz != 120 {
		t.Errorf("read_hz=%d, want 120", cfg.Pipeline.ReadHz)
	}

	// Untouched sections keep their defaults.
	if cfg.Pipeline.MaxSlots != defaultMaxSlots {
		t.Errorf("max_slots=%d, want default %d", cfg.Pipeline.MaxSlots, defaultMaxSlots)
	}
	if cfg.Stream.ListenAddr != defaultListenAddr {
		t.Errorf("listen_addr=%q, want default %q", cfg.Stream.ListenAddr, defaultListenAddr)
	}
}

// TestLoadConfigFile_RejectsUnknownFields catches config typos early.
func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
input:
  devics: /dev/input/event7
`)

	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for unknown field, got none")
	}
}

// TestLoadConfigFile_RejectsTrailingDocument rejects multi-document YAML.
func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeTempConfig(t, `
input:
  device: /dev/input/event7
---
input:
  device: /dev/input/event8
`)

	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for trailing document, got none")
	}
}

// TestFlagOverrides_Apply checks only non-nil overrides are applied.
func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()

	device := "/dev/input/event9"
	readHz := 240

	FlagOverrides{
		Device: &device,
		ReadHz: &readHz,
	}.Apply(&cfg)

	if cfg.Input.Device != device {
		t.Errorf("device=%q, want %q", cfg.Input.Device, device)
	}
	if cfg.Pipeline.ReadHz != readHz {
		t.Errorf("read_hz=%d, want %d", cfg.Pipeline.ReadHz, readHz)
	}
	if cfg.Stream.ListenAddr != defaultListenAddr {
		t.Errorf("listen_addr=%q changed by unrelated override", cfg.Stream.ListenAddr)
	}
}

// TestConfig_ValidateErrors spot-checks the validation messages.
func TestConfig_ValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"empty device", func(c *Config) { c.Input.Device = "" }, "input.device"},
		{"zero read_hz", func(c *Config) { c.Pipeline.ReadHz = 0 }, "pipeline.read_hz"},
		{"huge read_hz", func(c *Config) { c.Pipeline.ReadHz = 5000 }, "pipeline.read_hz"},
		{"zero max_slots", func(c *Config) { c.Pipeline.MaxSlots = 0 }, "pipeline.max_slots"},
		{"empty listen", func(c *Config) { c.Stream.ListenAddr = "" }, "stream.listen_addr"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)

		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.wantSub)
		}
	}
}
