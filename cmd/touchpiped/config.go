package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the touchpiped daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Defaults and
// validation are centralized here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Input device configuration
	Input InputConfig `yaml:"input"`

	// Pipeline pull configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Sample stream (WebSocket) configuration
	Stream StreamConfig `yaml:"stream"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type InputConfig struct {
	// Device is the multitouch evdev node to capture from.
	Device string `yaml:"device"`

	// Params is the module option string handed to the adapter,
	// e.g. "grab_events=1".
	Params string `yaml:"params,omitempty"`
}

type PipelineConfig struct {
	ReadHz   int `yaml:"read_hz"`   // multi-point read cadence
	MaxSlots int `yaml:"max_slots"` // output slots per read
}

type StreamConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go and the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Device: defaultDevice,
		},
		Pipeline: PipelineConfig{
			ReadHz:   defaultReadHz,
			MaxSlots: defaultMaxSlots,
		},
		Stream: StreamConfig{
			ListenAddr: defaultListenAddr,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true), and
// trailing documents are an error.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
// Each override is only applied if its pointer is non-nil.
type FlagOverrides struct {
	Device *string
	Params *string

	ReadHz   *int
	MaxSlots *int

	ListenAddr *string

	LogLevel *string
}

// Apply merges the overrides into cfg. Nil pointers are ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Device != nil {
		cfg.Input.Device = *o.Device
	}
	if o.Params != nil {
		cfg.Input.Params = *o.Params
	}
	if o.ReadHz != nil {
		cfg.Pipeline.ReadHz = *o.ReadHz
	}
	if o.MaxSlots != nil {
		cfg.Pipeline.MaxSlots = *o.MaxSlots
	}
	if o.ListenAddr != nil {
		cfg.Stream.ListenAddr = *o.ListenAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	if c.Input.Device == "" {
		return errors.New("input.device must not be empty")
	}

	if c.Pipeline.ReadHz <= 0 || c.Pipeline.ReadHz > 1000 {
		return errors.New("pipeline.read_hz must be between 1 and 1000")
	}
	if c.Pipeline.MaxSlots <= 0 {
		return errors.New("pipeline.max_slots must be > 0")
	}

	if c.Stream.ListenAddr == "" {
		return errors.New("stream.listen_addr must not be empty")
	}

	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}
