// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// SampleInterval is the recording loop cadence.
	SampleInterval time.Duration
	// RecordingLimit bounds how long one recording session may run.
	RecordingLimit time.Duration
	// ProcLimit is the default process top size.
	ProcLimit int
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		SampleInterval: time.Second,
		RecordingLimit: 300 * time.Second,
		ProcLimit:      10,
	}
}

// fileConfig is the YAML shape; durations are parsed from strings like
// "1s" or "5m".
type fileConfig struct {
	Addr           string `yaml:"addr"`
	SampleInterval string `yaml:"sample_interval"`
	RecordingLimit string `yaml:"recording_limit"`
	ProcLimit      int    `yaml:"proc_limit"`
}

// Load reads path (skipped when empty or missing) and then applies
// HOSTWATCH_* environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			var fc fileConfig
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := applyFile(&cfg, fc); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) error {
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.SampleInterval != "" {
		d, err := time.ParseDuration(fc.SampleInterval)
		if err != nil {
			return fmt.Errorf("sample_interval: %w", err)
		}
		cfg.SampleInterval = d
	}
	if fc.RecordingLimit != "" {
		d, err := time.ParseDuration(fc.RecordingLimit)
		if err != nil {
			return fmt.Errorf("recording_limit: %w", err)
		}
		cfg.RecordingLimit = d
	}
	if fc.ProcLimit > 0 {
		cfg.ProcLimit = fc.ProcLimit
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HOSTWATCH_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("HOSTWATCH_SAMPLE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOSTWATCH_SAMPLE_INTERVAL: %w", err)
		}
		cfg.SampleInterval = d
	}
	if v := os.Getenv("HOSTWATCH_RECORDING_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOSTWATCH_RECORDING_LIMIT: %w", err)
		}
		cfg.RecordingLimit = d
	}
	return nil
}
