// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the gate's configuration with the usual priority:
// environment variables override the config file, which overrides defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings contains all gate configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Settings struct {
	// Scanner contains scoring signal settings.
	Scanner ScannerConfig `json:"scanner" yaml:"scanner"`

	// Calibration contains threshold calibration settings.
	Calibration CalibrationConfig `json:"calibration" yaml:"calibration"`

	// Loop contains correction loop settings.
	Loop LoopConfig `json:"loop" yaml:"loop"`

	// Generator contains code generation backend settings.
	Generator GeneratorConfig `json:"generator" yaml:"generator"`

	// History contains audit store settings.
	History HistoryConfig `json:"history" yaml:"history"`

	// Server contains HTTP API settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Observability contains logging and telemetry settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// ScannerConfig contains scoring signal settings.
type ScannerConfig struct {
	// Command is the scanner binary name or path.
	Command string `json:"command" yaml:"command"`

	// Timeout bounds one scan invocation.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// EnablePatterns adds the built-in regex pattern signal alongside the
	// scanner.
	EnablePatterns bool `json:"enable_patterns" yaml:"enable_patterns"`

	// EnableSecrets adds the credential detection signal.
	EnableSecrets bool `json:"enable_secrets" yaml:"enable_secrets"`
}

// CalibrationConfig contains threshold calibration settings.
type CalibrationConfig struct {
	// RecordPath is where the calibration record lives.
	RecordPath string `json:"record_path" yaml:"record_path"`

	// Alpha is the miscoverage level.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// InjectionRate is the synthetic vulnerable fraction for calibration
	// runs.
	InjectionRate float64 `json:"injection_rate" yaml:"injection_rate"`

	// Parallelism bounds concurrent scoring during calibration.
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// WatchRecord reloads the threshold when the record file changes.
	WatchRecord bool `json:"watch_record" yaml:"watch_record"`
}

// LoopConfig contains correction loop settings.
type LoopConfig struct {
	MaxAttempts    int           `json:"max_attempts" yaml:"max_attempts"`
	AttemptTimeout time.Duration `json:"attempt_timeout" yaml:"attempt_timeout"`
}

// GeneratorConfig contains code generation backend settings.
type GeneratorConfig struct {
	// Backend selects the generator: "openai", "ollama", or "none".
	Backend string `json:"backend" yaml:"backend"`

	// RequestsPerSecond rate-limits generation calls. Zero disables the
	// limiter.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the limiter burst size.
	Burst int `json:"burst" yaml:"burst"`
}

// HistoryConfig contains audit store settings.
type HistoryConfig struct {
	// Enabled turns decision and loop recording on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the BadgerDB directory.
	Path string `json:"path" yaml:"path"`

	// Retention is how long entries are kept. Zero keeps them forever.
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	ListenAddr      string        `json:"listen_addr" yaml:"listen_addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies. Generated code is text; anything
	// past this is abuse, not a candidate.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// ObservabilityConfig contains logging and telemetry settings.
type ObservabilityConfig struct {
	LogLevel       string `json:"log_level" yaml:"log_level"`
	LogFormat      string `json:"log_format" yaml:"log_format"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	TracingEnabled bool   `json:"tracing_enabled" yaml:"tracing_enabled"`
	ServiceName    string `json:"service_name" yaml:"service_name"`
}

// DefaultSettings returns the default configuration.
//
// Outputs:
//   - Settings: Default configuration with sensible values.
func DefaultSettings() Settings {
	return Settings{
		Scanner: ScannerConfig{
			Command:        "bandit",
			Timeout:        30 * time.Second,
			EnablePatterns: false,
			EnableSecrets:  false,
		},
		Calibration: CalibrationConfig{
			RecordPath:    "data/calibration.json",
			Alpha:         0.10,
			InjectionRate: 0.2,
			Parallelism:   4,
			WatchRecord:   true,
		},
		Loop: LoopConfig{
			MaxAttempts:    3,
			AttemptTimeout: 2 * time.Minute,
		},
		Generator: GeneratorConfig{
			Backend:           "ollama",
			RequestsPerSecond: 1,
			Burst:             2,
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      "data/history",
			Retention: 30 * 24 * time.Hour,
		},
		Server: ServerConfig{
			ListenAddr:      ":8089",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
			TracingEnabled: false,
			ServiceName:    "sentinel",
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to YAML/JSON config file (optional, can be empty).
//
// Outputs:
//   - Settings: Merged configuration.
//   - error: Non-nil if file exists but is invalid.
func Load(configPath string) (Settings, error) {
	// Start with defaults
	settings := DefaultSettings()

	// Load from file if specified
	if configPath != "" {
		if err := loadFile(configPath, &settings); err != nil {
			return settings, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override from environment variables
	loadFromEnv(&settings)

	// Validate
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid config: %w", err)
	}

	return settings, nil
}

func loadFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, settings); err != nil {
		if jsonErr := json.Unmarshal(data, settings); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadFromEnv(settings *Settings) {
	// Scanner
	if v := os.Getenv("SENTINEL_SCANNER_COMMAND"); v != "" {
		settings.Scanner.Command = v
	}
	if v := os.Getenv("SENTINEL_SCANNER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Scanner.Timeout = d
		}
	}
	// Calibration
	if v := os.Getenv("SENTINEL_CALIBRATION_PATH"); v != "" {
		settings.Calibration.RecordPath = v
	}
	if v := os.Getenv("SENTINEL_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.Calibration.Alpha = f
		}
	}
	if v := os.Getenv("SENTINEL_INJECTION_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.Calibration.InjectionRate = f
		}
	}
	// Loop
	if v := os.Getenv("SENTINEL_MAX_ATTEMPTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			settings.Loop.MaxAttempts = i
		}
	}
	if v := os.Getenv("SENTINEL_ATTEMPT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Loop.AttemptTimeout = d
		}
	}
	// Generator
	if v := os.Getenv("SENTINEL_GENERATOR_BACKEND"); v != "" {
		settings.Generator.Backend = v
	}
	// History
	if v := os.Getenv("SENTINEL_HISTORY_PATH"); v != "" {
		settings.History.Path = v
	}
	if v := os.Getenv("SENTINEL_HISTORY_ENABLED"); v != "" {
		settings.History.Enabled = v == "true" || v == "1"
	}
	// Server
	if v := os.Getenv("SENTINEL_LISTEN_ADDR"); v != "" {
		settings.Server.ListenAddr = v
	}
	// Observability
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		settings.Observability.LogLevel = v
	}
	if v := os.Getenv("SENTINEL_LOG_FORMAT"); v != "" {
		settings.Observability.LogFormat = v
	}
	if v := os.Getenv("SENTINEL_METRICS_ENABLED"); v != "" {
		settings.Observability.MetricsEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SENTINEL_TRACING_ENABLED"); v != "" {
		settings.Observability.TracingEnabled = v == "true" || v == "1"
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: Non-nil if configuration is invalid.
func (s Settings) Validate() error {
	if s.Scanner.Command == "" {
		return fmt.Errorf("scanner command must not be empty")
	}
	if s.Scanner.Timeout <= 0 {
		return fmt.Errorf("scanner timeout must be > 0")
	}
	if s.Calibration.Alpha <= 0 || s.Calibration.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1)")
	}
	if s.Calibration.InjectionRate < 0 || s.Calibration.InjectionRate > 1 {
		return fmt.Errorf("injection_rate must be between 0 and 1")
	}
	if s.Calibration.Parallelism < 1 {
		return fmt.Errorf("parallelism must be >= 1")
	}
	if s.Loop.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if s.History.Enabled && s.History.Path == "" {
		return fmt.Errorf("history path required when history is enabled")
	}
	if s.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("max_body_bytes must be >= 1")
	}
	switch s.Generator.Backend {
	case "openai", "ollama", "none":
	default:
		return fmt.Errorf("unknown generator backend %q", s.Generator.Backend)
	}
	return nil
}
