// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if settings.Calibration.Alpha != 0.10 {
		t.Errorf("expected default alpha, got %f", settings.Calibration.Alpha)
	}
	if settings.Loop.MaxAttempts != 3 {
		t.Errorf("expected default max_attempts, got %d", settings.Loop.MaxAttempts)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	content := `
calibration:
  alpha: 0.05
loop:
  max_attempts: 5
scanner:
  timeout: 10s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if settings.Calibration.Alpha != 0.05 {
		t.Errorf("expected alpha 0.05, got %f", settings.Calibration.Alpha)
	}
	if settings.Loop.MaxAttempts != 5 {
		t.Errorf("expected max_attempts 5, got %d", settings.Loop.MaxAttempts)
	}
	if settings.Scanner.Timeout != 10*time.Second {
		t.Errorf("expected 10s scanner timeout, got %v", settings.Scanner.Timeout)
	}
	// Untouched fields keep their defaults.
	if settings.Scanner.Command != "bandit" {
		t.Errorf("expected default scanner command, got %q", settings.Scanner.Command)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte("calibration:\n  alpha: 0.05\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SENTINEL_ALPHA", "0.2")
	t.Setenv("SENTINEL_MAX_ATTEMPTS", "7")

	settings, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if settings.Calibration.Alpha != 0.2 {
		t.Errorf("env should override file, got alpha %f", settings.Calibration.Alpha)
	}
	if settings.Loop.MaxAttempts != 7 {
		t.Errorf("env should override default, got max_attempts %d", settings.Loop.MaxAttempts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
	}{
		{"alpha too large", func(s *Settings) { s.Calibration.Alpha = 1.0 }},
		{"alpha zero", func(s *Settings) { s.Calibration.Alpha = 0 }},
		{"zero attempts", func(s *Settings) { s.Loop.MaxAttempts = 0 }},
		{"empty scanner command", func(s *Settings) { s.Scanner.Command = "" }},
		{"unknown backend", func(s *Settings) { s.Generator.Backend = "carrier-pigeon" }},
		{"history without path", func(s *Settings) { s.History.Enabled = true; s.History.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(&settings)
			if err := settings.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not valid {{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}
