// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"testing"

	sentinelconfig "github.com/AleutianAI/sentinel/services/sentinel/config"
)

func TestInitNilContext(t *testing.T) {
	//nolint:staticcheck // deliberately passing nil to exercise the guard
	if _, err := Init(nil, DefaultConfig()); !errors.Is(err, ErrNilContext) {
		t.Errorf("expected ErrNilContext, got %v", err)
	}
}

func TestInitDisabledExportersIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "carrier-pigeon"
	cfg.MetricExporter = "none"

	if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("expected ErrUnknownExporter, got %v", err)
	}
}

func TestFromSettings(t *testing.T) {
	obs := sentinelconfig.ObservabilityConfig{
		ServiceName:    "gatekeeper",
		MetricsEnabled: false,
		TracingEnabled: false,
	}
	cfg := FromSettings(obs)
	if cfg.ServiceName != "gatekeeper" {
		t.Errorf("service name not applied, got %q", cfg.ServiceName)
	}
	if cfg.MetricExporter != "none" {
		t.Errorf("disabled metrics should select no exporter, got %q", cfg.MetricExporter)
	}
	if cfg.TraceExporter != "none" {
		t.Errorf("disabled tracing should select no exporter, got %q", cfg.TraceExporter)
	}

	obs.TracingEnabled = true
	if cfg := FromSettings(obs); cfg.TraceExporter == "none" {
		t.Error("enabled tracing should select an exporter")
	}
}
