// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package commander

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for verification operations.
var (
	tracer = otel.Tracer("sentinel.commander")
	meter  = otel.Meter("sentinel.commander")
)

// Metrics for verification operations.
var (
	verifyLatency metric.Float64Histogram
	verifyTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		verifyLatency, err = meter.Float64Histogram(
			"commander_verify_duration_seconds",
			metric.WithDescription("Duration of verification decisions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		verifyTotal, err = meter.Int64Counter(
			"commander_verifications_total",
			metric.WithDescription("Total verification decisions by status"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startVerifySpan creates a span for one verification.
func startVerifySpan(ctx context.Context, signal string, threshold float64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Commander.Verify",
		trace.WithAttributes(
			attribute.String("commander.signal", signal),
			attribute.Float64("commander.threshold", threshold),
		),
	)
}

// setVerifySpanResult sets the decision attributes on a verification span.
func setVerifySpanResult(span trace.Span, decision *Decision) {
	span.SetAttributes(
		attribute.String("commander.status", string(decision.Status)),
		attribute.Float64("commander.score", decision.Score),
	)
}

// recordVerifyMetrics records metrics for one verification.
func recordVerifyMetrics(ctx context.Context, decision *Decision, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("status", string(decision.Status)),
	)

	verifyLatency.Record(ctx, duration.Seconds(), attrs)
	verifyTotal.Add(ctx, 1, attrs)
}
