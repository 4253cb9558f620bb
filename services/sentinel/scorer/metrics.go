// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scorer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for scoring operations.
var (
	tracer = otel.Tracer("sentinel.scorer")
	meter  = otel.Meter("sentinel.scorer")
)

// Metrics for scoring operations.
var (
	scanLatency    metric.Float64Histogram
	scanTotal      metric.Int64Counter
	scoreObserved  metric.Float64Histogram
	failClosedHits metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		scanLatency, err = meter.Float64Histogram(
			"scorer_scan_duration_seconds",
			metric.WithDescription("Duration of scoring operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		scanTotal, err = meter.Int64Counter(
			"scorer_scans_total",
			metric.WithDescription("Total number of scoring operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		scoreObserved, err = meter.Float64Histogram(
			"scorer_score",
			metric.WithDescription("Distribution of non-conformity scores"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		failClosedHits, err = meter.Int64Counter(
			"scorer_fail_closed_total",
			metric.WithDescription("Scoring calls that failed closed to 1.0"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startScanSpan creates a span for a scoring operation.
func startScanSpan(ctx context.Context, signal string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Scorer.Evaluate",
		trace.WithAttributes(
			attribute.String("scorer.signal", signal),
		),
	)
}

// setScanSpanResult sets the result attributes on a scoring span.
func setScanSpanResult(span trace.Span, eval *Evaluation) {
	span.SetAttributes(
		attribute.Float64("scorer.score", eval.Score),
		attribute.Int("scorer.finding_count", len(eval.Findings)),
		attribute.Bool("scorer.parse_ok", eval.ParseOK),
	)
}

// recordScanMetrics records metrics for one scoring operation.
func recordScanMetrics(ctx context.Context, signal string, duration time.Duration, eval *Evaluation) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("signal", signal),
	)

	scanLatency.Record(ctx, duration.Seconds(), attrs)
	scanTotal.Add(ctx, 1, attrs)
	scoreObserved.Record(ctx, eval.Score, attrs)

	if !eval.ParseOK {
		failClosedHits.Add(ctx, 1, attrs)
	}
}
