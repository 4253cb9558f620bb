// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package commander is the verification gate. It binds a scoring signal to a
// calibrated acceptance threshold and renders a PASS or REJECT decision for
// each piece of candidate code.
//
// The gate fails closed in both directions: code that cannot be scanned
// scores 1.0 and is rejected, and a missing or corrupt calibration record
// degrades to a conservative default threshold rather than letting
// everything through.
package commander

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

// DefaultThreshold is the acceptance threshold used when no calibration
// record can be loaded. It admits clean code (score 0.0) and code with at
// most one LOW finding (score 0.1) while rejecting MEDIUM and above.
const DefaultThreshold = 0.15

// Status is the outcome of a verification.
type Status string

const (
	// StatusPass means the code's score did not exceed the threshold.
	StatusPass Status = "PASS"

	// StatusReject means the code's score exceeded the threshold, or the
	// code could not be scanned at all.
	StatusReject Status = "REJECT"
)

// Decision is the result of verifying one piece of code.
type Decision struct {
	Status    Status  `json:"status"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Reason    string  `json:"reason"`
	LatencyMS float64 `json:"latency_ms"`

	// Findings carries the individual scanner findings when the scoring
	// signal exposes them. Empty for opaque scorers.
	Findings []scorer.Finding `json:"findings,omitempty"`
}

// Passed reports whether the decision admits the code.
func (d *Decision) Passed() bool {
	return d.Status == StatusPass
}

// thresholdState is the value held in the Commander's atomic slot. Source
// records where the threshold came from for logging and decision reasons.
type thresholdState struct {
	value  float64
	source string
}

// Config holds Commander construction options.
type Config struct {
	// DefaultThreshold overrides the package default fallback threshold.
	// Zero means use DefaultThreshold.
	DefaultThreshold float64

	// Override pins the threshold to a fixed value, bypassing the store
	// entirely. Nil means load from the store.
	Override *float64

	// Logger receives structured gate events. Nil means slog.Default.
	Logger *slog.Logger
}

// Commander gates candidate code behind a calibrated threshold.
//
// Thread Safety: Verify, Threshold, and Reload are safe for concurrent use.
// The threshold lives in an atomic.Value so reloads never block verifiers.
type Commander struct {
	scorer scorer.ScoringService
	store  CalibrationStore
	config Config
	logger *slog.Logger

	threshold atomic.Value // thresholdState
}

// New creates a Commander and performs the initial threshold load.
//
// Description:
//
//	A load failure is not fatal. The gate logs a warning and falls back to
//	the default threshold so verification stays available, at the cost of
//	a conservative bound.
//
// Inputs:
//   - sc: The scoring signal to gate with. Must not be nil.
//   - store: Source of calibration records. May be nil when config.Override
//     is set.
//   - config: Optional settings. Nil uses defaults.
//
// Outputs:
//   - *Commander: Ready to verify.
func New(sc scorer.ScoringService, store CalibrationStore, config *Config) *Commander {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.DefaultThreshold == 0 {
		cfg.DefaultThreshold = DefaultThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Commander{
		scorer: sc,
		store:  store,
		config: cfg,
		logger: cfg.Logger,
	}
	c.Reload()
	return c
}

// Threshold returns the acceptance threshold currently in effect.
func (c *Commander) Threshold() float64 {
	return c.threshold.Load().(thresholdState).value
}

// ThresholdSource describes where the current threshold came from: a
// calibration record, an operator override, or the built-in default.
func (c *Commander) ThresholdSource() string {
	return c.threshold.Load().(thresholdState).source
}

// Reload re-reads the calibration store and swaps in the new threshold.
//
// Description:
//
//	Called once at construction and again whenever the store changes (CLI
//	recalibration, file watcher event). Failures leave the gate running on
//	the fallback default and return the underlying error so callers can
//	surface it; they never take the gate down.
//
// Outputs:
//   - error: Non-nil when the store was unreadable or the record corrupt.
//     The fallback threshold is installed regardless.
func (c *Commander) Reload() error {
	if c.config.Override != nil {
		c.threshold.Store(thresholdState{value: *c.config.Override, source: "override"})
		c.logger.Info("threshold pinned by override", "threshold", *c.config.Override)
		return nil
	}

	if c.store == nil {
		c.threshold.Store(thresholdState{value: c.config.DefaultThreshold, source: "default"})
		c.logger.Warn("no calibration store configured, using default threshold",
			"threshold", c.config.DefaultThreshold)
		return nil
	}

	record, err := c.store.Load()
	if err != nil {
		c.threshold.Store(thresholdState{value: c.config.DefaultThreshold, source: "default"})
		c.logger.Warn("calibration record unavailable, using default threshold",
			"location", c.store.Location(),
			"threshold", c.config.DefaultThreshold,
			"error", err)
		return err
	}
	if record == nil {
		c.threshold.Store(thresholdState{value: c.config.DefaultThreshold, source: "default"})
		c.logger.Warn("no calibration record found, using default threshold",
			"location", c.store.Location(),
			"threshold", c.config.DefaultThreshold)
		return nil
	}

	if record.Scorer != "" && c.scorer != nil && record.Scorer != c.scorer.Name() {
		c.logger.Warn("calibration record was produced with a different scorer",
			"record_scorer", record.Scorer,
			"active_scorer", c.scorer.Name())
	}

	c.threshold.Store(thresholdState{value: record.QHat, source: "calibration"})
	c.logger.Info("calibration threshold loaded",
		"threshold", record.QHat,
		"alpha", record.Alpha,
		"n_samples", record.NSamples,
		"calibrated_at", record.CalibratedAt)
	return nil
}

// Verify scores the candidate code and renders a decision.
//
// Description:
//
//	The code passes if and only if its nonconformity score is less than or
//	equal to the threshold. Scores are produced fail-closed, so scanner
//	unavailability surfaces here as a score of 1.0, rejected at every
//	threshold below the maximum; the reason names the scan failure rather
//	than a finding. A saturated threshold of 1.0 admits everything,
//	including unscannable code.
//
// Inputs:
//   - ctx: Bounds the scan. Cancellation rejects the code.
//   - code: Candidate source text. May include markdown fences.
//
// Outputs:
//   - *Decision: Never nil.
func (c *Commander) Verify(ctx context.Context, code string) *Decision {
	start := time.Now()
	state := c.threshold.Load().(thresholdState)

	ctx, span := startVerifySpan(ctx, c.scorer.Name(), state.value)
	defer span.End()

	decision := &Decision{Threshold: state.value}

	if ev, ok := c.scorer.(scorer.Evaluator); ok {
		eval := ev.Evaluate(ctx, code)
		decision.Score = eval.Score
		decision.Findings = eval.Findings
		decision.Reason = c.reasonFor(eval, state.value)
		if eval.Score <= state.value {
			decision.Status = StatusPass
		} else {
			decision.Status = StatusReject
		}
	} else {
		decision.Score = c.scorer.Score(ctx, code)
		if decision.Score <= state.value {
			decision.Status = StatusPass
			decision.Reason = fmt.Sprintf("score %.4f within threshold %.4f", decision.Score, state.value)
		} else {
			decision.Status = StatusReject
			decision.Reason = fmt.Sprintf("score %.4f exceeds threshold %.4f", decision.Score, state.value)
		}
	}

	decision.LatencyMS = float64(time.Since(start).Microseconds()) / 1000.0

	setVerifySpanResult(span, decision)
	recordVerifyMetrics(ctx, decision, time.Since(start))

	c.logger.Info("verification decision",
		"status", string(decision.Status),
		"score", decision.Score,
		"threshold", state.value,
		"threshold_source", state.source,
		"latency_ms", decision.LatencyMS)

	return decision
}

// reasonFor renders a human-readable reason from a full evaluation. The
// accept/reject outcome depends only on score versus threshold; ParseOK
// only changes how the reason reads.
func (c *Commander) reasonFor(eval *scorer.Evaluation, threshold float64) string {
	if !eval.ParseOK {
		if eval.Score <= threshold {
			return fmt.Sprintf("code could not be scanned (%s); fail-closed score %.4f within threshold %.4f",
				eval.Cause, eval.Score, threshold)
		}
		return fmt.Sprintf("code could not be scanned (%s); unscannable code is never trusted", eval.Cause)
	}
	if eval.Score <= threshold {
		return fmt.Sprintf("code meets assurance standards (score %.4f, threshold %.4f)", eval.Score, threshold)
	}
	worst := eval.WorstFinding()
	if worst == nil {
		return fmt.Sprintf("score %.4f exceeds threshold %.4f", eval.Score, threshold)
	}
	return fmt.Sprintf("score %.4f exceeds threshold %.4f: %s finding %s (%s)",
		eval.Score, threshold, worst.Severity, worst.Category, summarize(worst.Description))
}

// summarize truncates a finding description to a single short line.
func summarize(text string) string {
	text = strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	const maxLen = 120
	if len(text) > maxLen {
		return text[:maxLen-3] + "..."
	}
	return text
}

// IsCorrupt reports whether the error chain indicates a corrupt record.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrRecordCorrupt)
}
