// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scorer computes deterministic non-conformity scores for code
// snippets.
//
// A score is a float in [0.0, 1.0] where 0.0 means the scanning signal
// found nothing and 1.0 means maximal risk or an unscannable input. The
// canonical implementation runs Bandit (Python SAST) as a subprocess over
// a temp file; additional regex-based signals and a composite combinator
// are provided for callers that want more than one signal.
//
// Scoring is fail-closed: any failure to evaluate (missing scanner binary,
// syntax error in the input, malformed scanner output, timeout) yields a
// score of 1.0 rather than an error. Code that cannot be assessed is never
// trusted.
//
// Thread Safety:
//
//	All scoring services in this package are safe for concurrent use.
//	Each call works on an independently named scratch file.
package scorer

import (
	"context"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the ordered severity of a single finding.
type Severity int

const (
	// SeverityNone means no finding was reported.
	SeverityNone Severity = iota

	// SeverityLow is for low-risk findings (style-adjacent security smells).
	SeverityLow

	// SeverityMedium is for findings that warrant review.
	SeverityMedium

	// SeverityHigh is for findings that should block acceptance outright.
	SeverityHigh
)

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// SeverityFromString parses a severity reported by the scanning signal.
// Unknown values map to SeverityLow so an unexpected label never silently
// zeroes a finding.
func SeverityFromString(s string) Severity {
	switch s {
	case "HIGH", "high", "critical":
		return SeverityHigh
	case "MEDIUM", "medium":
		return SeverityMedium
	case "LOW", "low":
		return SeverityLow
	case "NONE", "none", "":
		return SeverityNone
	default:
		return SeverityLow
	}
}

// ScoreForSeverity maps a severity to its non-conformity score.
//
// The table is fixed and monotonic: NONE 0.0, LOW 0.1, MEDIUM 0.5,
// HIGH 1.0. Only the single worst finding of a sample contributes to the
// score; repeated findings at the same severity do not raise it. Changing
// this table changes the meaning of every calibrated threshold, so it is
// deliberately not configurable.
func ScoreForSeverity(s Severity) float64 {
	switch s {
	case SeverityHigh:
		return 1.0
	case SeverityMedium:
		return 0.5
	case SeverityLow:
		return 0.1
	default:
		return 0.0
	}
}

// =============================================================================
// FINDINGS AND EVALUATIONS
// =============================================================================

// Finding is one issue reported by a scanning signal.
type Finding struct {
	// Category is a machine-readable identifier (e.g., Bandit test ID "B102").
	Category string `json:"category"`

	// Severity is the reported severity level.
	Severity Severity `json:"severity"`

	// Confidence is the signal's confidence label, if it reports one.
	Confidence string `json:"confidence,omitempty"`

	// Description is a human-readable description of the issue.
	Description string `json:"description,omitempty"`

	// Line is the 1-based line number in the scanned snippet, 0 if unknown.
	Line int `json:"line,omitempty"`
}

// Evaluation is the full result of scoring one code sample.
//
// Score is always populated; Findings and ParseOK carry detail for callers
// that build reason strings. When the signal could not run at all, Score is
// 1.0, ParseOK is false, and Cause names what went wrong.
type Evaluation struct {
	// Score is the non-conformity score in [0.0, 1.0].
	Score float64 `json:"score"`

	// Findings are the issues the signal reported, worst first.
	Findings []Finding `json:"findings,omitempty"`

	// ParseOK is false when the input failed to parse as valid code or the
	// signal could not be invoked at all.
	ParseOK bool `json:"parse_ok"`

	// Cause explains a fail-closed score, empty on a clean evaluation.
	Cause string `json:"cause,omitempty"`
}

// WorstFinding returns the highest-severity finding, or nil if there are none.
func (e *Evaluation) WorstFinding() *Finding {
	if len(e.Findings) == 0 {
		return nil
	}
	worst := &e.Findings[0]
	for i := range e.Findings[1:] {
		if e.Findings[i+1].Severity > worst.Severity {
			worst = &e.Findings[i+1]
		}
	}
	return worst
}

// =============================================================================
// SCORING SERVICE
// =============================================================================

// ScoringService is the capability interface for non-conformity scoring.
//
// Implementations must be deterministic: byte-identical code (after
// sanitization) always yields the same score for a fixed signal version.
// Score never returns an error; failure to evaluate is expressed as 1.0.
//
// Implementations must be safe for concurrent use.
type ScoringService interface {
	// Score computes the non-conformity score for a code snippet.
	//
	// Inputs:
	//   ctx - Context for cancellation and timeout.
	//   code - Raw code text, possibly wrapped in markdown fences.
	//
	// Outputs:
	//   float64 - Score in [0.0, 1.0]; 1.0 on any evaluation failure.
	Score(ctx context.Context, code string) float64

	// Name returns the signal name (e.g., "bandit", "pattern").
	Name() string
}

// Evaluator is implemented by scoring services that can expose findings
// alongside the scalar score. The Commander uses it to build reason strings
// that distinguish "scored high" from "could not be scanned".
type Evaluator interface {
	ScoringService

	// Evaluate scores the snippet and returns the full evaluation.
	// Like Score, it never fails: evaluation problems are folded into a
	// fail-closed result.
	Evaluate(ctx context.Context, code string) *Evaluation
}
