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
	"strings"
)

// =============================================================================
// COMPOSITE SCORER
// =============================================================================

// CompositeScorer combines multiple scoring signals into one.
//
// Description:
//
//	The composite score is the maximum of the child scores: a sample is as
//	risky as the most pessimistic signal says it is. This keeps the
//	fail-closed property intact (any child failing closed forces 1.0) and
//	keeps the combined score inside [0.0, 1.0] without re-normalization,
//	so thresholds calibrated against the composite remain meaningful.
//
//	Children are evaluated in order with early exit once 1.0 is reached,
//	so cheap in-process signals should be listed before subprocess ones.
//
// Thread Safety: CompositeScorer is safe for concurrent use when all of
// its children are.
type CompositeScorer struct {
	children []ScoringService
}

// NewCompositeScorer creates a composite over the given signals.
// At least one child is expected; a childless composite scores 1.0
// (nothing vouched for the sample).
func NewCompositeScorer(children ...ScoringService) *CompositeScorer {
	return &CompositeScorer{children: children}
}

// Name implements ScoringService. The name enumerates the child signals,
// e.g. "composite(pattern,bandit)".
func (s *CompositeScorer) Name() string {
	names := make([]string, len(s.children))
	for i, c := range s.children {
		names[i] = c.Name()
	}
	return "composite(" + strings.Join(names, ",") + ")"
}

// Score implements ScoringService.
func (s *CompositeScorer) Score(ctx context.Context, code string) float64 {
	return s.Evaluate(ctx, code).Score
}

// Evaluate implements Evaluator. Findings from all evaluated children are
// merged; the score is the worst child score.
func (s *CompositeScorer) Evaluate(ctx context.Context, code string) *Evaluation {
	if len(s.children) == 0 {
		return failClosed(ErrScannerNotInstalled)
	}

	merged := &Evaluation{ParseOK: true}
	for _, child := range s.children {
		var eval *Evaluation
		if ev, ok := child.(Evaluator); ok {
			eval = ev.Evaluate(ctx, code)
		} else {
			eval = &Evaluation{Score: child.Score(ctx, code), ParseOK: true}
		}

		merged.Findings = append(merged.Findings, eval.Findings...)
		if eval.Score > merged.Score {
			merged.Score = eval.Score
		}
		if !eval.ParseOK {
			merged.ParseOK = false
			if merged.Cause == "" {
				merged.Cause = child.Name() + ": " + eval.Cause
			}
		}

		// No child can push the score below the max already seen.
		if merged.Score >= 1.0 {
			break
		}
	}
	return merged
}

var _ Evaluator = (*CompositeScorer)(nil)
