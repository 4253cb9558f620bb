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
	"testing"
)

func TestCompositeScorer_TakesMax(t *testing.T) {
	low := NewMockScoringService()
	low.Fallback = 0.1
	mid := NewMockScoringService()
	mid.Fallback = 0.5

	s := NewCompositeScorer(low, mid)

	if got := s.Score(context.Background(), "x = 1"); got != 0.5 {
		t.Errorf("Score = %v, want 0.5 (max of children)", got)
	}
}

func TestCompositeScorer_ShortCircuitsAtMax(t *testing.T) {
	first := NewMockScoringService()
	first.Fallback = 1.0
	second := NewMockScoringService()

	s := NewCompositeScorer(first, second)
	if got := s.Score(context.Background(), "eval(x)"); got != 1.0 {
		t.Fatalf("Score = %v, want 1.0", got)
	}
	if second.CallCount() != 0 {
		t.Errorf("second child was called %d times after 1.0 reached, want 0", second.CallCount())
	}
}

func TestCompositeScorer_FailClosedPropagates(t *testing.T) {
	clean := NewMockScoringService()
	broken := NewMockScoringService()
	broken.EvaluateFunc = func(ctx context.Context, code string) *Evaluation {
		return failClosed(ErrScannerNotInstalled)
	}

	s := NewCompositeScorer(clean, broken)
	eval := s.Evaluate(context.Background(), "print('hi')")

	if eval.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", eval.Score)
	}
	if eval.ParseOK {
		t.Error("ParseOK = true, want false when any child fails closed")
	}
}

func TestCompositeScorer_MergesFindings(t *testing.T) {
	pattern := NewPatternScorer()
	secrets := NewSecretScorer()
	s := NewCompositeScorer(secrets, pattern)

	eval := s.Evaluate(context.Background(), "password = 'hunter2'\nassert ok")

	if eval.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5", eval.Score)
	}
	if len(eval.Findings) != 2 {
		t.Errorf("Findings = %d, want 2 (one per signal)", len(eval.Findings))
	}
}

func TestCompositeScorer_NoChildrenFailsClosed(t *testing.T) {
	s := NewCompositeScorer()
	if got := s.Score(context.Background(), "x = 1"); got != 1.0 {
		t.Errorf("Score = %v, want 1.0 for childless composite", got)
	}
}

func TestCompositeScorer_Name(t *testing.T) {
	s := NewCompositeScorer(NewPatternScorer(), NewSecretScorer())
	if got := s.Name(); got != "composite(pattern,secrets)" {
		t.Errorf("Name() = %q, want composite(pattern,secrets)", got)
	}
}
