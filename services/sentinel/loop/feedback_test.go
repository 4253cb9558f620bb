// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loop

import (
	"fmt"
	"strings"
	"testing"

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

func TestBuildFeedbackNamesFindings(t *testing.T) {
	decision := reject(
		scorer.Finding{Category: "B301", Severity: scorer.SeverityMedium, Description: "pickle usage", Line: 4},
		scorer.Finding{Category: "B602", Severity: scorer.SeverityHigh, Description: "subprocess with shell=True", Line: 9},
	)

	fb := BuildFeedback(decision)
	for _, want := range []string{"B301", "B602", "MEDIUM", "HIGH", "line 4", "line 9"} {
		if !strings.Contains(fb, want) {
			t.Errorf("feedback missing %q:\n%s", want, fb)
		}
	}
}

func TestBuildFeedbackCarriesScoreAndThreshold(t *testing.T) {
	decision := reject(
		scorer.Finding{Category: "B602", Severity: scorer.SeverityHigh, Description: "subprocess with shell=True"},
	)

	fb := BuildFeedback(decision)
	if !strings.Contains(fb, "1.0000") || !strings.Contains(fb, "0.1000") {
		t.Errorf("feedback should state the score against the threshold, got:\n%s", fb)
	}
}

func TestBuildFeedbackPassYieldsNothing(t *testing.T) {
	if fb := BuildFeedback(pass()); fb != "" {
		t.Errorf("passing decision should yield no feedback, got %q", fb)
	}
	if fb := BuildFeedback(nil); fb != "" {
		t.Errorf("nil decision should yield no feedback, got %q", fb)
	}
}

func TestBuildFeedbackWithoutFindingsUsesReason(t *testing.T) {
	decision := &commander.Decision{
		Status: commander.StatusReject,
		Score:  1.0,
		Reason: "code could not be scanned (scanner binary not installed); unscannable code is never trusted",
	}

	fb := BuildFeedback(decision)
	if !strings.Contains(fb, "could not be scanned") {
		t.Errorf("feedback should carry the rejection reason, got %q", fb)
	}
}

func TestBuildFeedbackCapsFindingCount(t *testing.T) {
	var findings []scorer.Finding
	for i := 0; i < 12; i++ {
		findings = append(findings, scorer.Finding{
			Category:    fmt.Sprintf("B%03d", i),
			Severity:    scorer.SeverityLow,
			Description: "finding",
		})
	}

	fb := BuildFeedback(reject(findings...))
	if count := strings.Count(fb, "- [LOW]"); count > maxFeedbackFindings {
		t.Errorf("expected at most %d findings in feedback, got %d", maxFeedbackFindings, count)
	}
	if !strings.Contains(fb, "more findings") {
		t.Error("truncated feedback should note the hidden findings")
	}
}

func TestSanitizeLineFlattensMultilineText(t *testing.T) {
	text := "first line\nsecond   line\twith `backticks`"
	got := sanitizeLine(text)
	if strings.ContainsAny(got, "\n\t`") {
		t.Errorf("sanitized text still contains structure: %q", got)
	}
	if !strings.Contains(got, "first line second line") {
		t.Errorf("unexpected sanitized text: %q", got)
	}
}

func TestCorrectionPromptComposition(t *testing.T) {
	if got := CorrectionPrompt("task", ""); got != "task" {
		t.Errorf("empty feedback should leave the task untouched, got %q", got)
	}
	got := CorrectionPrompt("task", "feedback")
	if !strings.HasPrefix(got, "task") || !strings.Contains(got, "feedback") {
		t.Errorf("unexpected composed prompt: %q", got)
	}
}
