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
	"encoding/json"
	"fmt"
)

// =============================================================================
// BANDIT JSON PARSER
// =============================================================================

// banditReport represents the JSON output of `bandit -f json`.
type banditReport struct {
	Errors  []banditError  `json:"errors"`
	Results []banditResult `json:"results"`
}

// banditError is reported when a file could not be analyzed, most commonly
// because it failed to parse as Python.
type banditError struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type banditResult struct {
	TestID          string `json:"test_id"`
	IssueSeverity   string `json:"issue_severity"`
	IssueConfidence string `json:"issue_confidence"`
	IssueText       string `json:"issue_text"`
	LineNumber      int    `json:"line_number"`
}

// parseBanditReport converts raw Bandit JSON into an Evaluation.
//
// Description:
//
//	Decodes the report, folds decode failures and analysis errors
//	(syntax errors in the scanned snippet) into fail-closed evaluations,
//	and otherwise scores the single worst finding. A snippet with many
//	findings at one severity scores the same as a snippet with one; the
//	score reflects worst severity, not finding count.
//
// Inputs:
//
//	data - Raw JSON from the scanner's stdout.
//
// Outputs:
//
//	*Evaluation - Never nil; fail-closed (score 1.0) on any parse problem.
func parseBanditReport(data []byte) *Evaluation {
	var report banditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return failClosed(fmt.Errorf("%w: %v", ErrParseOutput, err))
	}

	// Bandit reports analysis errors (syntax errors in the input) in a
	// separate array. The snippet was not analyzed, so it cannot be trusted.
	if len(report.Errors) > 0 {
		return failClosed(fmt.Errorf("%w: %s", ErrUnparsableInput, report.Errors[0].Reason))
	}

	if len(report.Results) == 0 {
		return &Evaluation{Score: 0.0, ParseOK: true}
	}

	findings := make([]Finding, 0, len(report.Results))
	worst := SeverityNone
	for _, r := range report.Results {
		sev := SeverityFromString(r.IssueSeverity)
		findings = append(findings, Finding{
			Category:    r.TestID,
			Severity:    sev,
			Confidence:  r.IssueConfidence,
			Description: r.IssueText,
			Line:        r.LineNumber,
		})
		if sev > worst {
			worst = sev
		}
	}

	return &Evaluation{
		Score:    ScoreForSeverity(worst),
		Findings: findings,
		ParseOK:  true,
	}
}
