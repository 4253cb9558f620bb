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

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
)

// maxFeedbackFindings caps how many findings are fed back per attempt.
// Beyond a handful the model fixates on the list instead of the fix.
const maxFeedbackFindings = 5

// BuildFeedback renders a rejection decision as correction feedback for
// the generator.
//
// Description:
//
//	The feedback opens with the numeric score against the threshold, then
//	names each finding's category, severity, and line, with a sanitized
//	one-line description. Raw scanner output and raw generator output
//	never appear; the model only ever sees structured summaries of what
//	the gate objected to.
//
// Inputs:
//   - decision: A REJECT decision. PASS decisions yield empty feedback.
//
// Outputs:
//   - string: Feedback text for the next prompt.
func BuildFeedback(decision *commander.Decision) string {
	if decision == nil || decision.Passed() {
		return ""
	}

	var b strings.Builder
	b.WriteString("The previous solution was rejected by a security review.\n")
	b.WriteString(fmt.Sprintf("Risk score %.4f exceeded the acceptance threshold %.4f.\n",
		decision.Score, decision.Threshold))

	if len(decision.Findings) == 0 {
		b.WriteString(fmt.Sprintf("Reason: %s\n", sanitizeLine(decision.Reason)))
		b.WriteString("Rewrite the solution using only safe, standard constructs.\n")
		return b.String()
	}

	b.WriteString("Findings to fix:\n")
	shown := decision.Findings
	if len(shown) > maxFeedbackFindings {
		shown = shown[:maxFeedbackFindings]
	}
	for _, f := range shown {
		line := ""
		if f.Line > 0 {
			line = fmt.Sprintf(" (line %d)", f.Line)
		}
		b.WriteString(fmt.Sprintf("- [%s] %s%s: %s\n",
			f.Severity, f.Category, line, sanitizeLine(f.Description)))
	}
	if hidden := len(decision.Findings) - len(shown); hidden > 0 {
		b.WriteString(fmt.Sprintf("- and %d more findings of equal or lower severity\n", hidden))
	}
	b.WriteString("Produce a corrected solution that eliminates every finding above " +
		"without changing the requested behavior.\n")
	return b.String()
}

// CorrectionPrompt combines the original task with rejection feedback.
func CorrectionPrompt(task, feedback string) string {
	if feedback == "" {
		return task
	}
	return fmt.Sprintf("%s\n\n%s", task, feedback)
}

// sanitizeLine flattens text to a single bounded line. Scanner
// descriptions can contain newlines and markup that would break the
// feedback structure or smuggle instructions into the prompt.
func sanitizeLine(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "`", "'")
	text = strings.Join(strings.Fields(text), " ")
	const maxLen = 200
	if len(text) > maxLen {
		return text[:maxLen-3] + "..."
	}
	return text
}
