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
	"regexp"
	"strings"
)

// =============================================================================
// CODE SANITIZER
// =============================================================================

// Markdown fence patterns. LLMs habitually wrap generated code in
// ```python ... ``` blocks; the fences must be removed before scanning or
// the scanner sees a syntax error and every snippet fails closed.
var (
	startFencePattern = regexp.MustCompile("(?m)^```[a-zA-Z]*\n")
	endFencePattern   = regexp.MustCompile("(?m)\n```$")
)

// Sanitize strips markdown code fences and surrounding whitespace.
//
// Description:
//
//	Removes a leading ```lang fence line and a trailing ``` fence, then
//	trims whitespace. This is the only text transformation permitted
//	before scanning: the content inside the fences is never altered, so
//	sanitization cannot change what the scanner sees semantically.
//
// Inputs:
//
//	code - Raw code string, possibly fence-wrapped.
//
// Outputs:
//
//	string - Cleaned code ready for analysis. Empty input stays empty.
func Sanitize(code string) string {
	if code == "" {
		return ""
	}

	cleaned := strings.TrimSpace(code)
	cleaned = startFencePattern.ReplaceAllString(cleaned, "")
	cleaned = endFencePattern.ReplaceAllString(cleaned, "")

	return strings.TrimSpace(cleaned)
}
