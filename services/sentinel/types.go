// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sentinel

import (
	"github.com/AleutianAI/sentinel/services/sentinel/loop"
)

// VerifyRequest is the body for POST /v1/sentinel/verify.
type VerifyRequest struct {
	// Code is the candidate source text. Markdown fences are tolerated.
	Code string `json:"code" binding:"required"`
}

// LoopRequest is the body for POST /v1/sentinel/loop.
type LoopRequest struct {
	// Prompt describes the code to generate.
	Prompt string `json:"prompt" binding:"required"`
}

// LoopResponse wraps a loop outcome for the API.
type LoopResponse struct {
	RequestID string         `json:"request_id"`
	State     loop.State     `json:"state"`
	Code      string         `json:"code,omitempty"`
	Attempts  []loop.Attempt `json:"attempts"`
}

// ThresholdResponse describes the threshold currently in effect.
type ThresholdResponse struct {
	Threshold float64 `json:"threshold"`
	Source    string  `json:"source"`
	Scorer    string  `json:"scorer"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
