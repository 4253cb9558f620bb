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
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers contains the HTTP handlers for the gate.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc, logger: svc.logger}
}

// getOrCreateRequestID returns the X-Request-ID header, minting one when
// the caller did not supply it.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleVerify handles POST /v1/sentinel/verify.
//
// Description:
//
//	Scores the submitted code and returns the gate's decision. Always
//	returns 200 with the decision body; a REJECT is a successful
//	verification, not an HTTP error.
//
// Response:
//
//	200 OK: commander.Decision
//	400 Bad Request: Validation error
func (h *Handlers) HandleVerify(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleVerify")

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrEmptyCode.Error(),
			Code:  "EMPTY_CODE",
		})
		return
	}

	logger.Info("Verifying candidate", "code_bytes", len(req.Code))
	decision := h.svc.Verify(c.Request.Context(), req.Code)
	c.Header("X-Request-ID", requestID)
	c.JSON(http.StatusOK, decision)
}

// HandleLoop handles POST /v1/sentinel/loop.
//
// Description:
//
//	Runs the bounded generate-verify-correct loop for the given prompt.
//	An exhausted loop is still a 200; the outcome body carries the state.
//
// Response:
//
//	200 OK: LoopResponse
//	400 Bad Request: Validation error
//	503 Service Unavailable: Generator backend disabled
func (h *Handlers) HandleLoop(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleLoop")

	var req LoopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrEmptyPrompt.Error(),
			Code:  "EMPTY_PROMPT",
		})
		return
	}

	outcome, err := h.svc.RunLoop(c.Request.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, ErrGeneratorDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: "Generator backend is disabled",
				Code:  "GENERATOR_DISABLED",
			})
			return
		}
		logger.Error("Loop failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Correction loop failed",
			Code:  "LOOP_FAILED",
		})
		return
	}

	c.Header("X-Request-ID", requestID)
	c.JSON(http.StatusOK, LoopResponse{
		RequestID: outcome.RequestID,
		State:     outcome.State,
		Code:      outcome.Code,
		Attempts:  outcome.Attempts,
	})
}

// HandleThreshold handles GET /v1/sentinel/threshold.
func (h *Handlers) HandleThreshold(c *gin.Context) {
	c.JSON(http.StatusOK, ThresholdResponse{
		Threshold: h.svc.commander.Threshold(),
		Source:    h.svc.commander.ThresholdSource(),
		Scorer:    h.svc.scorer.Name(),
	})
}

// HandleThresholdReload handles POST /v1/sentinel/threshold/reload.
//
// Description:
//
//	Re-reads the calibration record. The gate keeps running on the
//	fallback even when the reload fails, so failures are reported in the
//	body, not as a 5xx.
func (h *Handlers) HandleThresholdReload(c *gin.Context) {
	if err := h.svc.commander.Reload(); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"threshold": h.svc.commander.Threshold(),
			"source":    h.svc.commander.ThresholdSource(),
			"warning":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ThresholdResponse{
		Threshold: h.svc.commander.Threshold(),
		Source:    h.svc.commander.ThresholdSource(),
		Scorer:    h.svc.scorer.Name(),
	})
}

// HandleDecisions handles GET /v1/sentinel/history/decisions.
func (h *Handlers) HandleDecisions(c *gin.Context) {
	limit := parseLimit(c, 50)
	entries, err := h.svc.RecentDecisions(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list decisions", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read history",
			Code:  "HISTORY_READ_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": entries, "count": len(entries)})
}

// HandleLoops handles GET /v1/sentinel/history/loops.
func (h *Handlers) HandleLoops(c *gin.Context) {
	limit := parseLimit(c, 50)
	entries, err := h.svc.RecentLoops(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list loops", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read history",
			Code:  "HISTORY_READ_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loops": entries, "count": len(entries)})
}

// HandleHealth handles GET /v1/sentinel/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: ServiceVersion})
}

// parseLimit reads the limit query parameter with a default cap.
func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}
