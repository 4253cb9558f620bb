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
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/services/sentinel/analyst"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/config"
	"github.com/AleutianAI/sentinel/services/sentinel/history"
	"github.com/AleutianAI/sentinel/services/sentinel/loop"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testService wires a Service with a mock scorer and scripted generator so
// handler tests run without a scanner binary or LLM backend.
func testService(t *testing.T, mock *scorer.MockScoringService, gen analyst.Generator) *Service {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := commander.NewStaticCalibrationStore(&commander.CalibrationRecord{
		QHat: 0.1, Alpha: 0.1, NSamples: 100, CalibratedAt: time.Now(),
	})
	cmd := commander.New(mock, store, &commander.Config{Logger: logger})

	settings := config.DefaultSettings()
	settings.History.Enabled = false

	svc := &Service{
		settings:  settings,
		scorer:    mock,
		commander: cmd,
		generator: gen,
		history:   history.NopStore{},
		logger:    logger,
	}
	if gen != nil {
		svc.loop = loop.New(gen, cmd, &loop.Config{MaxAttempts: 3, Logger: logger})
	}
	return svc
}

func testRouter(svc *Service) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleVerifyPass(t *testing.T) {
	mock := scorer.NewMockScoringService()
	router := testRouter(testService(t, mock, nil))

	w := postJSON(router, "/v1/sentinel/verify", VerifyRequest{Code: "print('hi')"})
	require.Equal(t, http.StatusOK, w.Code)

	var decision commander.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, commander.StatusPass, decision.Status)
	assert.Equal(t, 0.1, decision.Threshold)
}

func TestHandleVerifyReject(t *testing.T) {
	mock := scorer.NewMockScoringService()
	mock.Fallback = 1.0
	router := testRouter(testService(t, mock, nil))

	w := postJSON(router, "/v1/sentinel/verify", VerifyRequest{Code: "exec(x)"})
	require.Equal(t, http.StatusOK, w.Code, "a REJECT is still a successful verification")

	var decision commander.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, commander.StatusReject, decision.Status)
}

func TestHandleVerifyValidation(t *testing.T) {
	mock := scorer.NewMockScoringService()
	router := testRouter(testService(t, mock, nil))

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank code", `{"code": "   "}`},
		{"malformed json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sentinel/verify", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleLoopAccepted(t *testing.T) {
	mock := scorer.NewMockScoringService()
	gen := analyst.NewMockGenerator("def ok():\n    pass\n")
	router := testRouter(testService(t, mock, gen))

	w := postJSON(router, "/v1/sentinel/loop", LoopRequest{Prompt: "write a function"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoopResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, loop.StateAccepted, resp.State)
	assert.NotEmpty(t, resp.Code)
	assert.Len(t, resp.Attempts, 1)
}

func TestHandleLoopExhausted(t *testing.T) {
	mock := scorer.NewMockScoringService()
	mock.Fallback = 1.0
	gen := analyst.NewMockGenerator()
	gen.Fallback = "exec(x)"
	router := testRouter(testService(t, mock, gen))

	w := postJSON(router, "/v1/sentinel/loop", LoopRequest{Prompt: "task"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoopResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, loop.StateExhausted, resp.State)
	assert.Empty(t, resp.Code)
	assert.Len(t, resp.Attempts, 3)
	assert.Equal(t, 3, gen.CallCount())
}

func TestHandleLoopGeneratorDisabled(t *testing.T) {
	mock := scorer.NewMockScoringService()
	router := testRouter(testService(t, mock, nil))

	w := postJSON(router, "/v1/sentinel/loop", LoopRequest{Prompt: "task"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GENERATOR_DISABLED", resp.Code)
}

func TestHandleThreshold(t *testing.T) {
	mock := scorer.NewMockScoringService()
	router := testRouter(testService(t, mock, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/sentinel/threshold", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ThresholdResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.1, resp.Threshold)
	assert.Equal(t, "calibration", resp.Source)
	assert.Equal(t, "mock", resp.Scorer)
}

func TestHandleHealth(t *testing.T) {
	mock := scorer.NewMockScoringService()
	router := testRouter(testService(t, mock, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/sentinel/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleDecisionsHistory(t *testing.T) {
	mock := scorer.NewMockScoringService()
	svc := testService(t, mock, nil)

	store, err := history.NewBadgerStore(history.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc.history = store

	router := testRouter(svc)

	// Record two decisions through the service.
	postJSON(router, "/v1/sentinel/verify", VerifyRequest{Code: "a = 1"})
	postJSON(router, "/v1/sentinel/verify", VerifyRequest{Code: "b = 2"})

	req := httptest.NewRequest(http.MethodGet, "/v1/sentinel/history/decisions?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}
