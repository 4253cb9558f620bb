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
	"sync"
)

// MockScoringService is a mock implementation for testing.
//
// Thread Safety: MockScoringService is safe for concurrent use.
type MockScoringService struct {
	mu sync.RWMutex

	// ScoreFunc overrides Score behavior. When nil, Scores by exact-match
	// lookup in Responses, falling back to Fallback.
	ScoreFunc func(ctx context.Context, code string) float64

	// EvaluateFunc overrides Evaluate behavior.
	EvaluateFunc func(ctx context.Context, code string) *Evaluation

	// Responses maps sanitized code strings to fixed scores.
	Responses map[string]float64

	// Fallback is returned when no response matches. Zero value passes
	// everything, which is what most accept-path tests want.
	Fallback float64

	// Calls records every scored code string.
	Calls []string
}

// NewMockScoringService creates a mock with an empty response table.
func NewMockScoringService() *MockScoringService {
	return &MockScoringService{
		Responses: make(map[string]float64),
	}
}

// Name implements ScoringService.
func (m *MockScoringService) Name() string {
	return "mock"
}

// Score implements ScoringService.
func (m *MockScoringService) Score(ctx context.Context, code string) float64 {
	m.mu.Lock()
	m.Calls = append(m.Calls, code)
	m.mu.Unlock()

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, code)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if score, ok := m.Responses[Sanitize(code)]; ok {
		return score
	}
	return m.Fallback
}

// Evaluate implements Evaluator.
func (m *MockScoringService) Evaluate(ctx context.Context, code string) *Evaluation {
	if m.EvaluateFunc != nil {
		m.mu.Lock()
		m.Calls = append(m.Calls, code)
		m.mu.Unlock()
		return m.EvaluateFunc(ctx, code)
	}
	return &Evaluation{Score: m.Score(ctx, code), ParseOK: true}
}

// CallCount returns the number of scoring calls recorded.
func (m *MockScoringService) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Calls)
}

var _ Evaluator = (*MockScoringService)(nil)
