package analyst

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is a scripted Generator for testing. Each call consumes the
// next entry in Script; when the script runs out, Fallback is returned.
//
// Thread Safety: MockGenerator is safe for concurrent use.
type MockGenerator struct {
	mu sync.Mutex

	// Script is consumed one entry per call.
	Script []string

	// Errs maps call numbers (0-based) to errors. A scripted error still
	// consumes the script entry for that call.
	Errs map[int]error

	// Fallback is returned after the script is exhausted.
	Fallback string

	// Prompts records every prompt received.
	Prompts []string

	calls int
}

// NewMockGenerator creates a mock that replays the given outputs in order.
func NewMockGenerator(script ...string) *MockGenerator {
	return &MockGenerator{Script: script}
}

// Generate implements the Generator interface.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("generation cancelled: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.calls
	m.calls++
	m.Prompts = append(m.Prompts, prompt)

	if err, ok := m.Errs[call]; ok {
		return "", err
	}
	if call < len(m.Script) {
		return m.Script[call], nil
	}
	return m.Fallback, nil
}

// CallCount returns the number of Generate calls received.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Generator = (*MockGenerator)(nil)
