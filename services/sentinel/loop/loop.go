// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loop drives bounded generate-verify-correct cycles. A generator
// produces candidate code, the verification gate scores it, and rejected
// attempts feed structured findings back into the next prompt until the
// code passes or the attempt budget runs out.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/sentinel/services/sentinel/analyst"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
)

// State is the loop's position in its lifecycle.
type State string

const (
	// StateGenerating means a generation call is in flight.
	StateGenerating State = "GENERATING"

	// StateVerifying means a candidate is being scored.
	StateVerifying State = "VERIFYING"

	// StateAccepted is terminal: a candidate passed the gate.
	StateAccepted State = "ACCEPTED"

	// StateExhausted is terminal: the attempt budget ran out without an
	// accepted candidate.
	StateExhausted State = "EXHAUSTED"
)

// Terminal reports whether the state ends the loop.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted
}

// DefaultMaxAttempts bounds the correction loop. Three attempts covers the
// common fix-on-feedback case without letting a stuck model burn budget.
const DefaultMaxAttempts = 3

// Verifier renders a decision for candidate code. Satisfied by
// *commander.Commander.
type Verifier interface {
	Verify(ctx context.Context, code string) *commander.Decision
}

// Attempt records one generate-verify cycle.
type Attempt struct {
	// Number is 1-based.
	Number int `json:"number"`

	// Code is the raw generator output. Empty when generation failed.
	Code string `json:"code,omitempty"`

	// Decision is the gate's verdict. Nil when generation failed and
	// there was nothing to verify.
	Decision *commander.Decision `json:"decision,omitempty"`

	// GenerationError records a failed or timed-out generation call.
	// A failed generation still consumes an attempt.
	GenerationError string `json:"generation_error,omitempty"`

	// Feedback is the correction feedback derived from this attempt and
	// sent with the next prompt. Empty on terminal attempts.
	Feedback string `json:"feedback,omitempty"`
}

// Outcome is the loop's final result.
type Outcome struct {
	// RequestID correlates the outcome with logs and history.
	RequestID string `json:"request_id"`

	// State is StateAccepted or StateExhausted.
	State State `json:"state"`

	// Code is the accepted candidate. Empty when exhausted.
	Code string `json:"code,omitempty"`

	// Attempts holds every cycle in order.
	Attempts []Attempt `json:"attempts"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Accepted reports whether the loop produced passing code.
func (o *Outcome) Accepted() bool {
	return o.State == StateAccepted
}

// Config holds loop settings.
type Config struct {
	// MaxAttempts bounds the number of generate-verify cycles. Zero means
	// DefaultMaxAttempts.
	MaxAttempts int

	// AttemptTimeout bounds each generation call. Zero means no
	// per-attempt bound beyond the run context. A timed-out generation
	// consumes its attempt.
	AttemptTimeout time.Duration

	// Params is passed through to the generator on every call.
	Params analyst.GenerationParams

	// Logger receives loop progress. Nil means slog.Default.
	Logger *slog.Logger
}

// Loop binds a generator to a verifier.
//
// Thread Safety: Run is safe for concurrent use; each call owns its state.
type Loop struct {
	generator analyst.Generator
	verifier  Verifier
	config    Config
	logger    *slog.Logger
}

// New creates a correction loop.
func New(gen analyst.Generator, verifier Verifier, config *Config) *Loop {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		generator: gen,
		verifier:  verifier,
		config:    cfg,
		logger:    cfg.Logger,
	}
}

// Run executes the loop for one task prompt.
//
// Description:
//
//	Each cycle generates a candidate, verifies it, and on rejection folds
//	the gate's findings into the next prompt as structured feedback. The
//	loop never re-sends raw generator output or raw scanner output to the
//	model. Generation failures consume an attempt, so a dead backend
//	exhausts the loop instead of spinning it.
//
// Inputs:
//   - ctx: Bounds the whole run. Cancellation returns the context error
//     with the attempts made so far discarded.
//   - prompt: The task description for the generator.
//
// Outputs:
//   - *Outcome: Terminal state plus the full attempt history.
//   - error: Only context cancellation. Exhaustion is an Outcome, not an
//     error.
func (l *Loop) Run(ctx context.Context, prompt string) (*Outcome, error) {
	outcome := &Outcome{
		RequestID: uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger := l.logger.With("request_id", outcome.RequestID)
	logger.Info("correction loop started", "max_attempts", l.config.MaxAttempts)

	currentPrompt := prompt
	for n := 1; n <= l.config.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("correction loop cancelled: %w", err)
		}

		attempt := Attempt{Number: n}
		logger.Debug("attempt started", "state", string(StateGenerating), "attempt", n)

		code, err := l.generate(ctx, currentPrompt)
		if err != nil {
			attempt.GenerationError = err.Error()
			outcome.Attempts = append(outcome.Attempts, attempt)
			logger.Warn("generation failed, attempt consumed", "attempt", n, "error", err)
			continue
		}
		attempt.Code = code

		logger.Debug("attempt verifying", "state", string(StateVerifying), "attempt", n)
		decision := l.verifier.Verify(ctx, code)
		attempt.Decision = decision

		if decision.Passed() {
			outcome.Attempts = append(outcome.Attempts, attempt)
			outcome.State = StateAccepted
			outcome.Code = code
			outcome.FinishedAt = time.Now().UTC()
			logger.Info("candidate accepted", "attempt", n, "score", decision.Score)
			return outcome, nil
		}

		feedback := BuildFeedback(decision)
		if n < l.config.MaxAttempts {
			attempt.Feedback = feedback
			currentPrompt = CorrectionPrompt(prompt, feedback)
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
		logger.Info("candidate rejected", "attempt", n,
			"score", decision.Score, "reason", decision.Reason)
	}

	outcome.State = StateExhausted
	outcome.FinishedAt = time.Now().UTC()
	logger.Warn("correction loop exhausted", "attempts", len(outcome.Attempts))
	return outcome, nil
}

// generate runs one generation call under the per-attempt timeout.
func (l *Loop) generate(ctx context.Context, prompt string) (string, error) {
	if l.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.AttemptTimeout)
		defer cancel()
	}
	return l.generator.Generate(ctx, prompt, l.config.Params)
}
