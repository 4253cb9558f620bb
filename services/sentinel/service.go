// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sentinel assembles the verification gate from its parts: scoring
// signal, calibrated commander, code generator, correction loop, and audit
// history, and exposes them over HTTP and to the CLI.
package sentinel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/sentinel/services/sentinel/analyst"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/config"
	"github.com/AleutianAI/sentinel/services/sentinel/history"
	"github.com/AleutianAI/sentinel/services/sentinel/loop"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

// ServiceVersion is the gate service version.
const ServiceVersion = "0.1.0"

// Service holds the wired gate components.
//
// Thread Safety: all exported methods are safe for concurrent use.
type Service struct {
	settings  config.Settings
	scorer    scorer.Evaluator
	commander *commander.Commander
	generator analyst.Generator
	loop      *loop.Loop
	history   history.Store
	logger    *slog.Logger
}

// NewService wires a Service from settings.
//
// Description:
//
//	Builds the scoring signal (scanner, optionally composed with the
//	pattern and secret signals), loads the calibration threshold, opens
//	the history store, and constructs the generator backend. A missing
//	calibration record degrades to the default threshold; a missing
//	generator backend disables the loop endpoints but leaves verification
//	working.
//
// Outputs:
//   - *Service: Ready to serve. Call Close on shutdown.
//   - error: Non-nil when a hard dependency (history store) fails.
func NewService(settings config.Settings, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sc := buildScorer(settings.Scanner)

	store := commander.NewJSONCalibrationStore(settings.Calibration.RecordPath)
	cmd := commander.New(sc, store, &commander.Config{Logger: logger})

	var hist history.Store = history.NopStore{}
	if settings.History.Enabled {
		cfg := history.DefaultConfig(settings.History.Path)
		cfg.Retention = settings.History.Retention
		cfg.Logger = logger
		badgerStore, err := history.NewBadgerStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		hist = badgerStore
	}

	gen, err := buildGenerator(settings.Generator)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		settings:  settings,
		scorer:    sc,
		commander: cmd,
		generator: gen,
		history:   hist,
		logger:    logger,
	}
	if gen != nil {
		svc.loop = loop.New(gen, cmd, &loop.Config{
			MaxAttempts:    settings.Loop.MaxAttempts,
			AttemptTimeout: settings.Loop.AttemptTimeout,
			Logger:         logger,
		})
	}
	return svc, nil
}

// buildScorer constructs the scoring signal from scanner settings.
func buildScorer(cfg config.ScannerConfig) scorer.Evaluator {
	bandit := scorer.NewBanditScorer(&scorer.BanditConfig{
		Command: cfg.Command,
		Timeout: cfg.Timeout,
	})
	if !cfg.EnablePatterns && !cfg.EnableSecrets {
		return bandit
	}

	children := []scorer.ScoringService{bandit}
	if cfg.EnablePatterns {
		children = append(children, scorer.NewPatternScorer())
	}
	if cfg.EnableSecrets {
		children = append(children, scorer.NewSecretScorer())
	}
	return scorer.NewCompositeScorer(children...)
}

// buildGenerator constructs the generation backend, or nil for "none".
func buildGenerator(cfg config.GeneratorConfig) (analyst.Generator, error) {
	var gen analyst.Generator
	var err error

	switch cfg.Backend {
	case "openai":
		gen, err = analyst.NewOpenAIAnalyst()
	case "ollama":
		gen, err = analyst.NewOllamaAnalyst()
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s generator: %w", cfg.Backend, err)
	}

	if cfg.RequestsPerSecond > 0 {
		gen = analyst.NewRateLimitedGenerator(gen, cfg.RequestsPerSecond, cfg.Burst)
	}
	return gen, nil
}

// Verify scores one piece of candidate code and records the decision.
func (s *Service) Verify(ctx context.Context, code string) *commander.Decision {
	decision := s.commander.Verify(ctx, code)
	if err := s.history.RecordDecision(ctx, decision, code); err != nil {
		s.logger.Warn("failed to record decision", "error", err)
	}
	return decision
}

// RunLoop executes the correction loop for a task prompt.
func (s *Service) RunLoop(ctx context.Context, prompt string) (*loop.Outcome, error) {
	if s.loop == nil {
		return nil, ErrGeneratorDisabled
	}
	outcome, err := s.loop.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if err := s.history.RecordLoop(ctx, outcome); err != nil {
		s.logger.Warn("failed to record loop outcome", "error", err)
	}
	return outcome, nil
}

// Commander exposes the verification gate for CLI wiring (threshold
// watching, reloads).
func (s *Service) Commander() *commander.Commander {
	return s.commander
}

// Scorer exposes the active scoring signal.
func (s *Service) Scorer() scorer.Evaluator {
	return s.scorer
}

// RecentDecisions lists recent verification decisions, newest first.
func (s *Service) RecentDecisions(ctx context.Context, limit int) ([]history.DecisionEntry, error) {
	return s.history.RecentDecisions(ctx, limit)
}

// RecentLoops lists recent loop outcomes, newest first.
func (s *Service) RecentLoops(ctx context.Context, limit int) ([]history.LoopEntry, error) {
	return s.history.RecentLoops(ctx, limit)
}

// Close releases the history store.
func (s *Service) Close() error {
	return s.history.Close()
}
