// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

// RunnerConfig holds calibration run settings.
type RunnerConfig struct {
	// Alpha is the miscoverage level. Zero means DefaultAlpha.
	Alpha float64

	// Limit caps the number of samples drawn from the loader. Zero means
	// all available.
	Limit int

	// InjectionRate replaces a fraction of loaded samples with vulnerable
	// code before scoring. Zero means no injection here (the loader may
	// have injected already); the record reports whichever applied.
	InjectionRate float64

	// Seed fixes injection positions when InjectionRate > 0.
	Seed int64

	// Parallelism bounds concurrent scoring calls. Zero means 4. Scoring
	// shells out to an external scanner per sample, so this is a process
	// cap, not a goroutine cap.
	Parallelism int

	// KeepScores retains the sorted score list on the record.
	KeepScores bool

	// Notes is copied onto the record verbatim.
	Notes string

	// Logger receives run progress. Nil means slog.Default.
	Logger *slog.Logger
}

// Runner executes calibration end to end: load samples, score them with
// the verification-time signal, compute the conformal quantile, and
// persist the record.
type Runner struct {
	scorer scorer.ScoringService
	loader DatasetLoader
	store  commander.CalibrationStore
	config RunnerConfig
	logger *slog.Logger
}

// NewRunner creates a calibration runner.
//
// Inputs:
//   - sc: The scoring signal. Must be the same signal the gate verifies
//     with; a threshold is only valid against its own scorer.
//   - loader: Sample source. Must not be nil.
//   - store: Where to persist the record. Nil skips persistence, which the
//     dry-run CLI mode uses.
//   - config: Optional settings. Nil uses defaults.
func NewRunner(sc scorer.ScoringService, loader DatasetLoader, store commander.CalibrationStore, config *RunnerConfig) *Runner {
	cfg := RunnerConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Alpha == 0 {
		cfg.Alpha = DefaultAlpha
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		scorer: sc,
		loader: loader,
		store:  store,
		config: cfg,
		logger: cfg.Logger,
	}
}

// Run performs one calibration.
//
// Description:
//
//	Samples are scored concurrently under the configured parallelism cap.
//	Scoring itself never errors (unscannable samples score 1.0 and push
//	the threshold down, which is the conservative direction), so the only
//	failure modes are dataset load, insufficient samples, and persistence.
//	Nothing is persisted on failure.
//
// Outputs:
//   - *commander.CalibrationRecord: The persisted record.
//   - error: ErrDatasetLoad, ErrInsufficientSamples, ErrInvalidAlpha, or a
//     store error.
func (r *Runner) Run(ctx context.Context) (*commander.CalibrationRecord, error) {
	start := time.Now()

	samples, err := r.loader.Load(ctx, r.config.Limit)
	if err != nil {
		return nil, err
	}

	injectionRate := r.config.InjectionRate
	if injectionRate > 0 {
		seed := r.config.Seed
		if seed == 0 {
			seed = 1
		}
		InjectVulnerabilities(samples, injectionRate, rand.New(rand.NewSource(seed)))
	} else {
		injectionRate = measureInjection(samples)
	}

	r.logger.Info("calibration started",
		"dataset", r.loader.Name(),
		"samples", len(samples),
		"alpha", r.config.Alpha,
		"injection_rate", injectionRate,
		"scorer", r.scorer.Name())

	scores, err := r.scoreAll(ctx, samples)
	if err != nil {
		return nil, err
	}

	qHat, err := Quantile(scores, r.config.Alpha)
	if err != nil {
		return nil, err
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	record := &commander.CalibrationRecord{
		QHat:          qHat,
		Alpha:         r.config.Alpha,
		NSamples:      len(scores),
		InjectionRate: injectionRate,
		Dataset:       r.loader.Name(),
		DatasetHash:   DatasetHash(samples),
		Scorer:        r.scorer.Name(),
		CalibratedAt:  time.Now().UTC(),
		Notes:         r.config.Notes,
	}
	if r.config.KeepScores {
		record.Scores = sorted
	}

	if r.store != nil {
		if err := r.store.Save(record); err != nil {
			return nil, fmt.Errorf("persist calibration record: %w", err)
		}
	}

	r.logger.Info("calibration complete",
		"q_hat", qHat,
		"samples", len(scores),
		"duration", time.Since(start).Round(time.Millisecond))

	return record, nil
}

// scoreAll scores every sample concurrently, preserving sample order.
func (r *Runner) scoreAll(ctx context.Context, samples []CalibrationSample) ([]float64, error) {
	scores := make([]float64, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Parallelism)
	for i, sample := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = r.scorer.Score(gctx, sample.Code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calibration scoring interrupted: %w", err)
	}
	return scores, nil
}

// measureInjection reports the injected fraction already present.
func measureInjection(samples []CalibrationSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	injected := 0
	for _, s := range samples {
		if s.Injected {
			injected++
		}
	}
	return float64(injected) / float64(len(samples))
}
