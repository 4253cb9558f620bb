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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/AleutianAI/sentinel/services/sentinel/commander"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// indexedDataset produces samples whose code encodes their position, so
// tests can verify that concurrent scoring preserves sample order.
func indexedDataset(n int) *StaticDatasetLoader {
	samples := make([]CalibrationSample, n)
	for i := range samples {
		samples[i] = CalibrationSample{Code: fmt.Sprintf("sample_%03d", i)}
	}
	return &StaticDatasetLoader{Samples: samples, Label: "indexed"}
}

func TestRunnerProducesRecord(t *testing.T) {
	mock := scorer.NewMockScoringService()
	mock.ScoreFunc = func(ctx context.Context, code string) float64 {
		// sample_000 .. sample_099 score 0.00 .. 0.99.
		i, _ := strconv.Atoi(strings.TrimPrefix(code, "sample_"))
		return float64(i) / 100.0
	}
	store := commander.NewStaticCalibrationStore(nil)

	runner := NewRunner(mock, indexedDataset(100), store, &RunnerConfig{
		Alpha:      0.10,
		KeepScores: true,
		Logger:     quietLogger(),
	})

	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if record.QHat != 0.90 {
		t.Errorf("expected q_hat 0.90, got %f", record.QHat)
	}
	if record.NSamples != 100 {
		t.Errorf("expected 100 samples, got %d", record.NSamples)
	}
	if record.Scorer != "mock" {
		t.Errorf("expected scorer name on record, got %q", record.Scorer)
	}
	if record.Dataset != "indexed" {
		t.Errorf("expected dataset name on record, got %q", record.Dataset)
	}
	if record.DatasetHash == "" {
		t.Error("expected dataset hash on record")
	}
	if len(record.Scores) != 100 {
		t.Errorf("expected retained scores, got %d", len(record.Scores))
	}

	// The record must have been persisted.
	persisted, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if persisted == nil || persisted.QHat != record.QHat {
		t.Error("record was not persisted to the store")
	}
}

func TestRunnerNothingPersistedOnFailure(t *testing.T) {
	mock := scorer.NewMockScoringService()
	store := commander.NewStaticCalibrationStore(nil)

	// Three samples cannot satisfy alpha 0.10.
	runner := NewRunner(mock, indexedDataset(3), store, &RunnerConfig{
		Alpha:  0.10,
		Logger: quietLogger(),
	})

	_, err := runner.Run(context.Background())
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("expected ErrInsufficientSamples, got %v", err)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if persisted != nil {
		t.Error("failed run must not persist a record")
	}
}

func TestRunnerDatasetLoadFailureIsFatal(t *testing.T) {
	mock := scorer.NewMockScoringService()
	runner := NewRunner(mock, NewFileDatasetLoader("/nonexistent.jsonl"), nil, &RunnerConfig{
		Logger: quietLogger(),
	})

	_, err := runner.Run(context.Background())
	if !errors.Is(err, ErrDatasetLoad) {
		t.Errorf("expected ErrDatasetLoad, got %v", err)
	}
}

func TestRunnerParallelScoringPreservesOrder(t *testing.T) {
	mock := scorer.NewMockScoringService()
	mock.ScoreFunc = func(ctx context.Context, code string) float64 {
		i, _ := strconv.Atoi(strings.TrimPrefix(code, "sample_"))
		return float64(i) / 100.0
	}

	runner := NewRunner(mock, indexedDataset(100), nil, &RunnerConfig{
		Alpha:       0.10,
		Parallelism: 16,
		KeepScores:  true,
		Logger:      quietLogger(),
	})

	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Same inputs as the serial case must yield the same quantile.
	if record.QHat != 0.90 {
		t.Errorf("parallel scoring changed the quantile: got %f", record.QHat)
	}
	if mock.CallCount() != 100 {
		t.Errorf("expected every sample scored once, got %d calls", mock.CallCount())
	}
}

func TestRunnerFailClosedSamplesRaiseThreshold(t *testing.T) {
	// An all-benign corpus yields a low threshold; a corpus where scoring
	// fails closed on some samples saturates those scores at 1.0 and the
	// quantile rises with them.
	benign := scorer.NewMockScoringService()
	benign.Fallback = 0.0

	runner := NewRunner(benign, indexedDataset(100), nil, &RunnerConfig{
		Alpha:  0.10,
		Logger: quietLogger(),
	})
	clean, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	flaky := scorer.NewMockScoringService()
	flaky.ScoreFunc = func(ctx context.Context, code string) float64 {
		i, _ := strconv.Atoi(strings.TrimPrefix(code, "sample_"))
		if i%5 == 0 {
			return 1.0
		}
		return 0.0
	}
	runner = NewRunner(flaky, indexedDataset(100), nil, &RunnerConfig{
		Alpha:  0.10,
		Logger: quietLogger(),
	})
	degraded, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if degraded.QHat <= clean.QHat {
		t.Errorf("fail-closed samples should raise the quantile: clean %f, degraded %f",
			clean.QHat, degraded.QHat)
	}
}

func TestRunnerRecordsMeasuredInjectionRate(t *testing.T) {
	mock := scorer.NewMockScoringService()
	loader := &SyntheticDatasetLoader{N: 100}

	runner := NewRunner(mock, loader, nil, &RunnerConfig{
		Alpha:  0.10,
		Logger: quietLogger(),
	})
	record, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if record.InjectionRate != 0.2 {
		t.Errorf("expected measured injection rate 0.2, got %f", record.InjectionRate)
	}
}
