// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package commander

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	store := NewJSONCalibrationStore(path)

	record := &CalibrationRecord{
		QHat:          0.1,
		Alpha:         0.1,
		NSamples:      100,
		InjectionRate: 0.2,
		Scores:        []float64{0.0, 0.1, 0.5, 1.0},
		Dataset:       "synthetic",
		Scorer:        "bandit",
		CalibratedAt:  time.Now().UTC(),
	}
	if err := store.Save(record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a record, got nil")
	}
	if loaded.QHat != record.QHat {
		t.Errorf("q_hat mismatch: got %f, want %f", loaded.QHat, record.QHat)
	}
	if loaded.NSamples != record.NSamples {
		t.Errorf("n_samples mismatch: got %d, want %d", loaded.NSamples, record.NSamples)
	}
	if len(loaded.Scores) != len(record.Scores) {
		t.Errorf("scores mismatch: got %d entries, want %d", len(loaded.Scores), len(record.Scores))
	}
}

func TestJSONStoreMissingFileIsNotAnError(t *testing.T) {
	store := NewJSONCalibrationStore(filepath.Join(t.TempDir(), "nope.json"))

	record, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should load as nil, got error: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil record, got %+v", record)
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewJSONCalibrationStore(path)

	_, err := store.Load()
	if !errors.Is(err, ErrRecordCorrupt) {
		t.Errorf("expected ErrRecordCorrupt, got %v", err)
	}
}

func TestJSONStoreRejectsInvalidRecord(t *testing.T) {
	store := NewJSONCalibrationStore(filepath.Join(t.TempDir(), "calibration.json"))

	tests := []struct {
		name   string
		record *CalibrationRecord
	}{
		{"q_hat above one", &CalibrationRecord{QHat: 1.5, Alpha: 0.1, NSamples: 10}},
		{"negative q_hat", &CalibrationRecord{QHat: -0.1, Alpha: 0.1, NSamples: 10}},
		{"alpha out of range", &CalibrationRecord{QHat: 0.1, Alpha: 1.0, NSamples: 10}},
		{"zero samples", &CalibrationRecord{QHat: 0.1, Alpha: 0.1, NSamples: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Save(tt.record); err == nil {
				t.Error("expected save to reject invalid record")
			}
		})
	}
}

func TestJSONStoreLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONCalibrationStore(filepath.Join(dir, "calibration.json"))

	record := &CalibrationRecord{QHat: 0.1, Alpha: 0.1, NSamples: 10, CalibratedAt: time.Now()}
	for i := 0; i < 3; i++ {
		if err := store.Save(record); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the record file, found %d entries", len(entries))
	}
}

func TestWatcherReloadsOnRecordChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	store := NewJSONCalibrationStore(path)
	if err := store.Save(&CalibrationRecord{
		QHat: 0.1, Alpha: 0.1, NSamples: 50, CalibratedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	mock := scorer.NewMockScoringService()
	c := New(mock, store, &Config{Logger: quietLogger()})
	if c.Threshold() != 0.1 {
		t.Fatalf("expected initial threshold 0.1, got %f", c.Threshold())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		WatchCalibrationFile(ctx, c, path, quietLogger())
	}()

	// Give the watcher time to establish before changing the record.
	time.Sleep(200 * time.Millisecond)
	if err := store.Save(&CalibrationRecord{
		QHat: 0.4, Alpha: 0.1, NSamples: 200, CalibratedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for c.Threshold() != 0.4 {
		select {
		case <-deadline:
			t.Fatalf("threshold never reloaded, still %f", c.Threshold())
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
