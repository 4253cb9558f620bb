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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ============================================================================
// Calibration record
// ============================================================================

// CalibrationRecord captures the output of a calibration run together with
// the provenance a reviewer needs to audit the threshold.
type CalibrationRecord struct {
	// QHat is the conformal quantile used as the acceptance threshold.
	QHat float64 `json:"q_hat"`

	// Alpha is the miscoverage level the quantile was computed at.
	Alpha float64 `json:"alpha"`

	// NSamples is the number of calibration samples scored.
	NSamples int `json:"n_samples"`

	// InjectionRate is the fraction of samples that were synthetically
	// replaced with known-vulnerable code.
	InjectionRate float64 `json:"injection_rate"`

	// Scores holds the sorted nonconformity scores, retained so a later
	// reader can recompute the quantile at a different alpha.
	Scores []float64 `json:"scores,omitempty"`

	// Dataset names the source the samples came from.
	Dataset string `json:"dataset,omitempty"`

	// DatasetHash fingerprints the sample set for reproducibility checks.
	DatasetHash string `json:"dataset_hash,omitempty"`

	// Scorer names the scoring signal the scores were produced with. A
	// threshold is only valid against the signal it was calibrated with.
	Scorer string `json:"scorer,omitempty"`

	// CalibratedAt is when the calibration run completed.
	CalibratedAt time.Time `json:"calibrated_at"`

	// Notes carries free-form operator annotations.
	Notes string `json:"notes,omitempty"`
}

// Validate checks the record for internal consistency.
//
// Outputs:
//   - error: Non-nil when a field is outside its valid range.
func (r *CalibrationRecord) Validate() error {
	if r.QHat < 0.0 || r.QHat > 1.0 {
		return fmt.Errorf("%w: q_hat %.4f", ErrInvalidThreshold, r.QHat)
	}
	if r.Alpha <= 0.0 || r.Alpha >= 1.0 {
		return fmt.Errorf("%w: alpha %.4f not in (0, 1)", ErrRecordCorrupt, r.Alpha)
	}
	if r.NSamples < 1 {
		return fmt.Errorf("%w: n_samples %d", ErrRecordCorrupt, r.NSamples)
	}
	return nil
}

// ============================================================================
// Calibration store
// ============================================================================

// CalibrationStore persists calibration records between processes. The
// calibration CLI writes through this interface and the verification gate
// reads through it at startup and on reload.
type CalibrationStore interface {
	// Load returns the current record, or (nil, nil) when none has been
	// written yet. A record that exists but cannot be decoded returns an
	// error wrapping ErrRecordCorrupt.
	Load() (*CalibrationRecord, error)

	// Save replaces the current record. Writers must never leave a
	// partially written record visible to readers.
	Save(record *CalibrationRecord) error

	// Location describes where the record lives, for logs and file
	// watchers. Non-file stores return an opaque label.
	Location() string
}

// JSONCalibrationStore persists a single calibration record as a JSON file.
// Saves write to a temp file in the same directory and rename over the
// target so readers never observe a torn record.
type JSONCalibrationStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONCalibrationStore creates a store backed by the given file path.
func NewJSONCalibrationStore(path string) *JSONCalibrationStore {
	return &JSONCalibrationStore{path: path}
}

// Load reads and validates the record at the store path.
func (s *JSONCalibrationStore) Load() (*CalibrationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read calibration record %s: %w", s.path, err)
	}

	var record CalibrationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrRecordCorrupt, s.path, err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.path, err)
	}
	return &record, nil
}

// Save writes the record atomically.
func (s *JSONCalibrationStore) Save(record *CalibrationRecord) error {
	if record == nil {
		return fmt.Errorf("save calibration record: record is nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode calibration record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create calibration dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".calibration-*.json")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("install calibration record %s: %w", s.path, err)
	}
	return nil
}

// Location returns the backing file path.
func (s *JSONCalibrationStore) Location() string {
	return s.path
}

// StaticCalibrationStore holds a record in memory. Useful for tests and for
// pinning a threshold without a file on disk.
type StaticCalibrationStore struct {
	mu     sync.Mutex
	record *CalibrationRecord

	// LoadErr, when set, is returned by Load. Lets tests simulate a
	// corrupt store.
	LoadErr error
}

// NewStaticCalibrationStore creates a store preloaded with the given record.
// A nil record behaves like an uncalibrated store.
func NewStaticCalibrationStore(record *CalibrationRecord) *StaticCalibrationStore {
	return &StaticCalibrationStore{record: record}
}

func (s *StaticCalibrationStore) Load() (*CalibrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.record, nil
}

func (s *StaticCalibrationStore) Save(record *CalibrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return nil
}

func (s *StaticCalibrationStore) Location() string {
	return "memory"
}
