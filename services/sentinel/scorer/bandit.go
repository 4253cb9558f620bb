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
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// =============================================================================
// BANDIT SCORER
// =============================================================================

// BanditConfig configures the Bandit scoring service.
//
// Thread Safety: Treat as immutable after creation.
type BanditConfig struct {
	// Command is the scanner executable name. Default: "bandit".
	Command string

	// Timeout bounds a single scanner invocation. Default: 30s.
	Timeout time.Duration

	// TempDir is the directory for scratch files. Empty uses the system
	// temp dir. Pointing this at a ramdisk (e.g. /dev/shm) cuts scan
	// latency under load.
	TempDir string
}

// DefaultBanditConfig returns the default configuration.
func DefaultBanditConfig() BanditConfig {
	return BanditConfig{
		Command: "bandit",
		Timeout: 30 * time.Second,
	}
}

// BanditScorer scores Python snippets by running Bandit as a subprocess.
//
// Description:
//
//	The scorer writes the sanitized snippet to a uniquely named scratch
//	file, runs `bandit -f json -q --exit-zero` against it, parses the JSON
//	report, and maps the single worst finding's severity to a score via
//	ScoreForSeverity. The scratch file is removed on every exit path.
//
//	Every failure mode (binary missing, timeout, process failure, syntax
//	error in the snippet, undecodable report) produces a fail-closed score
//	of 1.0. Score and Evaluate never return errors.
//
//	Concurrent calls with byte-identical sanitized input are deduplicated
//	through singleflight; this is sound because scoring is deterministic.
//
// Thread Safety: BanditScorer is safe for concurrent use.
type BanditScorer struct {
	config BanditConfig

	// Binary lookup is done once and cached for the scorer's lifetime.
	lookOnce sync.Once
	binPath  string
	lookErr  error

	group singleflight.Group
}

// NewBanditScorer creates a Bandit scorer.
//
// Inputs:
//
//	config - Scorer configuration. If nil, uses DefaultBanditConfig().
//
// Outputs:
//
//	*BanditScorer - The configured scorer.
func NewBanditScorer(config *BanditConfig) *BanditScorer {
	cfg := DefaultBanditConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.Command == "" {
		cfg.Command = "bandit"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &BanditScorer{config: cfg}
}

// Name implements ScoringService.
func (s *BanditScorer) Name() string {
	return "bandit"
}

// Score implements ScoringService.
func (s *BanditScorer) Score(ctx context.Context, code string) float64 {
	return s.Evaluate(ctx, code).Score
}

// Evaluate implements Evaluator.
//
// Thread Safety: This method is safe for concurrent use.
func (s *BanditScorer) Evaluate(ctx context.Context, code string) *Evaluation {
	start := time.Now()
	ctx, span := startScanSpan(ctx, s.Name())
	defer span.End()

	sanitized := Sanitize(code)

	// Identical snippets in flight at the same time share one scan. The
	// shared scan must not ride the first caller's context: its
	// cancellation would fail-close every waiter. The scan timeout still
	// bounds the detached run.
	sum := sha256.Sum256([]byte(sanitized))
	key := hex.EncodeToString(sum[:])

	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.evaluate(context.WithoutCancel(ctx), sanitized), nil
	})
	eval := v.(*Evaluation)

	setScanSpanResult(span, eval)
	recordScanMetrics(ctx, s.Name(), time.Since(start), eval)
	return eval
}

// evaluate runs one scan over sanitized content.
func (s *BanditScorer) evaluate(ctx context.Context, sanitized string) *Evaluation {
	binPath, err := s.scannerPath()
	if err != nil {
		slog.Error("Scanner binary not found, failing closed",
			slog.String("command", s.config.Command),
		)
		return failClosed(ErrScannerNotInstalled)
	}

	tmpPath, err := s.writeScratchFile(sanitized)
	if err != nil {
		slog.Error("Failed to create scratch file, failing closed",
			slog.String("error", err.Error()),
		)
		return failClosed(fmt.Errorf("%w: %v", ErrScannerFailed, err))
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove scratch file",
				slog.String("path", tmpPath),
				slog.String("error", err.Error()),
			)
		}
	}()

	cmdCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	// --exit-zero keeps the exit code clean even when findings exist, so a
	// non-zero exit always means the scan itself failed.
	cmd := exec.CommandContext(cmdCtx, binPath, "-f", "json", "-q", "--exit-zero", tmpPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if cmdCtx.Err() == context.DeadlineExceeded {
		slog.Error("Scanner timed out, failing closed",
			slog.Duration("timeout", s.config.Timeout),
		)
		return failClosed(ErrScannerTimeout)
	}

	if runErr != nil && stdout.Len() == 0 {
		slog.Error("Scanner execution failed, failing closed",
			slog.String("stderr", stderr.String()),
		)
		return failClosed(fmt.Errorf("%w: %v", ErrScannerFailed, runErr))
	}

	return parseBanditReport(stdout.Bytes())
}

// scannerPath resolves and caches the scanner binary location.
func (s *BanditScorer) scannerPath() (string, error) {
	s.lookOnce.Do(func() {
		s.binPath, s.lookErr = exec.LookPath(s.config.Command)
	})
	return s.binPath, s.lookErr
}

// writeScratchFile writes content to a uniquely named temp file.
//
// os.CreateTemp guarantees a fresh name per call, so concurrent scans
// never share a scratch file.
func (s *BanditScorer) writeScratchFile(content string) (string, error) {
	f, err := os.CreateTemp(s.config.TempDir, "sentinel-*.py")
	if err != nil {
		return "", err
	}
	path := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// failClosed builds the maximal-score evaluation for an unscannable input.
func failClosed(cause error) *Evaluation {
	return &Evaluation{
		Score:   1.0,
		ParseOK: false,
		Cause:   cause.Error(),
	}
}

var _ Evaluator = (*BanditScorer)(nil)
