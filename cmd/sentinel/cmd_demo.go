// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/services/sentinel"
	"github.com/AleutianAI/sentinel/services/sentinel/calibrate"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
)

const demoCleanSnippet = `def add(a, b):
    return a + b
`

const demoVulnerableSnippet = `import os

def run(cmd):
    os.system(cmd)
`

// runDemo walks the full gate lifecycle on a synthetic dataset: calibrate
// a threshold, then verify one clean and one vulnerable snippet against it.
// Nothing is persisted.
func runDemo(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	settings.Generator.Backend = "none"
	settings.History.Enabled = false
	logger := cliLogger(settings)

	svc, err := sentinel.NewService(settings, logger)
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()

	fmt.Println("== Calibration ==")
	loader := &calibrate.SyntheticDatasetLoader{N: 100}
	record, err := calibrate.NewRunner(svc.Scorer(), loader, nil, &calibrate.RunnerConfig{
		Logger: logger,
	}).Run(ctx)
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}
	fmt.Printf("Calibrated q_hat=%.4f from %d synthetic samples (alpha=%.2f)\n\n",
		record.QHat, record.NSamples, record.Alpha)

	// Verify against the freshly computed threshold rather than whatever
	// record happens to be on disk.
	store := commander.NewStaticCalibrationStore(record)
	gate := commander.New(svc.Scorer(), store, &commander.Config{Logger: logger})

	fmt.Println("== Verification ==")
	for _, snippet := range []struct {
		label string
		code  string
	}{
		{"clean snippet", demoCleanSnippet},
		{"vulnerable snippet", demoVulnerableSnippet},
	} {
		decision := gate.Verify(ctx, snippet.code)
		fmt.Printf("%s: %s (score %.4f, threshold %.4f)\n",
			snippet.label, decision.Status, decision.Score, decision.Threshold)
		if decision.Reason != "" {
			fmt.Printf("  %s\n", decision.Reason)
		}
		printFindings(decision.Findings)
	}
}
