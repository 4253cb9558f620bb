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

// runCalibrate scores a calibration dataset and persists the threshold
// record the gate loads at startup.
func runCalibrate(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	settings.Generator.Backend = "none"
	settings.History.Enabled = false
	logger := cliLogger(settings)

	svc, err := sentinel.NewService(settings, logger)
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	var loader calibrate.DatasetLoader
	switch {
	case datasetPath != "" && syntheticN > 0:
		log.Fatalf("Error: --dataset and --synthetic are mutually exclusive")
	case datasetPath != "":
		loader = calibrate.NewFileDatasetLoader(datasetPath)
	case syntheticN > 0:
		loader = &calibrate.SyntheticDatasetLoader{
			N:             syntheticN,
			InjectionRate: injectRate,
			Seed:          seedFlag,
		}
	default:
		log.Fatalf("Error: provide --dataset <path> or --synthetic <n>")
	}

	var store commander.CalibrationStore
	if !dryRun {
		store = commander.NewJSONCalibrationStore(settings.Calibration.RecordPath)
	}

	runnerCfg := &calibrate.RunnerConfig{
		Alpha:       alphaFlag,
		Seed:        seedFlag,
		Parallelism: settings.Calibration.Parallelism,
		KeepScores:  keepScores,
		Notes:       notesFlag,
		Logger:      logger,
	}
	// File datasets carry their own labels; injection only applies when
	// asked for explicitly.
	if datasetPath != "" && injectRate > 0 {
		runnerCfg.InjectionRate = injectRate
	}

	runner := calibrate.NewRunner(svc.Scorer(), loader, store, runnerCfg)
	record, err := runner.Run(context.Background())
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	fmt.Printf("Calibration complete\n")
	fmt.Printf("  q_hat:          %.4f\n", record.QHat)
	fmt.Printf("  alpha:          %.4f\n", record.Alpha)
	fmt.Printf("  samples:        %d\n", record.NSamples)
	fmt.Printf("  injection rate: %.2f\n", record.InjectionRate)
	fmt.Printf("  scorer:         %s\n", record.Scorer)
	fmt.Printf("  dataset:        %s (%s)\n", record.Dataset, record.DatasetHash)
	if dryRun {
		fmt.Println("  (dry run, nothing persisted)")
	} else {
		fmt.Printf("  record:         %s\n", settings.Calibration.RecordPath)
	}
}
