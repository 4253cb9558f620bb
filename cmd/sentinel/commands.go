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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath    string
	outputJSON    bool
	debugMode     bool
	alphaFlag     float64
	datasetPath   string
	syntheticN    int
	injectRate    float64
	seedFlag      int64
	dryRun        bool
	keepScores    bool
	notesFlag     string
	maxAttempts   int
	backendFlag   string
	scanThreshold float64

	rootCmd = &cobra.Command{
		Use:   "sentinel",
		Short: "A verification gate for LLM-generated code",
		Long: `Sentinel gates generated code behind a security scanner and a
conformally calibrated acceptance threshold. Code is only accepted
when its risk score clears the calibrated bound.`,
	}

	// --- Verification ---
	verifyCmd = &cobra.Command{
		Use:   "verify [file|-]",
		Short: "Verify a code snippet against the calibrated threshold",
		Long: `Verify scores the given file (or stdin when the argument is "-")
and renders a PASS or REJECT decision. The process exits non-zero on
REJECT so the command can gate CI pipelines.`,
		Args: cobra.ExactArgs(1),
		Run:  runVerify, // Defined in cmd_verify.go
	}
	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Batch verify Python files under a path",
		Long: `Scan walks the given directory (or takes a single file), verifies
every .py file against the calibrated threshold, and prints a pass or
reject line per file plus a summary. The process exits non-zero when
any file is rejected.`,
		Args: cobra.ExactArgs(1),
		Run:  runScan, // Defined in cmd_scan.go
	}
	thresholdCmd = &cobra.Command{
		Use:   "threshold",
		Short: "Show the threshold currently in effect and where it came from",
		Run:   runThreshold, // Defined in cmd_verify.go
	}

	// --- Calibration ---
	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate the acceptance threshold from a dataset",
		Long: `Calibrate scores every sample in the dataset with the same signal
the gate verifies with, computes the split conformal quantile, and
persists the calibration record the gate loads at startup.`,
		Run: runCalibrate, // Defined in cmd_calibrate.go
	}

	// --- Correction Loop ---
	loopCmd = &cobra.Command{
		Use:   "loop [prompt]",
		Short: "Generate code for a prompt and retry until it passes the gate",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLoop, // Defined in cmd_loop.go
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification gate HTTP API",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Demo ---
	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Run the full calibrate-then-verify lifecycle on synthetic data",
		Run:   runDemo, // Defined in cmd_demo.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a sentinel config file (YAML or JSON)")

	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the full decision as JSON")

	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Float64Var(&scanThreshold, "threshold", 0, "Threshold override for this scan only")

	rootCmd.AddCommand(thresholdCmd)

	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a JSONL calibration dataset")
	calibrateCmd.Flags().IntVar(&syntheticN, "synthetic", 0, "Use a synthetic dataset of N samples instead of a file")
	calibrateCmd.Flags().Float64Var(&alphaFlag, "alpha", 0, "Miscoverage level in (0, 1); 0 uses the default 0.1")
	calibrateCmd.Flags().Float64Var(&injectRate, "inject", 0, "Fraction of samples to replace with vulnerable code")
	calibrateCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Seed for injection placement (0 uses a fixed default)")
	calibrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the threshold without persisting the record")
	calibrateCmd.Flags().BoolVar(&keepScores, "keep-scores", false, "Retain the sorted score list on the record")
	calibrateCmd.Flags().StringVar(&notesFlag, "notes", "", "Free-form note recorded on the calibration record")

	rootCmd.AddCommand(loopCmd)
	loopCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Attempt budget (0 uses the configured default)")
	loopCmd.Flags().StringVar(&backendFlag, "backend", "", "Generator backend override (openai, ollama)")
	loopCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the full outcome as JSON")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode (verbose gin logging)")

	rootCmd.AddCommand(demoCmd)
}
