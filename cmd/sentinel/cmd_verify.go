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
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/services/sentinel"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
)

// runVerify scores a snippet and exits non-zero on REJECT so the command
// can gate CI pipelines.
func runVerify(cmd *cobra.Command, args []string) {
	code := readCode(args[0])

	settings := loadSettings()
	settings.Generator.Backend = "none"
	settings.History.Enabled = false

	svc, err := sentinel.NewService(settings, cliLogger(settings))
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	decision := svc.Verify(context.Background(), code)

	if outputJSON {
		out, _ := json.MarshalIndent(decision, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Printf("%s (score %.4f, threshold %.4f, %s)\n",
			decision.Status, decision.Score, decision.Threshold, svc.Commander().ThresholdSource())
		if decision.Reason != "" {
			fmt.Printf("Reason: %s\n", decision.Reason)
		}
		printFindings(decision.Findings)
	}

	if decision.Status != commander.StatusPass {
		os.Exit(1)
	}
}

// runThreshold reports the effective threshold without scoring anything.
func runThreshold(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	settings.Generator.Backend = "none"
	settings.History.Enabled = false

	svc, err := sentinel.NewService(settings, cliLogger(settings))
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	cmdr := svc.Commander()
	fmt.Printf("Threshold: %.4f\n", cmdr.Threshold())
	fmt.Printf("Source:    %s\n", cmdr.ThresholdSource())
	fmt.Printf("Scorer:    %s\n", svc.Scorer().Name())
	fmt.Printf("Record:    %s\n", settings.Calibration.RecordPath)
}
