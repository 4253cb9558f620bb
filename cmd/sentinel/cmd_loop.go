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
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/services/sentinel"
	"github.com/AleutianAI/sentinel/services/sentinel/loop"
)

// runLoop generates code for the prompt and retries with corrective
// feedback until the gate accepts or the attempt budget runs out.
// Accepted code is printed to stdout; everything else goes to stderr.
func runLoop(cmd *cobra.Command, args []string) {
	prompt := strings.Join(args, " ")

	settings := loadSettings()
	if backendFlag != "" {
		settings.Generator.Backend = backendFlag
	}
	if maxAttempts > 0 {
		settings.Loop.MaxAttempts = maxAttempts
	}
	logger := cliLogger(settings)

	svc, err := sentinel.NewService(settings, logger)
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := svc.RunLoop(ctx, prompt)
	if err != nil {
		log.Fatalf("Loop failed: %v", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(out))
		if !outcome.Accepted() {
			os.Exit(1)
		}
		return
	}

	for _, attempt := range outcome.Attempts {
		status := "REJECT"
		if attempt.GenerationError != "" {
			status = "GENERATION FAILED"
		} else if attempt.Decision != nil && attempt.Decision.Passed() {
			status = "PASS"
		}
		fmt.Fprintf(os.Stderr, "Attempt %d: %s\n", attempt.Number, status)
		if attempt.Decision != nil {
			for _, f := range attempt.Decision.Findings {
				fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
			}
		}
	}

	if outcome.State == loop.StateAccepted {
		fmt.Fprintf(os.Stderr, "Accepted after %d attempt(s)\n", len(outcome.Attempts))
		fmt.Println(outcome.Code)
		return
	}

	fmt.Fprintf(os.Stderr, "Exhausted %d attempt(s) without an accepted candidate\n", len(outcome.Attempts))
	os.Exit(1)
}
