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
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sentinel/services/sentinel"
	"github.com/AleutianAI/sentinel/services/sentinel/commander"
)

// runScan batch-verifies every Python file under the given path and exits
// non-zero when any file is rejected.
func runScan(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	settings.Generator.Backend = "none"
	settings.History.Enabled = false
	logger := cliLogger(settings)

	svc, err := sentinel.NewService(settings, logger)
	if err != nil {
		log.Fatalf("Error building service: %v", err)
	}
	defer svc.Close()

	gate := svc.Commander()
	if cmd.Flags().Changed("threshold") {
		override := scanThreshold
		gate = commander.New(svc.Scorer(),
			commander.NewJSONCalibrationStore(settings.Calibration.RecordPath),
			&commander.Config{Override: &override, Logger: logger})
	}

	files, err := collectPythonFiles(args[0])
	if err != nil {
		log.Fatalf("Error collecting files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("Error: no Python files under %s", args[0])
	}

	ctx := context.Background()
	passed, rejected := 0, 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Error reading %s: %v", path, err)
		}
		decision := gate.Verify(ctx, string(data))
		if decision.Passed() {
			passed++
		} else {
			rejected++
		}
		fmt.Printf("%-6s %s (score %.4f)\n", decision.Status, path, decision.Score)
		if !decision.Passed() && decision.Reason != "" {
			fmt.Printf("       %s\n", decision.Reason)
		}
	}

	fmt.Printf("\nScanned %d file(s): %d passed, %d rejected (threshold %.4f)\n",
		len(files), passed, rejected, gate.Threshold())
	if rejected > 0 {
		os.Exit(1)
	}
}

// collectPythonFiles returns the .py files under root in sorted order.
// A single file argument is returned as-is regardless of extension so
// explicit targets are never silently skipped. Hidden directories are
// not descended into.
func collectPythonFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
