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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/AleutianAI/sentinel/pkg/logging"
	"github.com/AleutianAI/sentinel/services/sentinel/config"
	"github.com/AleutianAI/sentinel/services/sentinel/scorer"
)

// loadSettings resolves configuration for a CLI invocation. Missing config
// files fall back to defaults so one-shot commands work out of the box.
func loadSettings() config.Settings {
	settings, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	return settings
}

// cliLogger builds a logger for one-shot commands. Output goes to stderr
// at warn level so command output on stdout stays parseable.
func cliLogger(settings config.Settings) *slog.Logger {
	level := logging.LevelWarn
	if debugMode {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: settings.Observability.ServiceName,
		JSON:    false,
	})
	return logger.Slog()
}

// readCode reads a code argument from a file path, or from stdin when the
// argument is "-".
func readCode(arg string) string {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		log.Fatalf("Error reading code: %v", err)
	}
	code := string(data)
	if strings.TrimSpace(code) == "" {
		log.Fatalf("Error: %q contains no code", arg)
	}
	return code
}

// printFindings renders scanner findings for terminal output.
func printFindings(findings []scorer.Finding) {
	for _, f := range findings {
		location := ""
		if f.Line > 0 {
			location = fmt.Sprintf(" (line %d)", f.Line)
		}
		fmt.Printf("  [%s] %s%s: %s\n", f.Severity, f.Category, location, f.Description)
	}
}
