// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command sentinel is the verification gate CLI.
//
// It verifies candidate code against a calibrated acceptance threshold,
// calibrates that threshold from a labeled dataset, runs the bounded
// generate-verify-correct loop, and serves the HTTP API.
//
// Usage:
//
//	sentinel verify snippet.py
//	cat snippet.py | sentinel verify -
//	sentinel scan ./src
//	sentinel calibrate --synthetic 200 --alpha 0.1
//	sentinel loop "write a function that parses a csv file"
//	sentinel serve
package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	cobra.EnableCommandSorting = false
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
