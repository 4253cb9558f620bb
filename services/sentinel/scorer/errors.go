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

import "errors"

// Sentinel errors for the scorer package.
//
// These never escape Score or Evaluate; they exist so the fail-closed
// Cause on an Evaluation carries a stable, testable identity instead of a
// free-form string.
var (
	// ErrScannerNotInstalled indicates the scanner binary was not found in PATH.
	ErrScannerNotInstalled = errors.New("scanner not installed")

	// ErrScannerTimeout indicates the scanner exceeded its configured timeout.
	ErrScannerTimeout = errors.New("scanner timeout")

	// ErrScannerFailed indicates the scanner process failed to execute.
	ErrScannerFailed = errors.New("scanner execution failed")

	// ErrParseOutput indicates the scanner's JSON output could not be decoded.
	ErrParseOutput = errors.New("failed to parse scanner output")

	// ErrUnparsableInput indicates the input failed to parse as valid code.
	ErrUnparsableInput = errors.New("input is not parsable code")
)
