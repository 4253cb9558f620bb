// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package commander

import "errors"

// Sentinel errors for the commander package.
var (
	// ErrRecordCorrupt indicates a calibration record exists but cannot be
	// decoded or fails validation. The Commander treats this as recoverable
	// and falls back to the default threshold.
	ErrRecordCorrupt = errors.New("calibration record corrupt")

	// ErrInvalidThreshold indicates a threshold outside [0.0, 1.0].
	ErrInvalidThreshold = errors.New("threshold must be in [0.0, 1.0]")
)
