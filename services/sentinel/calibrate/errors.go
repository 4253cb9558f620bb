// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calibrate

import "errors"

// Sentinel errors for the calibrate package. Unlike verification, which
// degrades on failure, calibration failures are fatal: a threshold computed
// from bad inputs is worse than no threshold.
var (
	// ErrInvalidAlpha indicates a miscoverage level outside (0, 1).
	ErrInvalidAlpha = errors.New("alpha must be in (0, 1)")

	// ErrInsufficientSamples indicates too few calibration scores for the
	// requested alpha.
	ErrInsufficientSamples = errors.New("insufficient calibration samples")

	// ErrDatasetLoad indicates the calibration dataset could not be read.
	ErrDatasetLoad = errors.New("calibration dataset load failed")
)
