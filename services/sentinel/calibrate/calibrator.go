// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package calibrate computes acceptance thresholds with split conformal
// prediction. A corpus of representative code is scored with the same
// signal used at verification time, and the conformal quantile of those
// scores becomes the threshold: on exchangeable future inputs, at most an
// alpha fraction of benign code will score above it.
package calibrate

import (
	"fmt"
	"math"
	"sort"
)

// DefaultAlpha is the standard miscoverage level. At 0.10 the threshold
// admits roughly 90% of code drawn from the calibration distribution.
const DefaultAlpha = 0.10

// MinSamples returns the smallest calibration set size the conformal
// guarantee is meaningful at for a given alpha. Below n >= 1/alpha - 1 the
// quantile saturates at the maximum score regardless of the data.
func MinSamples(alpha float64) int {
	if alpha <= 0 || alpha >= 1 {
		return 2
	}
	n := int(math.Ceil(1.0/alpha)) - 1
	if n < 2 {
		n = 2
	}
	return n
}

// Quantile computes the split conformal quantile of the given
// nonconformity scores.
//
// Description:
//
//	The quantile rank is ceil((n+1)(1-alpha)), clamped to [1, n]. When the
//	rank lands on n the finite-sample correction has run out of scores and
//	the quantile conservatively saturates at 1.0, the maximum attainable
//	score, rather than the largest observed one.
//
// Inputs:
//   - scores: Nonconformity scores in [0.0, 1.0]. Order does not matter;
//     the input slice is not modified.
//   - alpha: Miscoverage level, exclusive (0, 1).
//
// Outputs:
//   - float64: The threshold q-hat.
//   - error: ErrInvalidAlpha or ErrInsufficientSamples.
func Quantile(scores []float64, alpha float64) (float64, error) {
	if alpha <= 0.0 || alpha >= 1.0 {
		return 0, fmt.Errorf("%w: %.4f", ErrInvalidAlpha, alpha)
	}

	n := len(scores)
	if min := MinSamples(alpha); n < min {
		return 0, fmt.Errorf("%w: got %d scores, need at least %d for alpha %.2f",
			ErrInsufficientSamples, n, min, alpha)
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	rank := int(math.Ceil(float64(n+1) * (1.0 - alpha)))
	if rank < 1 {
		rank = 1
	}
	if rank >= n {
		return 1.0, nil
	}
	return sorted[rank-1], nil
}

// CoverageBound returns the maximum number of calibration scores allowed to
// exceed a valid quantile at the given alpha, floor(alpha * (n+1)). Used by
// tests and the calibration report to sanity-check a run.
func CoverageBound(n int, alpha float64) int {
	return int(math.Floor(alpha * float64(n+1)))
}
