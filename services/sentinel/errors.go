// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sentinel

import "errors"

// Sentinel errors for the service layer.
var (
	// ErrGeneratorDisabled indicates the correction loop was requested
	// while the generator backend is configured as "none".
	ErrGeneratorDisabled = errors.New("generator backend disabled")

	// ErrEmptyCode indicates a verification request with no code.
	ErrEmptyCode = errors.New("code must not be empty")

	// ErrEmptyPrompt indicates a loop request with no task prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)
