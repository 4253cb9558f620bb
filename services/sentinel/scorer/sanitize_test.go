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

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain code unchanged",
			in:   "print('hello')",
			want: "print('hello')",
		},
		{
			name: "python fence stripped",
			in:   "```python\nprint('hello')\n```",
			want: "print('hello')",
		},
		{
			name: "bare fence stripped",
			in:   "```\nx = 1\n```",
			want: "x = 1",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n\nprint('hi')\n\n  ",
			want: "print('hi')",
		},
		{
			name: "multiline body preserved",
			in:   "```python\ndef f():\n    return 1\n```",
			want: "def f():\n    return 1",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "interior backticks kept",
			in:   "s = \"```\"",
			want: "s = \"```\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Sanitization must be idempotent: scoring already-sanitized code has to
// hit the same bytes, or determinism across call sites breaks.
func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"```python\nprint('hello')\n```",
		"def f():\n    pass",
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
