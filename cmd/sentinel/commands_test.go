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
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"verify":    false,
		"scan":      false,
		"threshold": false,
		"calibrate": false,
		"loop":      false,
		"serve":     false,
		"demo":      false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestCalibrateFlags(t *testing.T) {
	for _, name := range []string{"dataset", "synthetic", "alpha", "inject", "seed", "dry-run", "keep-scores", "notes"} {
		if calibrateCmd.Flags().Lookup(name) == nil {
			t.Errorf("calibrate flag %q not defined", name)
		}
	}
}

func TestScanFlags(t *testing.T) {
	if scanCmd.Flags().Lookup("threshold") == nil {
		t.Error("scan flag \"threshold\" not defined")
	}
}

func TestVerifyRequiresOneArg(t *testing.T) {
	if err := verifyCmd.Args(verifyCmd, []string{}); err == nil {
		t.Error("verify accepted zero arguments")
	}
	if err := verifyCmd.Args(verifyCmd, []string{"a.py"}); err != nil {
		t.Errorf("verify rejected a single argument: %v", err)
	}
}
