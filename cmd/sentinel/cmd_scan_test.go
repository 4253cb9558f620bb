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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectPythonFilesWalksDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.py"))
	writeFile(t, filepath.Join(root, "a.py"))
	writeFile(t, filepath.Join(root, "sub", "c.py"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, ".hidden", "d.py"))

	files, err := collectPythonFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "b.py"),
		filepath.Join(root, "sub", "c.py"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("collectPythonFiles = %v, want %v", files, want)
	}
}

func TestCollectPythonFilesSingleFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "snippet.txt")
	writeFile(t, target)

	// An explicit file target is scanned regardless of extension.
	files, err := collectPythonFiles(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != target {
		t.Errorf("collectPythonFiles = %v, want just %s", files, target)
	}
}

func TestCollectPythonFilesMissingPath(t *testing.T) {
	if _, err := collectPythonFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing path")
	}
}
