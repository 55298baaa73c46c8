// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "edl.yaml")
	if err := os.WriteFile(path, []byte("decoder:\n  rate: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(path, ""); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestRun_ListenError(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := run("", "256.0.0.1:bad"); err == nil {
		t.Fatal("expected a listen error")
	}
}

func TestShutdownTimeout(t *testing.T) {
	if shutdownTimeout <= 0 {
		t.Error("shutdown timeout should be positive")
	}
}
