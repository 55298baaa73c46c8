// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf-8", []byte("* FROM CLIP NAME:  café\n"), "* FROM CLIP NAME:  café\n"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "TITLE: x\n"...), "TITLE: x\n"},
		{"latin-1", []byte("* FROM CLIP NAME:  caf\xe9\n"), "* FROM CLIP NAME:  café\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.in)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.edl")
	if err := os.WriteFile(path, []byte("TITLE: R\xe9sum\xe9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got != "TITLE: Résumé\n" {
		t.Errorf("ReadFile() = %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.edl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
