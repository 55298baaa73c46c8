// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir moves into an empty directory so a stray .env does not leak in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := chdir(t)
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "edl.yaml")
	data := `decoder:
  rate: 25
  ignore_invalid_timecode_errors: true
encoder:
  style: nucoda
logging:
  level: debug
server:
  addr: 127.0.0.1:9000
  read_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Decoder.Rate != 25 || !cfg.Decoder.IgnoreInvalidTimecodeErrors {
		t.Errorf("Decoder = %+v", cfg.Decoder)
	}
	if cfg.Encoder.Style != "nucoda" || cfg.Encoder.ReelNameLength != 8 {
		t.Errorf("Encoder = %+v", cfg.Encoder)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.MaxBodyBytes != defaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv(EnvRate, "30")
	t.Setenv(EnvIgnoreInvalidTimecode, "yes")
	t.Setenv(EnvServerAddr, ":9999")
	t.Setenv(EnvLogFormat, "JSON")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Decoder.Rate != 30 || !cfg.Decoder.IgnoreInvalidTimecodeErrors {
		t.Errorf("Decoder = %+v", cfg.Decoder)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("EDL_REEL_NAME_LENGTH=16\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Register the variable with t.Setenv so it is restored after the test.
	t.Setenv(EnvReelNameLength, "")
	os.Unsetenv(EnvReelNameLength)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Encoder.ReelNameLength != 16 {
		t.Errorf("ReelNameLength = %d, want 16", cfg.Encoder.ReelNameLength)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		EnvRate:               "fast",
		EnvEncoderStyle:       "final-cut",
		EnvServerMaxBodyBytes: "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			chdir(t)
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%s: expected an error", key, value)
			}
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("decoder: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}
