// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package config loads settings for the EDL tools from a YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	cmx3600 "github.com/OpenTimelineIO/otio-cmx3600-adapter"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/internal/log"
)

// DecoderConfig holds EDL reading options.
type DecoderConfig struct {
	Rate                        float64 `yaml:"rate"`
	IgnoreInvalidTimecodeErrors bool    `yaml:"ignore_invalid_timecode_errors"`
}

// EncoderConfig holds EDL writing options.
type EncoderConfig struct {
	Style          string `yaml:"style"`
	ReelNameLength int    `yaml:"reel_name_length"`
}

// ServerConfig holds HTTP service options.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Config is the complete configuration.
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Encoder EncoderConfig `yaml:"encoder"`
	Logging log.Options   `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// Env var names used as overrides.
const (
	EnvRate                  = "EDL_RATE"
	EnvIgnoreInvalidTimecode = "EDL_IGNORE_INVALID_TIMECODE"
	EnvEncoderStyle          = "EDL_STYLE"
	EnvReelNameLength        = "EDL_REEL_NAME_LENGTH"
	EnvServerAddr            = "EDL_SERVER_ADDR"
	EnvServerMaxBodyBytes    = "EDL_SERVER_MAX_BODY_BYTES"
	EnvLogLevel              = "EDL_LOG_LEVEL"
	EnvLogFormat             = "EDL_LOG_FORMAT"
	EnvLogSource             = "EDL_LOG_SOURCE"
	EnvLogFile               = "EDL_LOG_FILE"
)

const defaultMaxBodyBytes int64 = 8 << 20

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Decoder: DecoderConfig{Rate: cmx3600.DefaultRate},
		Encoder: EncoderConfig{Style: string(cmx3600.OutputStyleAvid), ReelNameLength: cmx3600.DefaultReelNameLength},
		Logging: log.Options{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: defaultMaxBodyBytes,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults, loads .env from the
// working directory, and applies environment overrides. An empty path or a
// missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the decoder or encoder would reject.
func (c Config) Validate() error {
	if c.Decoder.Rate <= 0 {
		return fmt.Errorf("decoder.rate must be positive, got %v", c.Decoder.Rate)
	}
	switch cmx3600.OutputStyle(c.Encoder.Style) {
	case cmx3600.OutputStyleAvid, cmx3600.OutputStyleNucoda, cmx3600.OutputStylePremiere:
	default:
		return fmt.Errorf("encoder.style %q is not one of avid, nucoda, premiere", c.Encoder.Style)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := env(EnvRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRate, err)
		}
		cfg.Decoder.Rate = rate
	}
	if v := env(EnvIgnoreInvalidTimecode); v != "" {
		cfg.Decoder.IgnoreInvalidTimecodeErrors = truthy(v)
	}
	if v := env(EnvEncoderStyle); v != "" {
		cfg.Encoder.Style = strings.ToLower(v)
	}
	if v := env(EnvReelNameLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReelNameLength, err)
		}
		cfg.Encoder.ReelNameLength = n
	}
	if v := env(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := env(EnvServerMaxBodyBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvServerMaxBodyBytes, err)
		}
		cfg.Server.MaxBodyBytes = n
	}

	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.AddSource = truthy(v)
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
	return nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
