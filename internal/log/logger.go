// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package log configures the slog logger shared by the EDL tools.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization.
// Values can be provided directly or via environment variables:
//   - EDL_LOG_LEVEL=debug|info|warn|error
//   - EDL_LOG_FORMAT=text|json
//   - EDL_LOG_FILE=<path> (adds a rotated JSON log file)
//   - EDL_LOG_SOURCE=true|false
type Options struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
	File      string `yaml:"file"`
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   *slog.Logger
	defaultCloser   io.Closer
)

// L returns the process logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// Init replaces the process logger and slog.Default. A previously opened log
// file is closed.
func Init(opts Options) {
	logger, closer := New(opts, os.Stderr)

	defaultLoggerMu.Lock()
	old := defaultCloser
	defaultLogger, defaultCloser = logger, closer
	defaultLoggerMu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	slog.SetDefault(logger)
}

// New builds a logger writing to console and, when opts.File is set, to a
// rotated JSON file. The returned closer is nil without a file.
func New(opts Options, console io.Writer) (*slog.Logger, io.Closer) {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level), AddSource: opts.AddSource}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(console, handlerOpts)
	} else {
		h = slog.NewTextHandler(console, handlerOpts)
	}

	var closer io.Closer
	if file := strings.TrimSpace(opts.File); file != "" {
		w := &lj.Logger{Filename: file, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = multiHandler(h, slog.NewJSONHandler(w, handlerOpts))
		closer = w
	}

	return slog.New(h).With(slog.String("app", "edl")), closer
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("EDL_LOG_LEVEL", "info"),
		Format:    getenv("EDL_LOG_FORMAT", "text"),
		AddSource: strings.EqualFold(getenv("EDL_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("EDL_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns the process logger with the component attribute set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// ParseLevel converts a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans out log records to multiple handlers.
func multiHandler(handlers ...slog.Handler) slog.Handler { return &multi{hs: handlers} }

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
