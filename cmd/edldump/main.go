// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Command edldump prints the statements of a CMX 3600 EDL, one per line.
// With -timelines it prints the reconstructed timelines as JSON instead, and
// with -edl it writes the timelines back out as EDL text.
//
// Usage:
//
//	edldump [flags] FILE
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	cmx3600 "github.com/OpenTimelineIO/otio-cmx3600-adapter"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/internal/config"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/internal/log"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

type mode int

const (
	modeStatements mode = iota
	modeTimelines
	modeEDL
)

type options struct {
	path     string
	mode     mode
	rate     float64
	tolerant bool
	style    cmx3600.OutputStyle
	reelLen  int
	watch    bool
	indent   bool
	logger   *slog.Logger
	closer   io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "edldump: %v\n", err)
		return 2
	}
	if opts.closer != nil {
		defer opts.closer.Close()
	}
	if f, ok := stdout.(*os.File); ok && opts.mode == modeTimelines {
		opts.indent = term.IsTerminal(int(f.Fd()))
	}

	if err := dump(opts, stdout); err != nil {
		fmt.Fprintf(stderr, "edldump: %v\n", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}
	if err := watch(ctx, opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "edldump: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("edldump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	rate := fs.Float64("rate", 0, "frame rate for timecode (default from config, else 24)")
	tolerant := fs.Bool("ignore-invalid-timecode", false, "re-read timecode whose frames exceed the rate")
	timelines := fs.Bool("timelines", false, "print reconstructed timelines as JSON")
	edl := fs.Bool("edl", false, "write reconstructed timelines back out as EDL")
	style := fs.String("style", "", "EDL output style for -edl: avid, nucoda or premiere")
	watchFlag := fs.Bool("watch", false, "dump again whenever the file changes")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: edldump [flags] FILE")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("expected exactly one EDL file")
	}
	if *timelines && *edl {
		return options{}, errors.New("-timelines and -edl are mutually exclusive")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return options{}, err
	}
	logger, closer := log.New(cfg.Logging, stderr)

	opts := options{
		path:     fs.Arg(0),
		rate:     cfg.Decoder.Rate,
		tolerant: cfg.Decoder.IgnoreInvalidTimecodeErrors,
		style:    cmx3600.OutputStyle(cfg.Encoder.Style),
		reelLen:  cfg.Encoder.ReelNameLength,
		watch:    *watchFlag,
		logger:   logger.With("component", "edldump"),
		closer:   closer,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			opts.rate = *rate
		case "ignore-invalid-timecode":
			opts.tolerant = *tolerant
		case "style":
			opts.style = cmx3600.OutputStyle(strings.ToLower(*style))
		}
	})
	if opts.rate <= 0 {
		return options{}, fmt.Errorf("rate must be positive, got %v", opts.rate)
	}
	switch opts.style {
	case cmx3600.OutputStyleAvid, cmx3600.OutputStyleNucoda, cmx3600.OutputStylePremiere:
	default:
		return options{}, fmt.Errorf("unknown style %q", opts.style)
	}
	switch {
	case *timelines:
		opts.mode = modeTimelines
	case *edl:
		opts.mode = modeEDL
	}
	return opts, nil
}

// dump reads the file and writes it to w in the selected mode. Output is
// buffered so a failed decode writes nothing.
func dump(opts options, w io.Writer) error {
	text, err := cmx3600.ReadFile(opts.path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch opts.mode {
	case modeStatements:
		err = dumpStatements(text, &buf)
	case modeTimelines:
		err = dumpTimelines(opts, text, &buf)
	case modeEDL:
		err = dumpEDL(opts, text, &buf)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func dumpStatements(text string, w io.Writer) error {
	scanner := cmx3600.NewStatementScanner(strings.NewReader(text))
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Statement())
	}
	return scanner.Err()
}

func decodeAll(opts options, text string) ([]*timeline.Timeline, error) {
	dec := cmx3600.NewDecoder(strings.NewReader(text))
	dec.SetRate(opts.rate)
	dec.SetIgnoreInvalidTimecodeErrors(opts.tolerant)
	dec.SetLogger(opts.logger.With("file", filepath.Base(opts.path)))
	timelines, err := dec.DecodeAll()
	if err != nil {
		return nil, err
	}
	st := dec.Stats()
	opts.logger.Debug("decoded",
		"statements", st.Statements,
		"events", st.Events,
		"timelines", st.Timelines,
		"malformed_notes", st.MalformedNotes)
	return timelines, nil
}

func dumpTimelines(opts options, text string, w io.Writer) error {
	timelines, err := decodeAll(opts, text)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if opts.indent {
		enc.SetIndent("", "  ")
	}
	if len(timelines) == 1 {
		return enc.Encode(timelines[0])
	}
	return enc.Encode(timelines)
}

func dumpEDL(opts options, text string, w io.Writer) error {
	timelines, err := decodeAll(opts, text)
	if err != nil {
		return err
	}
	enc := cmx3600.NewEncoder(w)
	enc.SetStyle(opts.style)
	enc.SetReelNameLength(opts.reelLen)
	enc.SetRate(opts.rate)
	for _, tl := range timelines {
		if err := enc.Encode(tl); err != nil {
			return err
		}
	}
	return nil
}

// watch re-dumps the file each time it is written. The parent directory is
// watched so editors that replace the file on save are followed.
func watch(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			opts.logger.Error("close watcher", "error", err)
		}
	}()

	target, err := filepath.Abs(opts.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	opts.logger.Info("watching", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRewrite(event, target) {
				continue
			}
			opts.logger.Debug("file changed", "op", event.Op.String())
			if err := dump(opts, stdout); err != nil {
				fmt.Fprintf(stderr, "edldump: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.logger.Error("watcher error", "error", err)
		}
	}
}

func isRewrite(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
