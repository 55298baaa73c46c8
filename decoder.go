// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// DefaultRate is the frame rate used when none is set.
const DefaultRate = 24.0

// Stats counts what a Decoder saw in its last run.
type Stats struct {
	Statements         int
	Events             int
	Timelines          int
	MalformedNotes     int
	AdjustedTimecodes  int
	TimecodeMismatches int
}

// Decoder reads CMX 3600 EDL text and produces timelines.
type Decoder struct {
	r        io.Reader
	rate     float64
	tolerant bool
	logger   *slog.Logger
	stats    Stats
}

// NewDecoder creates a new EDL decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:      r,
		rate:   DefaultRate,
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetRate sets the frame rate for timecode interpretation.
func (d *Decoder) SetRate(rate float64) {
	d.rate = rate
}

// SetIgnoreInvalidTimecodeErrors sets whether timecode whose frame field is
// too large for the rate is re-read at an inferred rate instead of failing.
// Values read this way are flagged with timecode_was_adjusted metadata.
func (d *Decoder) SetIgnoreInvalidTimecodeErrors(ignore bool) {
	d.tolerant = ignore
}

// SetLogger sets the logger for warnings and debug output. The decoder is
// silent by default.
func (d *Decoder) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger = l
}

// Stats returns the counters from the last Decode or DecodeAll.
func (d *Decoder) Stats() Stats { return d.stats }

// Decode reads the EDL and returns its timeline. An EDL with more than one
// TITLE returns ErrMultipleTimelines; use DecodeAll for those.
func (d *Decoder) Decode() (*timeline.Timeline, error) {
	timelines, err := d.DecodeAll()
	if err != nil {
		return nil, err
	}
	if len(timelines) > 1 {
		return nil, fmt.Errorf("%w: found %d titles", ErrMultipleTimelines, len(timelines))
	}
	return timelines[0], nil
}

// DecodeAll reads the EDL and returns one timeline per distinct TITLE, in
// file order. There is always at least one timeline.
func (d *Decoder) DecodeAll() ([]*timeline.Timeline, error) {
	if d.rate <= 0 {
		return nil, fmt.Errorf("invalid rate %v", d.rate)
	}
	d.stats = Stats{}
	r := &reconstruction{
		rate:     d.rate,
		tolerant: d.tolerant,
		log:      d.logger,
		stats:    &d.stats,
	}
	if err := r.run(NewStatementScanner(d.r)); err != nil {
		return nil, err
	}
	d.stats.Timelines = len(r.timelines)
	return r.timelines, nil
}

// reconstruction is the state of one decode.
type reconstruction struct {
	rate     float64
	tolerant bool
	log      *slog.Logger
	stats    *Stats

	timelines []*timeline.Timeline
	current   *timelineState
}

func (r *reconstruction) startTimeline(name string) {
	r.current = newTimelineState(name)
	r.timelines = append(r.timelines, r.current.timeline)
	r.log.Debug("timeline started", "title", name)
}

func (r *reconstruction) run(scanner *StatementScanner) error {
	r.startTimeline("")
	grouper := newEventGrouper(r.processEvent)

	for scanner.Scan() {
		stmt := scanner.Statement()
		r.stats.Statements++

		split := false
		if note, ok := stmt.(*NoteFormStatement); ok && !note.IsComment {
			switch {
			case note.Is(NoteFCM):
				r.recordFCM(note)
				continue
			case note.Is(NoteTitle):
				if err := r.title(note.Data(), grouper); err != nil {
					return err
				}
				continue
			case note.Is(NoteSplit):
				split = true
			}
		}

		if err := grouper.add(stmt, split); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return grouper.flush()
}

// title names the current timeline, or starts a new one when the current
// timeline already has a different name.
func (r *reconstruction) title(name string, grouper *eventGrouper) error {
	tl := r.current.timeline
	if tl.Name != "" && tl.Name != name {
		if err := grouper.flush(); err != nil {
			return err
		}
		r.startTimeline(name)
		return nil
	}
	tl.Name = name
	return nil
}

// recordFCM stores the frame code mode. Drop frame is still decided by the
// timecode separator.
func (r *reconstruction) recordFCM(note *NoteFormStatement) {
	ns := r.current.timeline.Metadata.Namespace(MetadataNamespace)
	if _, err := note.FCMIsDropFrame(); err != nil {
		r.log.Warn("unrecognised frame code mode", "line", note.LineNumber, "value", note.Data())
	}
	ns["fcm"] = strings.ToUpper(note.Data())
}
