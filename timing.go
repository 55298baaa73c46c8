// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// isImplicitRange reports whether a statement's record in and out are the
// same text, meaning its duration comes from the neighbouring statement.
func isImplicitRange(stmt *StandardFormStatement) bool {
	return stmt.SyncEntry == stmt.SyncExit
}

// resolveTimings sets the source range of every clip in the group and returns
// the record range the group occupies on the timeline.
//
// Record timecode is authoritative: a clip's source duration is its record
// duration expressed at the source rate.
func (r *reconstruction) resolveTimings(g *channelGroup) (opentime.TimeRange, error) {
	recordRanges := make([]opentime.TimeRange, len(g.clips))
	previousImplicit := false
	for i, stmt := range g.statements {
		rr, adjusted, err := opentime.RangeFromTimecodesApprox(stmt.SyncEntry, stmt.SyncExit, r.rate, r.tolerant)
		if err != nil {
			return opentime.TimeRange{}, timecodeError(stmt, "record", err)
		}
		if adjusted {
			r.noteAdjusted(stmt, "record")
			cmxMetadata(g.clips[i])["record_"+timecodeAdjustedKey] = true
		}

		if previousImplicit {
			prev := recordRanges[i-1]
			recordRanges[i-1] = opentime.RangeFromStartEndTime(prev.StartTime(), rr.StartTime())
		}
		recordRanges[i] = rr
		previousImplicit = isImplicitRange(stmt)
	}

	for i, stmt := range g.statements {
		clip := g.clips[i]
		rr := recordRanges[i]
		sr, adjusted, err := opentime.RangeFromTimecodesApprox(stmt.SourceEntry, stmt.SourceExit, r.rate, r.tolerant)
		if err != nil {
			return opentime.TimeRange{}, timecodeError(stmt, "source", err)
		}
		if adjusted {
			r.noteAdjusted(stmt, "source")
			cmxMetadata(clip)["source_"+timecodeAdjustedKey] = true
		}

		clip.SourceRange = opentime.NewTimeRange(sr.StartTime(), rr.Duration().RescaledTo(sr.StartTime().Rate()))

		if !rr.Duration().Equal(sr.Duration()) && !isImplicitRange(stmt) && len(clip.Effects) == 0 {
			cmxMetadata(clip)["had_timecode_mismatch"] = true
			r.stats.TimecodeMismatches++
			r.log.Warn("record and source durations differ",
				"line", stmt.LineNumber, "edit", stmt.EditNumber,
				"record", rr.Duration().Value(), "source", sr.Duration().Value())
		}
	}

	total := opentime.NewRationalTime(0, r.rate)
	for _, rr := range recordRanges {
		total = total.Add(rr.Duration())
	}
	return opentime.NewTimeRange(recordRanges[0].StartTime(), total), nil
}

func (r *reconstruction) noteAdjusted(stmt *StandardFormStatement, which string) {
	r.stats.AdjustedTimecodes++
	r.log.Warn("timecode approximated at an inferred rate",
		"line", stmt.LineNumber, "edit", stmt.EditNumber, "timecode", which)
}

func timecodeError(stmt *StandardFormStatement, which string, err error) error {
	return &ParseError{
		Line:       stmt.LineNumber,
		EditNumber: stmt.EditNumber,
		Kind:       ErrInvalidTimecode,
		Message:    fmt.Sprintf("%s timecode: %v", which, err),
	}
}

// cmxMetadata returns the clip's EDL metadata namespace, creating it if needed.
func cmxMetadata(c *timeline.Clip) timeline.Metadata {
	return c.Metadata.Namespace(MetadataNamespace)
}
