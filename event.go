// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// imageSequenceRegex matches an image sequence path.
// Format: /path/filename.[1001-1020].ext
var imageSequenceRegex = regexp.MustCompile(`.*\.(\[([0-9]+)-([0-9]+)\])\.\w+$`)

// channelGroup is the items one event puts on one channel code, in order.
type channelGroup struct {
	channels string
	items    []timeline.Item
	// clips and statements are parallel: statements[i] produced clips[i].
	clips      []*timeline.Clip
	statements []*StandardFormStatement
}

// events returns the sorted edit numbers that contributed to the group.
func (g *channelGroup) events() []string {
	var out []string
	for _, item := range g.items {
		var md timeline.Metadata
		switch it := item.(type) {
		case *timeline.Clip:
			md = it.Metadata
		case *timeline.Transition:
			md = it.Metadata
		default:
			continue
		}
		ns, _ := md[MetadataNamespace].(timeline.Metadata)
		events, _ := ns["events"].([]string)
		for _, e := range events {
			if !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	slices.Sort(out)
	return out
}

// processEvent turns the statements of one event into clips and transitions
// and places them on the current timeline.
func (r *reconstruction) processEvent(statements []Statement) error {
	if len(statements) == 0 {
		return nil
	}

	explicit := slices.ContainsFunc(statements, func(s Statement) bool {
		info := s.Info()
		return !info.EditNumberInferred && info.EditNumber != ""
	})
	if !explicit {
		r.addTimelineComments(statements)
		return nil
	}
	r.stats.Events++

	var (
		notes    []*NoteFormStatement
		motion   []*NoteFormStatement
		standard []*StandardFormStatement
	)
	for _, s := range statements {
		switch stmt := s.(type) {
		case *StandardFormStatement:
			standard = append(standard, stmt)
		case *NoteFormStatement:
			if stmt.Is(NoteMotionMemory) {
				motion = append(motion, stmt)
				continue
			}
			if stmt.Is(NoteFreezeFrame) {
				motion = append(motion, stmt)
			}
			notes = append(notes, stmt)
		}
	}

	comments := NewEventComments(notes, r.rate)
	r.stats.MalformedNotes += len(comments.Malformed)
	r.stats.AdjustedTimecodes += comments.AdjustedTimecodes
	for _, m := range comments.Malformed {
		r.log.Warn("malformed note", "line", m.LineNumber, "edit", m.EditNumber, "text", m.Text)
	}

	hasTransition := slices.ContainsFunc(standard, func(s *StandardFormStatement) bool {
		return s.EditType != string(EditTypeCut)
	})

	var groups []*channelGroup
	byChannel := map[string]*channelGroup{}
	var allClips []*timeline.Clip
	for i, stmt := range standard {
		isFrom := !hasTransition || i == 0
		clip := r.makeClip(stmt, comments, isFrom)

		g, ok := byChannel[stmt.Channels]
		if !ok {
			g = &channelGroup{channels: stmt.Channels}
			byChannel[stmt.Channels] = g
			groups = append(groups, g)
		}

		if stmt.EditType != string(EditTypeCut) {
			transition, err := r.makeTransition(stmt)
			if err != nil {
				return err
			}
			transition.Name = transitionName(transition, clip, comments)
			g.items = append(g.items, transition)
		}
		g.items = append(g.items, clip)
		g.clips = append(g.clips, clip)
		g.statements = append(g.statements, stmt)
		allClips = append(allClips, clip)

		r.initTimeline(stmt)
	}

	r.applyMotion(motion, allClips)

	for _, g := range groups {
		eventRange, err := r.resolveTimings(g)
		if err != nil {
			return err
		}
		if err := r.current.place(g, eventRange); err != nil {
			return err
		}
		r.log.Debug("event placed", "edit", g.statements[0].EditNumber, "channels", g.channels,
			"record_in", eventRange.StartTime().Value(), "duration", eventRange.Duration().Value())
	}
	return nil
}

// addTimelineComments records statements that belong to no event on the
// timeline itself.
func (r *reconstruction) addTimelineComments(statements []Statement) {
	ns := r.current.timeline.Metadata.Namespace(MetadataNamespace)
	comments, _ := ns["comments"].([]string)
	for _, s := range statements {
		if note, ok := s.(*NoteFormStatement); ok {
			comments = append(comments, note.Text)
		}
	}
	ns["comments"] = comments
}

// initTimeline sets the timeline's start time from the first edit.
func (r *reconstruction) initTimeline(stmt *StandardFormStatement) {
	st := r.current
	if st.initialized {
		return
	}
	st.initialized = true

	ns := st.timeline.Metadata.Namespace(MetadataNamespace)
	ns["edl_rate"] = r.rate
	start, adjusted, err := opentime.FromTimecodeApprox(stmt.SyncEntry, r.rate, r.tolerant)
	if err != nil {
		info, _ := ns["parsing_info"].([]string)
		ns["parsing_info"] = append(info, fmt.Sprintf("EDL start timecode %s couldn't be parsed", stmt.SyncEntry))
		r.log.Warn("timeline start timecode could not be parsed", "line", stmt.LineNumber, "timecode", stmt.SyncEntry)
		return
	}
	if adjusted {
		ns[timecodeAdjustedKey] = true
		r.stats.AdjustedTimecodes++
	}
	st.timeline.GlobalStartTime = &start
}

// makeClip builds the clip for one edit line. Only the from clip of an
// event carries its media reference note, color decision, locators and
// leftover comments.
func (r *reconstruction) makeClip(stmt *StandardFormStatement, comments *EventComments, isFrom bool) *timeline.Clip {
	var refText *string
	if isFrom {
		refText = comments.MediaReference
	}
	ref := r.mediaReferenceFor(stmt, refText)
	clip := timeline.NewClip(stmt.EditNumber, ref, opentime.TimeRange{}, nil)
	cmx := cmxMetadata(clip)

	commentName := comments.DestClipName
	if isFrom {
		commentName = comments.ClipName
		if comments.HasCDL() {
			clip.Metadata["cdl"] = comments.CDL()
		}
		for _, m := range comments.Locators {
			clip.Markers = append(clip.Markers, m.Clone())
		}
		if len(comments.Unhandled) > 0 {
			cmx["comments"] = slices.Clone(comments.Unhandled)
		}
	}

	clip.Name = nameForClip(ref, commentName, stmt.EditNumber)
	if commentName != nil {
		cmx["clip_name"] = *commentName
	} else {
		cmx["clip_name"] = nil
	}
	if stmt.SpecialSource() != SpecialSourceAux {
		cmx["reel"] = stmt.SourceIdentification
	}
	cmx["original_timecode"] = timeline.Metadata{
		"source_tc_in":  stmt.SourceEntry,
		"source_tc_out": stmt.SourceExit,
		"record_tc_in":  stmt.SyncEntry,
		"record_tc_out": stmt.SyncExit,
	}
	cmx["events"] = []string{stmt.EditNumber}
	return clip
}

// nameForClip prefers the clip name note, then the media's file stem, then
// the edit number.
func nameForClip(ref timeline.MediaReference, commentName *string, editNumber string) string {
	if commentName != nil && *commentName != "" {
		return *commentName
	}
	switch r := ref.(type) {
	case *timeline.ExternalReference:
		return fileStem(r.TargetURL)
	case *timeline.ImageSequenceReference:
		return fileStem(r.AbstractTargetURL(fmt.Sprintf("[%d-%d]", r.StartFrame, r.EndFrame())))
	}
	return editNumber
}

func fileStem(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// mediaReferenceFor resolves a clip's media from its special source or the
// media reference note text.
func (r *reconstruction) mediaReferenceFor(stmt *StandardFormStatement, refText *string) timeline.MediaReference {
	switch stmt.SpecialSource() {
	case SpecialSourceBlack:
		return &timeline.GeneratorReference{GeneratorKind: timeline.GeneratorBlack}
	case SpecialSourceBars:
		return &timeline.GeneratorReference{GeneratorKind: timeline.GeneratorSMPTEBars}
	}
	if refText == nil {
		return timeline.MissingReference{}
	}
	if seq := r.imageSequenceReference(stmt, *refText); seq != nil {
		return seq
	}
	return &timeline.ExternalReference{TargetURL: *refText}
}

func (r *reconstruction) imageSequenceReference(stmt *StandardFormStatement, text string) *timeline.ImageSequenceReference {
	m := imageSequenceRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return nil
	}

	dir, base := path.Split(text)
	prefix, suffix, _ := strings.Cut(base, m[1])

	seq := &timeline.ImageSequenceReference{
		TargetURLBase:    strings.TrimSuffix(dir, "/"),
		NamePrefix:       prefix,
		NameSuffix:       suffix,
		StartFrame:       start,
		FrameZeroPadding: len(m[2]),
		Rate:             r.rate,
	}
	if at, _, err := opentime.FromTimecodeApprox(stmt.SourceEntry, r.rate, r.tolerant); err == nil {
		ar := opentime.NewTimeRange(at, opentime.FromFrames(float64(end-start+1), r.rate))
		seq.AvailableRange = &ar
	}
	return seq
}
