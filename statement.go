// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// StatementInfo is the line context shared by every statement.
type StatementInfo struct {
	// LineNumber is 1-based.
	LineNumber int
	// EditNumber is the edit (event) number as written, or carried forward
	// from an earlier line when EditNumberInferred is set.
	EditNumber         string
	EditNumberInferred bool
	// IsVirtualEdit is set by a '>' after the edit number.
	IsVirtualEdit bool
	// IsRecorded is set by a '>!' after the edit number. It is stored but
	// not otherwise interpreted.
	IsRecorded bool
}

// NormalizedEditNumber strips zero padding so 001, 1 and 0001 compare equal.
func (s StatementInfo) NormalizedEditNumber() string {
	return normalizeEditNumber(s.EditNumber)
}

func normalizeEditNumber(n string) string {
	return strings.TrimLeft(n, "0")
}

// Info returns the statement's line context.
func (s StatementInfo) Info() StatementInfo { return s }

// Statement is either a *StandardFormStatement or a *NoteFormStatement.
type Statement interface {
	Info() StatementInfo
	String() string
	isStatement()
}

// StandardFormStatement is an edit line: reel, channels, edit type and the
// four source/record timecodes. Timecodes are kept as written and resolved
// later against the EDL rate.
type StandardFormStatement struct {
	StatementInfo
	SourceIdentification string
	Channels             string
	EditType             string
	EditParameter        string
	SourceEntry          string
	SourceExit           string
	SyncEntry            string
	SyncExit             string
}

func (*StandardFormStatement) isStatement() {}

// SpecialSource returns the reserved source the reel field names, if any.
func (s *StandardFormStatement) SpecialSource() SpecialSource {
	return specialSourceFor(s.SourceIdentification)
}

// Effect parses the edit type and parameter.
func (s *StandardFormStatement) Effect() (Effect, error) {
	return effectFromStatement(s)
}

func (s *StandardFormStatement) String() string {
	param := ""
	if s.EditParameter != "" {
		param = " " + s.EditParameter
	}
	return fmt.Sprintf("%d: edit %s %s %s %s%s %s %s %s %s",
		s.LineNumber, s.EditNumber, s.SourceIdentification, s.Channels, s.EditType, param,
		s.SourceEntry, s.SourceExit, s.SyncEntry, s.SyncExit)
}

// Effect is the parsed edit type of a standard form statement.
type Effect struct {
	Type      EditType
	Parameter string
	// WipeType is the three digit wipe number of a W### edit type.
	WipeType string
}

func effectFromStatement(s *StandardFormStatement) (Effect, error) {
	e := Effect{Type: EditType(s.EditType), Parameter: s.EditParameter}
	if !validEditTypes[e.Type] {
		m := wipeCodeRegex.FindStringSubmatch(s.EditType)
		if m == nil {
			return Effect{}, &ParseError{
				Line:       s.LineNumber,
				EditNumber: s.EditNumber,
				Kind:       ErrUnsupportedTransition,
				Message:    fmt.Sprintf("unknown edit type %q", s.EditType),
			}
		}
		e.Type = EditTypeWipe
		e.WipeType = m[1]
	}
	return e, nil
}

// IsTransition reports whether the effect blends two sources over time.
func (e Effect) IsTransition() bool {
	return e.Type == EditTypeDissolve || e.Type == EditTypeWipe || e.Type == EditTypeKey
}

// TransitionDuration returns the transition length in frames. ok is false
// when no parameter was given.
func (e Effect) TransitionDuration() (frames int, ok bool, err error) {
	if !e.IsTransition() {
		return 0, false, fmt.Errorf("%w: %s effects have no duration", ErrUnsupportedTransition, e.Type)
	}
	if e.Parameter == "" {
		return 0, false, nil
	}
	frames, err = strconv.Atoi(e.Parameter)
	if err != nil {
		return 0, false, fmt.Errorf("%w: duration %q is not a frame count", ErrUnsupportedTransition, e.Parameter)
	}
	return frames, true, nil
}

// NoteIdentifier names a note form statement kind.
type NoteIdentifier string

const (
	// System directives (SMPTE 258M).
	NoteTitle           NoteIdentifier = "TITLE"
	NoteWait            NoteIdentifier = "WAIT"
	NoteSkip            NoteIdentifier = "SKIP"
	NoteBell            NoteIdentifier = "BELL"
	NoteRecord          NoteIdentifier = "RECORD"
	NoteNoRecord        NoteIdentifier = "NORECORD"
	NoteSlave           NoteIdentifier = "SLAVE"
	NoteNoSlave         NoteIdentifier = "NOSLAVE"
	NoteAudio           NoteIdentifier = "AUDIO"
	NoteInclude         NoteIdentifier = "INCLUDE"
	NoteMedium          NoteIdentifier = "MEDIUM"
	NoteWipes           NoteIdentifier = "WIPES"
	NoteMotionCurve     NoteIdentifier = "MOTION_CURVE"
	NoteTimeCodeModulus NoteIdentifier = "TIME_CODE_MODULUS"

	// CMX notes.
	NoteFCM                  NoteIdentifier = "FCM"
	NoteSplit                NoteIdentifier = "SPLIT"
	NoteGPI                  NoteIdentifier = "GPI"
	NoteMasterSlave          NoteIdentifier = "M/S"
	NoteSwitcherMemory       NoteIdentifier = "SWM"
	NoteMotionMemory         NoteIdentifier = "M2"
	NoteMotionMemoryVariable NoteIdentifier = "%"

	// Vendor comments.
	NoteFromClipName      NoteIdentifier = "FROM CLIP NAME"
	NoteToClipName        NoteIdentifier = "TO CLIP NAME"
	NoteFromClip          NoteIdentifier = "FROM CLIP"
	NoteFromFile          NoteIdentifier = "FROM FILE"
	NoteSourceFile        NoteIdentifier = "SOURCE FILE"
	NoteLocator           NoteIdentifier = "LOC"
	NoteASCSOP            NoteIdentifier = "ASC_SOP"
	NoteASCSAT            NoteIdentifier = "ASC_SAT"
	NoteFreezeFrame       NoteIdentifier = "* FREEZE FRAME"
	NoteOTIOReference     NoteIdentifier = "OTIO REFERENCE"
	NoteOTIOReferenceFrom NoteIdentifier = "OTIO REFERENCE FROM"
)

// noteIdentifiers is ordered longest first so that FROM CLIP NAME wins over
// FROM CLIP.
var noteIdentifiers = func() []NoteIdentifier {
	ids := []NoteIdentifier{
		NoteTitle, NoteWait, NoteSkip, NoteBell, NoteRecord, NoteNoRecord, NoteSlave, NoteNoSlave,
		NoteAudio, NoteInclude, NoteMedium, NoteWipes, NoteMotionCurve, NoteTimeCodeModulus,
		NoteFCM, NoteSplit, NoteGPI, NoteMasterSlave, NoteSwitcherMemory, NoteMotionMemory,
		NoteMotionMemoryVariable, NoteFromClipName, NoteToClipName, NoteFromClip, NoteFromFile,
		NoteSourceFile, NoteLocator, NoteASCSOP, NoteASCSAT, NoteFreezeFrame, NoteOTIOReference,
		NoteOTIOReferenceFrom,
	}
	slices.SortFunc(ids, func(a, b NoteIdentifier) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}()

// NoteFormStatement is a comment ('*' prefixed) or directive line.
type NoteFormStatement struct {
	StatementInfo
	// Text is the statement with any leading '*' and whitespace removed.
	Text      string
	IsComment bool
}

func (*NoteFormStatement) isStatement() {}

func (s *NoteFormStatement) String() string {
	kind := "directive"
	if s.IsComment {
		kind = "comment"
	}
	edit := s.EditNumber
	if edit == "" {
		edit = "-"
	}
	return fmt.Sprintf("%d: %s %s %q", s.LineNumber, kind, edit, s.Text)
}

// Identifier returns the note's identifier: the longest known identifier the
// text starts with, else the text before the first ':', else the first word.
func (s *NoteFormStatement) Identifier() string {
	if id, ok := s.KnownIdentifier(); ok {
		return string(id)
	}
	if before, _, found := strings.Cut(s.Text, ":"); found {
		return before
	}
	if fields := strings.Fields(s.Text); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// KnownIdentifier returns the table identifier the text starts with.
func (s *NoteFormStatement) KnownIdentifier() (NoteIdentifier, bool) {
	for _, id := range noteIdentifiers {
		if strings.HasPrefix(s.Text, string(id)) {
			return id, true
		}
	}
	return "", false
}

// Is reports whether the note's identifier is id.
func (s *NoteFormStatement) Is(id NoteIdentifier) bool {
	known, ok := s.KnownIdentifier()
	return ok && known == id
}

// Data returns the text following the identifier and any separating colon.
func (s *NoteFormStatement) Data() string {
	after := s.Text
	if id := s.Identifier(); id != "" {
		if _, rest, found := strings.Cut(s.Text, id); found {
			after = rest
		}
	}
	return strings.TrimSpace(strings.TrimLeft(after, ":"))
}

// FCMIsDropFrame interprets an FCM directive.
func (s *NoteFormStatement) FCMIsDropFrame() (bool, error) {
	if !s.Is(NoteFCM) {
		return false, fmt.Errorf("line %d: %q is not an FCM directive", s.LineNumber, s.Text)
	}
	switch strings.ToUpper(s.Data()) {
	case "DROP FRAME":
		return true, nil
	case "NON-DROP FRAME":
		return false, nil
	}
	return false, fmt.Errorf("line %d: FCM has invalid value %q", s.LineNumber, s.Data())
}

// MotionDirective parses an M2 note.
func (s *NoteFormStatement) MotionDirective() (MotionDirective, error) {
	if !s.Is(NoteMotionMemory) {
		return MotionDirective{}, fmt.Errorf("line %d: %q is not an M2 directive", s.LineNumber, s.Text)
	}
	md, err := ParseMotionDirective(s.Data())
	if err != nil {
		return MotionDirective{}, &ParseError{
			Line: s.LineNumber, EditNumber: s.EditNumber, Kind: ErrMalformedStatement, Message: err.Error(),
		}
	}
	return md, nil
}

// MotionDirective is the payload of an M2 note.
type MotionDirective struct {
	Reel string
	// Speed is in frames per second of source played per second of record.
	Speed   float64
	Trigger string
}

// motionDirectiveRegex matches the data of an M2 note.
// Format: REEL SPEED [ignored fields] TRIGGER_TIMECODE
// Some writers leave the trigger frame unpadded or prefix it with '+'.
var motionDirectiveRegex = regexp.MustCompile(
	`^(?P<reel>.*?)\s+(?P<speed>-?[0-9.]+)\s+(?:.*\s)?\+?(?P<trigger>\d{1,2}:\d{1,2}:\d{1,2}[:;]\d{1,3})\s*$`)

// ParseMotionDirective parses "REEL SPEED TRIGGER" M2 data.
func ParseMotionDirective(data string) (MotionDirective, error) {
	m := motionDirectiveRegex.FindStringSubmatch(strings.TrimSpace(data))
	if m == nil {
		return MotionDirective{}, fmt.Errorf("unsupported M2 effect format: %q", data)
	}
	speed, err := strconv.ParseFloat(m[motionDirectiveRegex.SubexpIndex("speed")], 64)
	if err != nil {
		return MotionDirective{}, fmt.Errorf("M2 speed in %q: %w", data, err)
	}
	return MotionDirective{
		Reel:    m[motionDirectiveRegex.SubexpIndex("reel")],
		Speed:   speed,
		Trigger: m[motionDirectiveRegex.SubexpIndex("trigger")],
	}, nil
}
