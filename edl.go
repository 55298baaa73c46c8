// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package cmx3600 provides support for reading and writing CMX 3600 EDL (Edit Decision List) files.
// The CMX 3600 format is a text-based interchange format used in video editing.
//
// Reading happens in two stages. A StatementScanner turns lines into typed
// statements, and a Decoder groups those statements into edit events and
// places them on the tracks of one or more timelines.
package cmx3600

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// MetadataNamespace is the metadata key all EDL-specific values are stored under.
const MetadataNamespace = "cmx_3600"

// timecodeAdjustedKey marks values whose timecode was re-read at an inferred rate.
const timecodeAdjustedKey = "timecode_was_adjusted"

// EditType represents the type of edit in an EDL.
type EditType string

const (
	// EditTypeCut represents a cut (instantaneous transition).
	EditTypeCut EditType = "C"
	// EditTypeSyncRoll represents a sync roll.
	EditTypeSyncRoll EditType = "R"
	// EditTypeDissolve represents a dissolve/cross-fade.
	EditTypeDissolve EditType = "D"
	// EditTypeWipe represents a wipe transition. Wipes usually appear as W
	// followed by a three digit wipe number.
	EditTypeWipe EditType = "W"
	// EditTypeKey represents a key (overlay).
	EditTypeKey EditType = "K"
	// EditTypeKeyBackground represents a key with background.
	EditTypeKeyBackground EditType = "KB"
	// EditTypeKeyRemove removes a key.
	EditTypeKeyRemove EditType = "KO"
	// EditTypeMatte represents a matte key.
	EditTypeMatte EditType = "M"
	// EditTypeForeground represents a foreground key.
	EditTypeForeground EditType = "F"
	// EditTypeQuadSplit represents a quad split.
	EditTypeQuadSplit EditType = "Q"
	// EditTypeNonAdditiveMix represents a non-additive mix.
	EditTypeNonAdditiveMix EditType = "N"
	// EditTypeAudioMix represents an audio mix.
	EditTypeAudioMix EditType = "X"
)

var validEditTypes = map[EditType]bool{
	EditTypeCut: true, EditTypeSyncRoll: true, EditTypeDissolve: true, EditTypeWipe: true,
	EditTypeKey: true, EditTypeKeyBackground: true, EditTypeKeyRemove: true, EditTypeMatte: true,
	EditTypeForeground: true, EditTypeQuadSplit: true, EditTypeNonAdditiveMix: true, EditTypeAudioMix: true,
}

// wipeCodeRegex matches a numbered wipe edit type.
// Format: W###
var wipeCodeRegex = regexp.MustCompile(`^W(\d{3})$`)

// IsEditType reports whether token is a recognised edit type code, including
// numbered wipes.
func IsEditType(token string) bool {
	return validEditTypes[EditType(token)] || wipeCodeRegex.MatchString(token)
}

// SpecialSource is a reserved token in the reel field.
type SpecialSource string

const (
	// SpecialSourceNone marks an ordinary reel name.
	SpecialSourceNone SpecialSource = ""
	// SpecialSourceAux is an auxiliary or unknown source.
	SpecialSourceAux SpecialSource = "AX"
	// SpecialSourceBlack is generated black.
	SpecialSourceBlack SpecialSource = "BLACK"
	// SpecialSourceBars is generated color bars.
	SpecialSourceBars SpecialSource = "BARS"
)

// specialSourceFor maps reel field spellings to the special source they name.
func specialSourceFor(reel string) SpecialSource {
	switch reel {
	case "AX":
		return SpecialSourceAux
	case "BLACK", "BL":
		return SpecialSourceBlack
	case "BARS", "SMPTEBars":
		return SpecialSourceBars
	}
	return SpecialSourceNone
}

// ChannelMap expands channel shorthand into the names of the tracks an edit
// lands on. Codes not listed here are used as track names verbatim.
var ChannelMap = map[string][]string{
	"A":    {"A1"},
	"AA":   {"A1", "A2"},
	"B":    {"V", "A1"},
	"A2/V": {"V", "A2"},
	"AA/V": {"V", "A1", "A2"},
}

// TrackNamesForChannel returns the track names a channel code addresses.
func TrackNamesForChannel(channel string) []string {
	if names, ok := ChannelMap[channel]; ok {
		return names
	}
	return []string{channel}
}

// guessKindForTrackName follows the V/A naming convention, defaulting to video.
func guessKindForTrackName(name string) timeline.Kind {
	if strings.HasPrefix(name, "A") {
		return timeline.KindAudio
	}
	return timeline.KindVideo
}

// OutputStyle represents the style/flavor of EDL output.
type OutputStyle string

const (
	// OutputStyleAvid represents Avid Media Composer style EDL.
	OutputStyleAvid OutputStyle = "avid"
	// OutputStyleNucoda represents Nucoda style EDL.
	OutputStyleNucoda OutputStyle = "nucoda"
	// OutputStylePremiere represents Adobe Premiere Pro style EDL.
	OutputStylePremiere OutputStyle = "premiere"
)

// DefaultReelNameLength is the default maximum length for reel names.
const DefaultReelNameLength = 8

// SanitizeReelName ensures a reel name conforms to EDL requirements.
// Reel names should be alphanumeric and not exceed the specified length.
// If maxLength is 0 or negative, no length limit is applied.
func SanitizeReelName(name string, maxLength int) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)

	if maxLength > 0 && len(name) > maxLength {
		name = name[:maxLength]
	}
	if name == "" {
		name = string(SpecialSourceAux)
	}
	return name
}

// Error kinds. A *ParseError unwraps to one of these.
var (
	// ErrInvalidTimecode is returned for unparsable or rate-exceeding timecode.
	ErrInvalidTimecode = opentime.ErrInvalidTimecode
	// ErrMalformedStatement is returned for an edit line with the wrong number of fields.
	ErrMalformedStatement = errors.New("malformed statement")
	// ErrInvalidColorDecision is returned for an ASC_SOP note without nine values.
	ErrInvalidColorDecision = errors.New("invalid color decision")
	// ErrUnsupportedTransition is returned for transitions that cannot be built.
	ErrUnsupportedTransition = errors.New("unsupported transition")
	// ErrTrackOverlap is returned when an edit overlaps existing audio content.
	ErrTrackOverlap = errors.New("track overlap")
	// ErrMultipleTimelines is returned by Decode when the EDL holds several titles.
	ErrMultipleTimelines = errors.New("edl contains multiple timelines")
)

// ParseError represents an error that occurred during EDL parsing.
type ParseError struct {
	Line       int      // 1-based line number, 0 when unknown
	EditNumber string   // last edit number seen, if any
	Events     []string // contributing edit numbers for placement errors
	Kind       error    // one of the Err* kinds
	Message    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.EditNumber != "" && len(e.Events) == 0 {
		fmt.Fprintf(&b, "edit %s: ", e.EditNumber)
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the error kind.
func (e *ParseError) Unwrap() error { return e.Kind }

// EncodeError represents an error that occurred during EDL encoding.
type EncodeError struct {
	Message string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error: %s", e.Message)
}
