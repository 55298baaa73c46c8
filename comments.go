// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// ascSOPValueRegex matches one signed decimal value of an ASC_SOP note.
var ascSOPValueRegex = regexp.MustCompile(`[+-]*\d+\.\d+`)

// locatorRegex matches the data of a LOC note.
// Format: TIMECODE COLOR COMMENT
var locatorRegex = regexp.MustCompile(`^(\d\d:\d\d:\d\d:\d\d)\s+(\w*)(\s+|$)(.*)`)

// ASCSOP holds ASC CDL slope, offset and power values per RGB channel.
type ASCSOP struct {
	Slope  [3]float64
	Offset [3]float64
	Power  [3]float64
}

// DefaultASCSOP is the identity color decision.
var DefaultASCSOP = ASCSOP{
	Slope:  [3]float64{1, 1, 1},
	Offset: [3]float64{0, 0, 0},
	Power:  [3]float64{1, 1, 1},
}

// DefaultASCSAT is the identity saturation.
const DefaultASCSAT = 1.0

// ParseASCSOP reads the nine decimal values of an ASC_SOP note.
func ParseASCSOP(data string) (ASCSOP, error) {
	values := ascSOPValueRegex.FindAllString(data, -1)
	if len(values) < 9 {
		return ASCSOP{}, fmt.Errorf("%w: ASC_SOP needs 9 values, found %d in %q",
			ErrInvalidColorDecision, len(values), data)
	}
	var sop ASCSOP
	for i := 0; i < 3; i++ {
		var err error
		if sop.Slope[i], err = parseSignedDecimal(values[i]); err != nil {
			return ASCSOP{}, err
		}
		if sop.Offset[i], err = parseSignedDecimal(values[3+i]); err != nil {
			return ASCSOP{}, err
		}
		if sop.Power[i], err = parseSignedDecimal(values[6+i]); err != nil {
			return ASCSOP{}, err
		}
	}
	return sop, nil
}

// parseSignedDecimal accepts the repeated sign prefixes the value regex allows.
func parseSignedDecimal(s string) (float64, error) {
	digits := strings.TrimLeft(s, "+-")
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColorDecision, s)
	}
	if strings.Count(s[:len(s)-len(digits)], "-")%2 == 1 {
		v = -v
	}
	return v, nil
}

func (s ASCSOP) metadata() timeline.Metadata {
	return timeline.Metadata{
		"slope":  s.Slope[:],
		"offset": s.Offset[:],
		"power":  s.Power[:],
	}
}

// EventComments classifies the note form statements of one event.
type EventComments struct {
	// ClipName and DestClipName come from FROM CLIP NAME and TO CLIP NAME.
	ClipName     *string
	DestClipName *string
	// MediaReference is the text of the first FROM CLIP, FROM FILE or OTIO
	// REFERENCE note.
	MediaReference *string
	Locators       []*timeline.Marker
	SOP            *ASCSOP
	Saturation     *float64
	FreezeFrame    *string

	// Unhandled holds the text of notes that were not consumed, in order.
	Unhandled []string
	// Malformed holds recognised notes whose content failed to parse.
	Malformed []*NoteFormStatement

	// AdjustedTimecodes counts locators read at an inferred rate.
	AdjustedTimecodes int

	rate float64
}

// NewEventComments classifies notes against the EDL rate.
func NewEventComments(notes []*NoteFormStatement, rate float64) *EventComments {
	c := &EventComments{rate: rate}
	for _, note := range notes {
		if err := c.process(note); err != nil {
			c.Unhandled = append(c.Unhandled, note.Text)
			c.Malformed = append(c.Malformed, note)
		}
	}
	return c
}

// HasCDL reports whether either color decision note was present.
func (c *EventComments) HasCDL() bool {
	return c.SOP != nil || c.Saturation != nil
}

// CDL returns the color decision metadata, filling in defaults for the part
// that was not supplied.
func (c *EventComments) CDL() timeline.Metadata {
	sop := DefaultASCSOP
	if c.SOP != nil {
		sop = *c.SOP
	}
	sat := DefaultASCSAT
	if c.Saturation != nil {
		sat = *c.Saturation
	}
	return timeline.Metadata{"asc_sop": sop.metadata(), "asc_sat": sat}
}

func (c *EventComments) process(note *NoteFormStatement) error {
	id, ok := note.KnownIdentifier()
	if !ok {
		c.Unhandled = append(c.Unhandled, note.Text)
		return nil
	}

	// Only the first note for a destination wins; later ones are kept as
	// unhandled. Locators accumulate.
	first := func(slot **string) {
		if *slot != nil {
			c.Unhandled = append(c.Unhandled, note.Text)
			return
		}
		data := note.Data()
		*slot = &data
	}

	switch id {
	case NoteFromClipName:
		first(&c.ClipName)
	case NoteToClipName:
		first(&c.DestClipName)
	case NoteFromClip, NoteFromFile, NoteOTIOReference, NoteOTIOReferenceFrom:
		first(&c.MediaReference)
	case NoteFreezeFrame:
		first(&c.FreezeFrame)
	case NoteLocator:
		if marker := c.markerForLocator(note); marker != nil {
			c.Locators = append(c.Locators, marker)
		}
	case NoteASCSOP:
		if c.SOP != nil {
			c.Unhandled = append(c.Unhandled, note.Text)
			return nil
		}
		sop, err := ParseASCSOP(note.Data())
		if err != nil {
			return err
		}
		c.SOP = &sop
	case NoteASCSAT:
		if c.Saturation != nil {
			c.Unhandled = append(c.Unhandled, note.Text)
			return nil
		}
		sat, err := strconv.ParseFloat(note.Data(), 64)
		if err != nil {
			return fmt.Errorf("%w: ASC_SAT %q", ErrInvalidColorDecision, note.Data())
		}
		c.Saturation = &sat
	default:
		c.Unhandled = append(c.Unhandled, note.Text)
	}
	return nil
}

// markerForLocator builds a marker from "* LOC: 01:00:01:14 RED ANIM FIX NEEDED".
// Locators that do not match the format are dropped.
func (c *EventComments) markerForLocator(note *NoteFormStatement) *timeline.Marker {
	m := locatorRegex.FindStringSubmatch(note.Data())
	if m == nil {
		return nil
	}
	tc, color, name := m[1], m[2], m[4]

	at, adjusted, err := opentime.FromTimecodeApprox(tc, c.rate, true)
	if err != nil {
		return nil
	}
	cmx := timeline.Metadata{"color": color, "timecode": tc}
	if adjusted {
		cmx[timecodeAdjustedKey] = true
		c.AdjustedTimecodes++
	}

	markerColor, ok := timeline.ParseMarkerColor(color)
	if !ok {
		markerColor = timeline.MarkerColorRed
	}
	return timeline.NewMarker(
		name,
		opentime.NewTimeRange(at, opentime.NewRationalTime(0, at.Rate())),
		markerColor,
		timeline.Metadata{MetadataNamespace: cmx},
	)
}
