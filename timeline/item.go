// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

import (
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
)

// Item is an element of a track: *Clip, *Gap or *Transition.
type Item interface {
	// Duration is the item's length. For a transition it is the sum of its
	// offsets even though it occupies no time on the track.
	Duration() opentime.RationalTime
	// Clone returns a deep copy.
	Clone() Item
	itemType() string
}

// Clip is a span of source media placed on a track.
type Clip struct {
	Name           string
	MediaReference MediaReference
	SourceRange    opentime.TimeRange
	Effects        []Effect
	Markers        []*Marker
	Metadata       Metadata
}

// NewClip creates a clip. A nil reference becomes a MissingReference.
func NewClip(name string, ref MediaReference, sourceRange opentime.TimeRange, metadata Metadata) *Clip {
	if ref == nil {
		ref = MissingReference{}
	}
	if metadata == nil {
		metadata = Metadata{}
	}
	return &Clip{Name: name, MediaReference: ref, SourceRange: sourceRange, Metadata: metadata}
}

func (c *Clip) itemType() string { return "Clip" }

// Duration returns the source range duration.
func (c *Clip) Duration() opentime.RationalTime { return c.SourceRange.Duration() }

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() Item {
	out := &Clip{
		Name:        c.Name,
		SourceRange: c.SourceRange,
		Metadata:    c.Metadata.Clone(),
	}
	if c.MediaReference != nil {
		out.MediaReference = c.MediaReference.CloneReference()
	}
	for _, e := range c.Effects {
		out.Effects = append(out.Effects, e.CloneEffect())
	}
	for _, m := range c.Markers {
		out.Markers = append(out.Markers, m.Clone())
	}
	return out
}

// TimeScalar returns the product of the time scalars of the clip's effects,
// or 1 when it has none.
func (c *Clip) TimeScalar() float64 {
	scalar := 1.0
	for _, e := range c.Effects {
		scalar *= e.TimeScalar()
	}
	return scalar
}

// AvailableRange returns the media's available range when the reference
// carries one.
func (c *Clip) AvailableRange() (opentime.TimeRange, bool) {
	if seq, ok := c.MediaReference.(*ImageSequenceReference); ok && seq.AvailableRange != nil {
		return *seq.AvailableRange, true
	}
	return opentime.TimeRange{}, false
}

// Gap is empty track time.
type Gap struct {
	SourceRange opentime.TimeRange
}

// NewGapWithDuration creates a gap of the given duration starting at zero.
func NewGapWithDuration(d opentime.RationalTime) *Gap {
	return &Gap{SourceRange: opentime.NewTimeRange(opentime.NewRationalTime(0, d.Rate()), d)}
}

func (g *Gap) itemType() string { return "Gap" }

// Duration returns the gap's length.
func (g *Gap) Duration() opentime.RationalTime { return g.SourceRange.Duration() }

// Clone returns a copy of the gap.
func (g *Gap) Clone() Item {
	c := *g
	return &c
}

// TransitionType names the kind of transition.
type TransitionType string

const (
	TransitionTypeSMPTEDissolve TransitionType = "SMPTE_Dissolve"
	TransitionTypeSMPTEWipe     TransitionType = "SMPTE_Wipe"
	TransitionTypeCustom        TransitionType = "Custom_Transition"
)

// Transition blends the neighbouring items. It overlaps InOffset of the
// previous item and OutOffset of the next one.
type Transition struct {
	Name           string
	TransitionType TransitionType
	InOffset       opentime.RationalTime
	OutOffset      opentime.RationalTime
	Metadata       Metadata
}

// NewTransition creates a transition.
func NewTransition(name string, kind TransitionType, in, out opentime.RationalTime, metadata Metadata) *Transition {
	if metadata == nil {
		metadata = Metadata{}
	}
	return &Transition{Name: name, TransitionType: kind, InOffset: in, OutOffset: out, Metadata: metadata}
}

func (t *Transition) itemType() string { return "Transition" }

// Duration returns InOffset + OutOffset.
func (t *Transition) Duration() opentime.RationalTime { return t.InOffset.Add(t.OutOffset) }

// Clone returns a deep copy of the transition.
func (t *Transition) Clone() Item {
	c := *t
	c.Metadata = t.Metadata.Clone()
	return &c
}
