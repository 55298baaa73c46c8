// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package timeline is the editorial data model EDL documents are decoded into:
// a Timeline holds Tracks, and a Track holds a sequence of Clips, Gaps and
// Transitions.
package timeline

import (
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
)

// Kind is the media kind of a track.
type Kind string

const (
	KindVideo Kind = "Video"
	KindAudio Kind = "Audio"
)

// Track is an ordered sequence of items. Clips and gaps are laid end to end;
// transitions sit between them without taking up time.
type Track struct {
	Name     string
	Kind     Kind
	Metadata Metadata
	children []Item
}

// NewTrack creates an empty track.
func NewTrack(name string, kind Kind) *Track {
	return &Track{Name: name, Kind: kind, Metadata: Metadata{}}
}

// Append adds items to the end of the track.
func (t *Track) Append(items ...Item) {
	t.children = append(t.children, items...)
}

// Children returns the track's items. The slice must not be modified.
func (t *Track) Children() []Item { return t.children }

// SetChildren replaces the track's items.
func (t *Track) SetChildren(items []Item) { t.children = items }

// Len returns the number of items on the track.
func (t *Track) Len() int { return len(t.children) }

// Last returns the final item, or nil for an empty track.
func (t *Track) Last() Item {
	if len(t.children) == 0 {
		return nil
	}
	return t.children[len(t.children)-1]
}

// Duration is the sum of the durations of every non-transition item.
func (t *Track) Duration() opentime.RationalTime {
	total := opentime.NewRationalTime(0, 1)
	first := true
	for _, item := range t.children {
		if _, ok := item.(*Transition); ok {
			continue
		}
		if first {
			total = item.Duration()
			first = false
			continue
		}
		total = total.Add(item.Duration())
	}
	return total
}

// RangeOfChild returns the range item i occupies in track time. A transition
// spans InOffset before the next item's start to OutOffset after it.
func (t *Track) RangeOfChild(i int) opentime.TimeRange {
	var start opentime.RationalTime
	first := true
	for _, item := range t.children[:i] {
		if _, ok := item.(*Transition); ok {
			continue
		}
		if first {
			start = item.Duration()
			first = false
		} else {
			start = start.Add(item.Duration())
		}
	}
	item := t.children[i]
	if first {
		start = opentime.NewRationalTime(0, item.Duration().Rate())
	}
	if tr, ok := item.(*Transition); ok {
		return opentime.NewTimeRange(start.Sub(tr.InOffset), tr.Duration())
	}
	return opentime.NewTimeRange(start, item.Duration())
}

// ChildrenInRange returns the items whose track range intersects r. Gaps
// count as occupying their range.
func (t *Track) ChildrenInRange(r opentime.TimeRange) []Item {
	var out []Item
	for i, item := range t.children {
		if t.RangeOfChild(i).Intersects(r) {
			out = append(out, item)
		}
	}
	return out
}

// Clips returns the clips on the track in order.
func (t *Track) Clips() []*Clip {
	var out []*Clip
	for _, item := range t.children {
		if c, ok := item.(*Clip); ok {
			out = append(out, c)
		}
	}
	return out
}

// Timeline is the decoded form of one EDL document.
type Timeline struct {
	Name            string
	GlobalStartTime *opentime.RationalTime
	Tracks          []*Track
	Metadata        Metadata
}

// NewTimeline creates an empty timeline.
func NewTimeline(name string) *Timeline {
	return &Timeline{Name: name, Metadata: Metadata{}}
}

// AppendTrack adds a track to the timeline's stack.
func (tl *Timeline) AppendTrack(t *Track) {
	tl.Tracks = append(tl.Tracks, t)
}

// VideoTracks returns the video tracks in stack order.
func (tl *Timeline) VideoTracks() []*Track { return tl.tracksOfKind(KindVideo) }

// AudioTracks returns the audio tracks in stack order.
func (tl *Timeline) AudioTracks() []*Track { return tl.tracksOfKind(KindAudio) }

func (tl *Timeline) tracksOfKind(kind Kind) []*Track {
	var out []*Track
	for _, t := range tl.Tracks {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Duration is the duration of the longest track.
func (tl *Timeline) Duration() opentime.RationalTime {
	longest := opentime.NewRationalTime(0, 1)
	for _, t := range tl.Tracks {
		if d := t.Duration(); d.After(longest) {
			longest = d
		}
	}
	return longest
}
