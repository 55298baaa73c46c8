// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"
	"slices"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// timelineState is the running state for the timeline being built.
type timelineState struct {
	timeline     *timeline.Timeline
	tracksByName map[string]*timeline.Track
	videoTracks  []*timeline.Track

	// initialized is set once the first edit has set the global start time,
	// whether or not its record timecode could be parsed.
	initialized bool
	startOffset *opentime.RationalTime
}

func newTimelineState(name string) *timelineState {
	return &timelineState{
		timeline:     timeline.NewTimeline(name),
		tracksByName: map[string]*timeline.Track{},
	}
}

func (s *timelineState) addTrack(t *timeline.Track) {
	s.timeline.AppendTrack(t)
	s.tracksByName[t.Name] = t
	if t.Kind == timeline.KindVideo {
		s.videoTracks = append(s.videoTracks, t)
	}
}

// tracksForChannel resolves a channel code to the tracks its items go on,
// creating tracks as needed. Video that would overlap existing content moves
// to a free video track, or a new one; overlapping audio is an error.
func (s *timelineState) tracksForChannel(channel string, eventRange opentime.TimeRange) ([]*timeline.Track, error) {
	relative := opentime.NewTimeRange(eventRange.StartTime().Sub(*s.startOffset), eventRange.Duration())

	var out []*timeline.Track
	for _, name := range TrackNamesForChannel(channel) {
		track, ok := s.tracksByName[name]
		if !ok {
			track = timeline.NewTrack(name, guessKindForTrackName(name))
			s.addTrack(track)
		}

		if relative.StartTime().Before(track.Duration()) && len(track.ChildrenInRange(relative)) > 0 {
			if track.Kind != timeline.KindVideo {
				return nil, fmt.Errorf("%w: channel %s has existing content at %v", ErrTrackOverlap, channel, eventRange)
			}
			track = s.overlayTrackFor(track, relative)
		}
		out = append(out, track)
	}
	return out, nil
}

// overlayTrackFor returns a video track other than busy with nothing in r.
func (s *timelineState) overlayTrackFor(busy *timeline.Track, r opentime.TimeRange) *timeline.Track {
	for _, t := range s.videoTracks {
		if t != busy && len(t.ChildrenInRange(r)) == 0 {
			return t
		}
	}
	t := timeline.NewTrack(fmt.Sprintf("V%d", len(s.videoTracks)+1), timeline.KindVideo)
	s.addTrack(t)
	return t
}

// place puts one channel group's items on their tracks at eventRange.
func (s *timelineState) place(g *channelGroup, eventRange opentime.TimeRange) error {
	if s.startOffset == nil {
		start := eventRange.StartTime()
		s.startOffset = &start
	}

	tracks, err := s.tracksForChannel(g.channels, eventRange)
	if err != nil {
		events := g.events()
		plural := ""
		if len(events) > 1 {
			plural = "s"
		}
		return &ParseError{
			Line:    g.statements[0].LineNumber,
			Events:  events,
			Kind:    ErrTrackOverlap,
			Message: fmt.Sprintf("Overlapping record in value for event%s %s", plural, strings.Join(events, ", ")),
		}
	}

	relativeStart := eventRange.StartTime().Sub(*s.startOffset)
	for _, track := range tracks {
		items := g.items
		if trackEnd := track.Duration(); relativeStart.After(trackEnd) {
			track.Append(timeline.NewGapWithDuration(relativeStart.Sub(trackEnd)))
		} else if incoming, ok := items[0].(*timeline.Clip); ok && shouldMergeClipToTrack(incoming, track) {
			mergeInto(track.Last().(*timeline.Clip), incoming)
			items = items[1:]
		}

		if len(tracks) > 1 {
			for _, item := range items {
				track.Append(item.Clone())
			}
		} else {
			track.Append(items...)
		}
	}
	return nil
}

// mergeInto extends existing by incoming's duration and takes its events.
func mergeInto(existing, incoming *timeline.Clip) {
	added := incoming.Duration().RescaledTo(existing.Duration().Rate())
	existing.SourceRange = opentime.NewTimeRange(existing.SourceRange.StartTime(), existing.Duration().Add(added))

	events := clipEvents(existing)
	for _, e := range clipEvents(incoming) {
		if !slices.Contains(events, e) {
			events = append(events, e)
		}
	}
	cmxMetadata(existing)["events"] = events
}

// shouldMergeClipToTrack reports whether clip is a zero length fragment (the
// implicit half of a transition) that continues the track's last clip.
func shouldMergeClipToTrack(clip *timeline.Clip, track *timeline.Track) bool {
	existing, ok := track.Last().(*timeline.Clip)
	if !ok {
		return false
	}
	return clip.Duration().Value() == 0 && clipsAreContinuous(existing, clip)
}

// clipsAreContinuous reports whether b picks up in the source exactly where
// a ends: same reel, same media, adjacent source ranges and the same net
// speed.
func clipsAreContinuous(a, b *timeline.Clip) bool {
	if cmxMetadata(a)["reel"] != cmxMetadata(b)["reel"] {
		return false
	}
	if !timeline.SameMedia(a.MediaReference, b.MediaReference) {
		return false
	}
	if !a.SourceRange.EndTimeExclusive().Equal(b.SourceRange.StartTime()) {
		return false
	}
	// TODO: compare with a tolerance once M2 speeds with repeating decimals
	// have a fixture.
	return a.TimeScalar() == b.TimeScalar()
}

func clipEvents(c *timeline.Clip) []string {
	events, _ := cmxMetadata(c)["events"].([]string)
	return slices.Clone(events)
}
