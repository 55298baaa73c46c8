// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

func decode(t *testing.T, edl string) *timeline.Timeline {
	t.Helper()
	decoder := NewDecoder(strings.NewReader(edl))
	decoder.SetRate(24.0)
	tl, err := decoder.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return tl
}

func singleVideoTrack(t *testing.T, tl *timeline.Timeline) []timeline.Item {
	t.Helper()
	tracks := tl.VideoTracks()
	if len(tracks) != 1 {
		t.Fatalf("Expected 1 video track, got %d", len(tracks))
	}
	return tracks[0].Children()
}

func cmxValue(md timeline.Metadata, key string) any {
	ns, _ := md[MetadataNamespace].(timeline.Metadata)
	return ns[key]
}

func TestDecoder_SimpleEDL(t *testing.T) {
	edl := `TITLE: Test Timeline
FCM: NON-DROP FRAME

001  AX       V     C        00:00:00:00 00:00:05:00 01:00:00:00 01:00:05:00
* FROM CLIP NAME: Shot1
* FROM CLIP: /media/shot1.mov

002  AX       V     C        00:00:10:00 00:00:15:00 01:00:05:00 01:00:10:00
* FROM CLIP NAME: Shot2
`
	tl := decode(t, edl)

	if tl.Name != "Test Timeline" {
		t.Errorf("Name = %q", tl.Name)
	}
	if got := cmxValue(tl.Metadata, "fcm"); got != "NON-DROP FRAME" {
		t.Errorf("fcm = %v", got)
	}
	if got := cmxValue(tl.Metadata, "edl_rate"); got != 24.0 {
		t.Errorf("edl_rate = %v", got)
	}
	if tl.GlobalStartTime == nil || tl.GlobalStartTime.Value() != 86400 {
		t.Fatalf("GlobalStartTime = %v", tl.GlobalStartTime)
	}

	children := singleVideoTrack(t, tl)
	if len(children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(children))
	}

	first := children[0].(*timeline.Clip)
	if first.Name != "Shot1" {
		t.Errorf("first clip name = %q", first.Name)
	}
	ref, ok := first.MediaReference.(*timeline.ExternalReference)
	if !ok || ref.TargetURL != "/media/shot1.mov" {
		t.Errorf("first clip reference = %#v", first.MediaReference)
	}
	if first.SourceRange.StartTime().Value() != 0 || first.Duration().Value() != 120 {
		t.Errorf("first clip range = %v", first.SourceRange)
	}
	if _, ok := cmxMetadata(first)["reel"]; ok {
		t.Error("AX clip should not carry a reel")
	}
	if got := cmxMetadata(first)["clip_name"]; got != "Shot1" {
		t.Errorf("clip_name = %v", got)
	}

	second := children[1].(*timeline.Clip)
	if _, ok := second.MediaReference.(timeline.MissingReference); !ok {
		t.Errorf("second clip reference = %#v", second.MediaReference)
	}
	if second.SourceRange.StartTime().Value() != 240 {
		t.Errorf("second clip start = %v", second.SourceRange.StartTime())
	}
	tc, _ := cmxMetadata(second)["original_timecode"].(timeline.Metadata)
	if tc["record_tc_in"] != "01:00:05:00" || tc["source_tc_out"] != "00:00:15:00" {
		t.Errorf("original_timecode = %v", tc)
	}

	if d := tl.Duration().Value(); d != 240 {
		t.Errorf("Duration() = %v, want 240", d)
	}
}

func TestDecoder_DissolveOddFrameCount(t *testing.T) {
	tests := map[string]string{
		"timecode": `TITLE: Dissolve
1 CLPA V C 00:00:04:17 00:00:07:02 00:00:00:00 00:00:02:09
2 CLPA V C 00:00:07:02 00:00:07:02 00:00:02:09 00:00:02:09
2 CLPB V D 027 00:00:06:18 00:00:07:21 00:00:02:09 00:00:03:12
3 CLPB V C 00:00:07:21 00:00:15:21 00:00:03:12 00:00:11:12
`,
		"frames": `TITLE: Dissolve
1 CLPA V C 113 170 0 57
2 CLPA V C 170 170 57 57
2 CLPB V D 027 162 189 57 84
3 CLPB V C 189 381 84 276
`,
	}
	for name, edl := range tests {
		t.Run(name, func(t *testing.T) {
			tl := decode(t, edl)
			children := singleVideoTrack(t, tl)
			if len(children) != 4 {
				t.Fatalf("Expected 4 children, got %d", len(children))
			}

			first := children[0].(*timeline.Clip)
			if first.Duration().Value() != 57 {
				t.Errorf("first clip duration = %v, want 57", first.Duration().Value())
			}
			if got := cmxMetadata(first)["events"]; !slices.Equal(got.([]string), []string{"1", "2"}) {
				t.Errorf("merged clip events = %v", got)
			}

			transition, ok := children[1].(*timeline.Transition)
			if !ok {
				t.Fatalf("children[1] is %T", children[1])
			}
			if transition.TransitionType != timeline.TransitionTypeSMPTEDissolve {
				t.Errorf("TransitionType = %q", transition.TransitionType)
			}
			if transition.InOffset.Value() != 0 || transition.OutOffset.Value() != 27 {
				t.Errorf("offsets = %v / %v", transition.InOffset, transition.OutOffset)
			}

			incoming := children[2].(*timeline.Clip)
			if incoming.Duration().Value() != 27 || incoming.SourceRange.StartTime().Value() != 162 {
				t.Errorf("incoming clip range = %v", incoming.SourceRange)
			}
			if children[3].(*timeline.Clip).Duration().Value() != 192 {
				t.Errorf("last clip duration = %v", children[3].(*timeline.Clip).Duration())
			}

			if d := tl.Duration().Value(); d != 276 {
				t.Errorf("Duration() = %v, want 276", d)
			}
		})
	}
}

func TestDecoder_FadeToBlack(t *testing.T) {
	edl := `TITLE: Fade
1 CLPA V C 00:00:03:18 00:00:12:15 00:00:00:00 00:00:08:21
2 CLPA V C 00:00:12:15 00:00:12:15 00:00:08:21 00:00:08:21
2 BL V D 024 00:00:00:00 00:00:01:00 00:00:08:21 00:00:09:21
`
	children := singleVideoTrack(t, decode(t, edl))
	if len(children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(children))
	}

	transition := children[1].(*timeline.Transition)
	if transition.Name != "SMPTE_Dissolve to 2" {
		t.Errorf("transition name = %q", transition.Name)
	}

	black := children[2].(*timeline.Clip)
	gen, ok := black.MediaReference.(*timeline.GeneratorReference)
	if !ok || gen.GeneratorKind != timeline.GeneratorBlack {
		t.Fatalf("black clip reference = %#v", black.MediaReference)
	}
	if black.Name != "2" {
		t.Errorf("black clip name = %q", black.Name)
	}
	if black.SourceRange.StartTime().Value() != 0 || black.Duration().Value() != 24 {
		t.Errorf("black clip range = %v", black.SourceRange)
	}
	if got := cmxMetadata(black)["reel"]; got != "BL" {
		t.Errorf("reel = %v", got)
	}
}

func TestDecoder_ChannelB(t *testing.T) {
	edl := `TITLE: Both
001  REEL1 B C 01:00:00:00 01:00:09:00 02:00:00:00 02:00:09:00
002  REEL1 B C 01:00:09:00 01:00:09:00 02:00:09:00 02:00:09:00
002  REEL2 B D 030 05:00:00:00 05:00:01:06 02:00:09:00 02:00:10:06
`
	tl := decode(t, edl)
	if tl.GlobalStartTime == nil || tl.GlobalStartTime.Value() != 172800 {
		t.Errorf("GlobalStartTime = %v", tl.GlobalStartTime)
	}
	if len(tl.Tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(tl.Tracks))
	}
	video, audio := tl.Tracks[0], tl.Tracks[1]
	if video.Name != "V" || video.Kind != timeline.KindVideo {
		t.Errorf("track 0 = %s %s", video.Name, video.Kind)
	}
	if audio.Name != "A1" || audio.Kind != timeline.KindAudio {
		t.Errorf("track 1 = %s %s", audio.Name, audio.Kind)
	}

	for _, track := range tl.Tracks {
		children := track.Children()
		if len(children) != 3 {
			t.Fatalf("%s: expected 3 children, got %d", track.Name, len(children))
		}
		if _, ok := children[0].(*timeline.Clip); !ok {
			t.Errorf("%s: children[0] is %T", track.Name, children[0])
		}
		tr, ok := children[1].(*timeline.Transition)
		if !ok {
			t.Fatalf("%s: children[1] is %T", track.Name, children[1])
		}
		if tr.InOffset.Value() != 0 || tr.OutOffset.Value() != 30 {
			t.Errorf("%s: offsets = %v / %v", track.Name, tr.InOffset, tr.OutOffset)
		}
		if c := children[0].(*timeline.Clip); c.Duration().Value() != 216 {
			t.Errorf("%s: first clip duration = %v", track.Name, c.Duration())
		}
	}

	for i := range video.Children() {
		if video.Children()[i] == audio.Children()[i] {
			t.Errorf("item %d is shared between tracks", i)
		}
	}
}

func TestDecoder_ImplicitRangeIsStretched(t *testing.T) {
	edl := `TITLE: Stretch
001 CLPA V C 00:00:01:00 00:00:02:00 01:00:00:00 01:00:01:00
002 CLPA V C 00:00:02:00 00:00:02:00 01:00:01:00 01:00:01:00
002 CLPB V D 012 00:00:10:00 00:00:11:00 01:00:01:12 01:00:02:12
`
	tl := decode(t, edl)
	children := singleVideoTrack(t, tl)
	if len(children) != 4 {
		t.Fatalf("Expected 4 children, got %d", len(children))
	}

	stretched, ok := children[1].(*timeline.Clip)
	if !ok {
		t.Fatalf("children[1] is %T", children[1])
	}
	if stretched.SourceRange.StartTime().Value() != 48 || stretched.Duration().Value() != 12 {
		t.Errorf("stretched range = %v", stretched.SourceRange)
	}
	if _, ok := cmxMetadata(stretched)["had_timecode_mismatch"]; ok {
		t.Error("implicit range should not be flagged as a mismatch")
	}
	if d := tl.Duration().Value(); d != 60 {
		t.Errorf("Duration() = %v, want 60", d)
	}
}

func TestDecoder_RecordGapsBecomeGaps(t *testing.T) {
	edl := `TITLE: Gaps
001  R1 V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:01:00
002  R2 V C 00:00:00:00 00:00:01:00 01:00:01:16 01:00:02:16
003  R3 V C 00:00:00:00 00:00:01:00 01:00:04:06 01:00:05:06
`
	children := singleVideoTrack(t, decode(t, edl))
	want := []struct {
		gap      bool
		duration float64
	}{
		{false, 24}, {true, 16}, {false, 24}, {true, 38}, {false, 24},
	}
	if len(children) != len(want) {
		t.Fatalf("Expected %d children, got %d", len(want), len(children))
	}
	for i, w := range want {
		_, isGap := children[i].(*timeline.Gap)
		if isGap != w.gap {
			t.Errorf("children[%d] is %T", i, children[i])
		}
		if d := children[i].Duration().Value(); d != w.duration {
			t.Errorf("children[%d] duration = %v, want %v", i, d, w.duration)
		}
	}
}

func TestDecoder_TabDelimiters(t *testing.T) {
	edl := "001  Z10 V  C\t\t01:00:04:05 01:00:05:12 00:59:53:11 00:59:54:18\n"
	children := singleVideoTrack(t, decode(t, edl))
	clip := children[0].(*timeline.Clip)
	if clip.SourceRange.StartTime().Value() != 86501 {
		t.Errorf("source start = %v, want 86501", clip.SourceRange.StartTime().Value())
	}
	if clip.Duration().Value() != 31 {
		t.Errorf("duration = %v, want 31", clip.Duration().Value())
	}
	if got := cmxMetadata(clip)["reel"]; got != "Z10" {
		t.Errorf("reel = %v", got)
	}
}

func TestDecoder_ImageSequence(t *testing.T) {
	edl := `TITLE: Sequence
001  AX V C 01:00:01:00 01:00:02:12 01:00:00:00 01:00:01:12
* FROM CLIP: /media/path/my_image_sequence.[1025-1060].ext
`
	clip := singleVideoTrack(t, decode(t, edl))[0].(*timeline.Clip)
	seq, ok := clip.MediaReference.(*timeline.ImageSequenceReference)
	if !ok {
		t.Fatalf("reference = %#v", clip.MediaReference)
	}
	if seq.TargetURLBase != "/media/path" || seq.NamePrefix != "my_image_sequence." || seq.NameSuffix != ".ext" {
		t.Errorf("sequence = %+v", seq)
	}
	if seq.StartFrame != 1025 || seq.FrameZeroPadding != 4 || seq.EndFrame() != 1060 {
		t.Errorf("frames = %d %d %d", seq.StartFrame, seq.FrameZeroPadding, seq.EndFrame())
	}
	if seq.AvailableRange == nil {
		t.Fatal("AvailableRange is nil")
	}
	if seq.AvailableRange.StartTime().Value() != 86424 || seq.AvailableRange.Duration().Value() != 36 {
		t.Errorf("AvailableRange = %v", seq.AvailableRange)
	}
	if clip.Name != "my_image_sequence.[1025-1060]" {
		t.Errorf("name = %q", clip.Name)
	}
}

func TestDecoder_NotImageSequence(t *testing.T) {
	for _, target := range []string{"/media/path/shot.1025.ext", "/media/path/shot.[1025].ext"} {
		edl := "001  AX V C 01:00:01:00 01:00:02:12 01:00:00:00 01:00:01:12\n* FROM CLIP: " + target + "\n"
		clip := singleVideoTrack(t, decode(t, edl))[0].(*timeline.Clip)
		ref, ok := clip.MediaReference.(*timeline.ExternalReference)
		if !ok || ref.TargetURL != target {
			t.Errorf("%s: reference = %#v", target, clip.MediaReference)
		}
	}
}

func TestDecoder_FreezeFrame(t *testing.T) {
	edl := `TITLE: Freeze
000183  Z682_156 V     C        01:00:10:21 01:00:10:22 01:08:30:00 01:08:30:17
M2   Z682_156       000.0                01:00:10:21
* FROM CLIP NAME:  Z682_156 (LAY3) FF
* * FREEZE FRAME
`
	clip := singleVideoTrack(t, decode(t, edl))[0].(*timeline.Clip)
	if clip.Name != "Z682_156 (LAY3)" {
		t.Errorf("name = %q", clip.Name)
	}
	if len(clip.Effects) != 1 {
		t.Fatalf("Expected 1 effect, got %d", len(clip.Effects))
	}
	if _, ok := clip.Effects[0].(*timeline.FreezeFrame); !ok {
		t.Errorf("effect = %T", clip.Effects[0])
	}
	if clip.Duration().Value() != 17 {
		t.Errorf("duration = %v, want 17", clip.Duration().Value())
	}
	if _, ok := cmxMetadata(clip)["had_timecode_mismatch"]; ok {
		t.Error("freeze frame should not be flagged as a mismatch")
	}
}

func TestDecoder_MotionSpeed(t *testing.T) {
	edl := `TITLE: Speed
001  ABC V C 01:00:00:00 01:00:02:00 01:00:00:00 01:00:01:00
M2   ABC       048.0                01:00:00:00
`
	clip := singleVideoTrack(t, decode(t, edl))[0].(*timeline.Clip)
	if len(clip.Effects) != 1 {
		t.Fatalf("Expected 1 effect, got %d", len(clip.Effects))
	}
	warp, ok := clip.Effects[0].(*timeline.LinearTimeWarp)
	if !ok || warp.Scalar != 2 {
		t.Errorf("effect = %#v", clip.Effects[0])
	}
	if clip.Duration().Value() != 24 {
		t.Errorf("duration = %v, want 24", clip.Duration().Value())
	}
}

func TestDecoder_MalformedMotionIsCounted(t *testing.T) {
	edl := `001  ABC V C 01:00:00:00 01:00:01:00 01:00:00:00 01:00:01:00
M2   ABC       fast
`
	decoder := NewDecoder(strings.NewReader(edl))
	tl, err := decoder.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	clip := singleVideoTrack(t, tl)[0].(*timeline.Clip)
	if len(clip.Effects) != 0 {
		t.Errorf("Expected no effects, got %d", len(clip.Effects))
	}
	if got := decoder.Stats().MalformedNotes; got != 1 {
		t.Errorf("MalformedNotes = %d, want 1", got)
	}
}

func TestDecoder_TimecodeMismatch(t *testing.T) {
	edl := "001  ABC V C 01:00:00:00 01:00:01:00 01:00:00:00 01:00:02:00\n"
	decoder := NewDecoder(strings.NewReader(edl))
	tl, err := decoder.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	clip := singleVideoTrack(t, tl)[0].(*timeline.Clip)
	if got := cmxMetadata(clip)["had_timecode_mismatch"]; got != true {
		t.Errorf("had_timecode_mismatch = %v", got)
	}
	if clip.Duration().Value() != 48 {
		t.Errorf("duration = %v, want the record duration 48", clip.Duration().Value())
	}
	if got := decoder.Stats().TimecodeMismatches; got != 1 {
		t.Errorf("TimecodeMismatches = %d", got)
	}
}

func TestDecoder_AudioOverlapIsAnError(t *testing.T) {
	edl := `001  R1 A C 00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00
002  R2 A C 00:00:00:00 00:00:02:00 00:00:01:00 00:00:03:00
`
	_, err := NewDecoder(strings.NewReader(edl)).Decode()
	if !errors.Is(err, ErrTrackOverlap) {
		t.Fatalf("Decode() error = %v, want ErrTrackOverlap", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T", err)
	}
	if !slices.Equal(pe.Events, []string{"002"}) {
		t.Errorf("Events = %v", pe.Events)
	}
	if want := "line 2: Overlapping record in value for event 002"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDecoder_VideoOverlapMovesToNewTrack(t *testing.T) {
	edl := `001  R1 V C 00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00
002  R2 V C 00:00:00:00 00:00:02:00 00:00:01:00 00:00:03:00
`
	tl := decode(t, edl)
	tracks := tl.VideoTracks()
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 video tracks, got %d", len(tracks))
	}
	if tracks[1].Name != "V2" {
		t.Errorf("overlay track name = %q", tracks[1].Name)
	}
	children := tracks[1].Children()
	if len(children) != 2 {
		t.Fatalf("Expected 2 children on V2, got %d", len(children))
	}
	if gap, ok := children[0].(*timeline.Gap); !ok || gap.Duration().Value() != 24 {
		t.Errorf("children[0] = %#v", children[0])
	}
	if _, ok := children[1].(*timeline.Clip); !ok {
		t.Errorf("children[1] is %T", children[1])
	}
}

func TestDecoder_MultipleTitles(t *testing.T) {
	edl := `TITLE: First
001  R1 V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:01:00
TITLE: Second
001  R2 V C 00:00:00:00 00:00:02:00 01:00:00:00 01:00:02:00
002  R3 V C 00:00:00:00 00:00:01:00 01:00:02:00 01:00:03:00
`
	timelines, err := NewDecoder(strings.NewReader(edl)).DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(timelines) != 2 {
		t.Fatalf("Expected 2 timelines, got %d", len(timelines))
	}
	if timelines[0].Name != "First" || timelines[1].Name != "Second" {
		t.Errorf("names = %q, %q", timelines[0].Name, timelines[1].Name)
	}
	if n := len(timelines[0].VideoTracks()[0].Children()); n != 1 {
		t.Errorf("first timeline has %d children", n)
	}
	if n := len(timelines[1].VideoTracks()[0].Children()); n != 2 {
		t.Errorf("second timeline has %d children", n)
	}

	_, err = NewDecoder(strings.NewReader(edl)).Decode()
	if !errors.Is(err, ErrMultipleTimelines) {
		t.Errorf("Decode() error = %v, want ErrMultipleTimelines", err)
	}
}

func TestDecoder_InvalidTimecode(t *testing.T) {
	edl := "001  ABC V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:00:27\n"

	_, err := NewDecoder(strings.NewReader(edl)).Decode()
	if !errors.Is(err, ErrInvalidTimecode) {
		t.Fatalf("Decode() error = %v, want ErrInvalidTimecode", err)
	}

	decoder := NewDecoder(strings.NewReader(edl))
	decoder.SetIgnoreInvalidTimecodeErrors(true)
	tl, err := decoder.Decode()
	if err != nil {
		t.Fatalf("tolerant Decode() error = %v", err)
	}
	clip := singleVideoTrack(t, tl)[0].(*timeline.Clip)
	if got := cmxMetadata(clip)["record_timecode_was_adjusted"]; got != true {
		t.Errorf("record_timecode_was_adjusted = %v", got)
	}
	if decoder.Stats().AdjustedTimecodes == 0 {
		t.Error("AdjustedTimecodes was not counted")
	}
}

func TestDecoder_UnsupportedTransition(t *testing.T) {
	edl := `001  R1 V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:01:00
002  R1 V C 00:00:01:00 00:00:01:00 01:00:01:00 01:00:01:00
002  R2 V K 010 00:00:00:00 00:00:01:00 01:00:01:00 01:00:02:00
`
	_, err := NewDecoder(strings.NewReader(edl)).Decode()
	if !errors.Is(err, ErrUnsupportedTransition) {
		t.Fatalf("Decode() error = %v, want ErrUnsupportedTransition", err)
	}
}

func TestDecoder_CommentsAndColorDecision(t *testing.T) {
	edl := `TITLE: Notes
* a comment before any edit
001  ABC V C 01:00:00:00 01:00:01:00 01:00:00:00 01:00:01:00
* FROM CLIP NAME:  shot one
* ASC_SOP (1.1 1.2 1.3)(-0.1 0.0 0.1)(0.9 1.0 1.1)
* LOC: 01:00:00:12 GREEN   check focus
* SOMETHING ELSE
`
	tl := decode(t, edl)
	if got := cmxValue(tl.Metadata, "comments"); got != nil {
		t.Errorf("timeline comments = %v", got)
	}

	clip := singleVideoTrack(t, tl)[0].(*timeline.Clip)
	cdl, ok := clip.Metadata["cdl"].(timeline.Metadata)
	if !ok {
		t.Fatal("clip has no cdl metadata")
	}
	sop := cdl["asc_sop"].(timeline.Metadata)
	if !slices.Equal(sop["offset"].([]float64), []float64{-0.1, 0, 0.1}) {
		t.Errorf("offset = %v", sop["offset"])
	}
	if cdl["asc_sat"] != DefaultASCSAT {
		t.Errorf("asc_sat = %v", cdl["asc_sat"])
	}

	if len(clip.Markers) != 1 {
		t.Fatalf("Expected 1 marker, got %d", len(clip.Markers))
	}
	if m := clip.Markers[0]; m.Name != "check focus" || m.Color != timeline.MarkerColorGreen {
		t.Errorf("marker = %+v", m)
	}
	if got, _ := cmxMetadata(clip)["comments"].([]string); !slices.Equal(got, []string{"a comment before any edit", "SOMETHING ELSE"}) {
		t.Errorf("clip comments = %v", got)
	}
}

func TestDecoder_SplitStartsNextEvent(t *testing.T) {
	edl := `001  R1 V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:01:00
SPLIT:    AUDIO DELAY=  00:00:00:10
002  R2 V C 00:00:00:00 00:00:01:00 01:00:01:00 01:00:02:00
`
	tl := decode(t, edl)
	if got := cmxValue(tl.Metadata, "comments"); got != nil {
		t.Errorf("timeline comments = %v", got)
	}

	children := singleVideoTrack(t, tl)
	if len(children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(children))
	}
	if got := cmxMetadata(children[0].(*timeline.Clip))["comments"]; got != nil {
		t.Errorf("first clip comments = %v", got)
	}
	second := children[1].(*timeline.Clip)
	if got, _ := cmxMetadata(second)["comments"].([]string); !slices.Equal(got, []string{"SPLIT:    AUDIO DELAY=  00:00:00:10"}) {
		t.Errorf("second clip comments = %v", got)
	}
	if got, _ := cmxMetadata(second)["events"].([]string); !slices.Equal(got, []string{"002"}) {
		t.Errorf("second clip events = %v", got)
	}
}

func TestDecoder_TolerantSourceKeepsInferredRate(t *testing.T) {
	edl := "001  AX V C 01:00:00:29 01:00:01:05 01:00:00:00 01:00:00:06\n"
	decoder := NewDecoder(strings.NewReader(edl))
	decoder.SetIgnoreInvalidTimecodeErrors(true)
	tl, err := decoder.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	clip := singleVideoTrack(t, tl)[0].(*timeline.Clip)
	start := clip.SourceRange.StartTime()
	if start.Rate() != 30 || start.Value() != 108029 {
		t.Errorf("source start = %v, want 108029 at 30", start)
	}
	if d := clip.SourceRange.Duration(); d.Rate() != 30 || !d.Equal(opentime.NewRationalTime(6, 24)) {
		t.Errorf("source duration = %v, want 6 frames at 24 expressed at 30", d)
	}
	if got := cmxMetadata(clip)["source_timecode_was_adjusted"]; got != true {
		t.Errorf("source_timecode_was_adjusted = %v", got)
	}
}

func TestDecoder_Stats(t *testing.T) {
	edl := `TITLE: Counted
FCM: NON-DROP FRAME
001  R1 V C 00:00:00:00 00:00:01:00 01:00:00:00 01:00:01:00
002  R2 V C 00:00:00:00 00:00:01:00 01:00:01:00 01:00:02:00
* FROM CLIP NAME:  two
`
	decoder := NewDecoder(strings.NewReader(edl))
	if _, err := decoder.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	stats := decoder.Stats()
	if stats.Statements != 5 || stats.Events != 2 || stats.Timelines != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestDecoder_InvalidRate(t *testing.T) {
	decoder := NewDecoder(strings.NewReader(""))
	decoder.SetRate(0)
	if _, err := decoder.DecodeAll(); err == nil {
		t.Error("expected an error for a zero rate")
	}
}
