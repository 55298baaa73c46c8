// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// Encoder writes a Timeline as CMX 3600 EDL text.
type Encoder struct {
	w           io.Writer
	style       OutputStyle
	reelNameLen int
	rate        float64
}

// NewEncoder creates a new EDL encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:           w,
		style:       OutputStyleAvid,
		reelNameLen: DefaultReelNameLength,
		rate:        DefaultRate,
	}
}

// SetStyle sets the output style (avid, nucoda, premiere).
func (e *Encoder) SetStyle(style OutputStyle) {
	e.style = style
}

// SetReelNameLength sets the maximum length for reel names.
// Use 0 or negative for unlimited length.
func (e *Encoder) SetReelNameLength(length int) {
	e.reelNameLen = length
}

// SetRate sets the frame rate for timecode generation.
func (e *Encoder) SetRate(rate float64) {
	e.rate = rate
}

// Encode writes the Timeline to EDL format. Only one video track can be
// written; audio tracks follow the video events.
func (e *Encoder) Encode(t *timeline.Timeline) error {
	if t == nil {
		return &EncodeError{Message: "timeline is nil"}
	}
	videoTracks := t.VideoTracks()
	if len(videoTracks) > 1 {
		return &EncodeError{Message: "EDL format supports only one video track"}
	}

	var buf bytes.Buffer
	e.writeHeader(&buf, t)

	start := opentime.NewRationalTime(0, e.rate)
	if t.GlobalStartTime != nil {
		start = t.GlobalStartTime.RescaledTo(e.rate)
	}

	eventNumber := 1
	var err error
	if len(videoTracks) > 0 {
		if eventNumber, err = e.writeTrackEvents(&buf, videoTracks[0], "V", start, eventNumber); err != nil {
			return err
		}
	}
	for i, track := range t.AudioTracks() {
		channel := "A"
		if i > 0 {
			channel = fmt.Sprintf("A%d", i+1)
		}
		if eventNumber, err = e.writeTrackEvents(&buf, track, channel, start, eventNumber); err != nil {
			return err
		}
	}

	_, err = e.w.Write(buf.Bytes())
	return err
}

func (e *Encoder) writeHeader(buf *bytes.Buffer, t *timeline.Timeline) {
	title := t.Name
	if title == "" {
		title = "Timeline"
	}
	fmt.Fprintf(buf, "TITLE: %s\n", title)
	if opentime.IsDropFrameRate(e.rate) {
		buf.WriteString("FCM: DROP FRAME\n\n")
	} else {
		buf.WriteString("FCM: NON-DROP FRAME\n\n")
	}
}

// writeTrackEvents writes one event per clip. A transition is written as
// the implicit cut from the outgoing clip followed by the D or W edit into
// the incoming clip, both under the incoming clip's edit number.
func (e *Encoder) writeTrackEvents(buf *bytes.Buffer, track *timeline.Track, channel string, start opentime.RationalTime, eventNumber int) (int, error) {
	recordTime := start
	children := track.Children()
	var previous *timeline.Clip

	for i := 0; i < len(children); i++ {
		switch item := children[i].(type) {
		case *timeline.Gap:
			recordTime = recordTime.Add(item.Duration().RescaledTo(e.rate))
			previous = nil

		case *timeline.Transition:
			if i+1 >= len(children) {
				return eventNumber, &EncodeError{Message: fmt.Sprintf("transition %q has no incoming clip", item.Name)}
			}
			next, ok := children[i+1].(*timeline.Clip)
			if !ok {
				return eventNumber, &EncodeError{Message: fmt.Sprintf("transition %q is not followed by a clip", item.Name)}
			}
			code, err := transitionCode(item)
			if err != nil {
				return eventNumber, err
			}
			recordOut := recordTime.Add(next.Duration().RescaledTo(e.rate))

			fromReel, fromOut := "BL", opentime.NewRationalTime(0, e.rate)
			if previous != nil {
				fromReel, _ = e.reelName(previous)
				fromOut = previous.SourceRange.EndTimeExclusive()
			}
			nextReel, _ := e.reelName(next)
			e.writeLine(buf, eventNumber, fromReel, channel, string(EditTypeCut), "",
				fromOut, fromOut, recordTime, recordTime)
			duration := item.OutOffset.RescaledTo(e.rate)
			e.writeLine(buf, eventNumber, nextReel, channel, code, fmt.Sprintf("%03d", int(math.Round(duration.Value()))),
				next.SourceRange.StartTime(), e.sourceOut(next), recordTime, recordOut)
			if previous != nil {
				fmt.Fprintf(buf, "* FROM CLIP NAME:  %s\n", previous.Name)
				e.writeMediaNote(buf, previous)
			}
			fmt.Fprintf(buf, "* TO CLIP NAME:  %s\n", next.Name)
			e.writeClipNotes(buf, next)
			buf.WriteString("\n")

			eventNumber++
			recordTime = recordOut
			previous = next
			i++

		case *timeline.Clip:
			recordOut := recordTime.Add(item.Duration().RescaledTo(e.rate))
			reel, _ := e.reelName(item)
			e.writeLine(buf, eventNumber, reel, channel, string(EditTypeCut), "",
				item.SourceRange.StartTime(), e.sourceOut(item), recordTime, recordOut)
			fmt.Fprintf(buf, "* FROM CLIP NAME:  %s\n", item.Name)
			e.writeMediaNote(buf, item)
			e.writeClipNotes(buf, item)
			buf.WriteString("\n")

			eventNumber++
			recordTime = recordOut
			previous = item
		}
	}
	return eventNumber, nil
}

func (e *Encoder) writeLine(buf *bytes.Buffer, eventNumber int, reel, channel, editType, param string, srcIn, srcOut, recIn, recOut opentime.RationalTime) {
	fmt.Fprintf(buf, "%03d  %-8s %-5s %-4s %-3s %s %s %s %s\n",
		eventNumber, reel, channel, editType, param,
		e.formatTimecode(srcIn), e.formatTimecode(srcOut), e.formatTimecode(recIn), e.formatTimecode(recOut))
}

// writeMediaNote writes the note that links a clip to its media, in the
// dialect of the output style.
func (e *Encoder) writeMediaNote(buf *bytes.Buffer, clip *timeline.Clip) {
	target := e.mediaTarget(clip)
	if target == "" {
		return
	}
	switch e.style {
	case OutputStyleAvid:
		fmt.Fprintf(buf, "* FROM CLIP: %s\n", target)
	case OutputStyleNucoda:
		fmt.Fprintf(buf, "* FROM FILE: %s\n", target)
	}
}

// writeClipNotes writes the speed, color decision and locator notes for a
// clip.
func (e *Encoder) writeClipNotes(buf *bytes.Buffer, clip *timeline.Clip) {
	reel, truncatedFrom := e.reelName(clip)
	if truncatedFrom != "" {
		fmt.Fprintf(buf, "* OTIO TRUNCATED REEL NAME FROM: %s\n", truncatedFrom)
	}

	for _, effect := range clip.Effects {
		speed := effect.TimeScalar() * e.rate
		fmt.Fprintf(buf, "M2   %-8s       %05.1f                %s\n",
			reel, speed, e.formatTimecode(clip.SourceRange.StartTime()))
		if _, ok := effect.(*timeline.FreezeFrame); ok {
			buf.WriteString("* * FREEZE FRAME\n")
		}
	}

	if cdl, ok := clip.Metadata["cdl"].(timeline.Metadata); ok {
		if sop, ok := cdl["asc_sop"].(timeline.Metadata); ok {
			fmt.Fprintf(buf, "* ASC_SOP %s%s%s\n",
				formatTriple(sop["slope"]), formatTriple(sop["offset"]), formatTriple(sop["power"]))
		}
		if sat, ok := cdl["asc_sat"].(float64); ok {
			fmt.Fprintf(buf, "* ASC_SAT %.4f\n", sat)
		}
	}

	for _, m := range clip.Markers {
		fmt.Fprintf(buf, "* LOC: %s %-7s %s\n", e.formatTimecode(m.MarkedRange.StartTime()), m.Color, m.Name)
	}
}

func formatTriple(v any) string {
	values, _ := v.([]float64)
	if len(values) != 3 {
		values = []float64{0, 0, 0}
	}
	return fmt.Sprintf("(%.4f %.4f %.4f)", values[0], values[1], values[2])
}

// sourceOut is the source exit written for a clip. Speed effects change how
// much source the record duration consumes; a freeze holds one frame.
func (e *Encoder) sourceOut(clip *timeline.Clip) opentime.RationalTime {
	in := clip.SourceRange.StartTime()
	if len(clip.Effects) == 0 {
		return clip.SourceRange.EndTimeExclusive()
	}
	scalar := clip.TimeScalar()
	if scalar == 0 {
		return in.Add(opentime.NewRationalTime(1, in.Rate()))
	}
	frames := math.Round(clip.Duration().RescaledTo(in.Rate()).Value() * math.Abs(scalar))
	return in.Add(opentime.NewRationalTime(frames, in.Rate()))
}

func (e *Encoder) mediaTarget(clip *timeline.Clip) string {
	switch ref := clip.MediaReference.(type) {
	case *timeline.ExternalReference:
		return ref.TargetURL
	case *timeline.ImageSequenceReference:
		return ref.AbstractTargetURL(fmt.Sprintf("[%d-%d]", ref.StartFrame, ref.EndFrame()))
	}
	return ""
}

// reelName returns the reel written for clip. When the name had to be
// shortened from a media file name, that file name is returned too.
func (e *Encoder) reelName(clip *timeline.Clip) (reel, truncatedFrom string) {
	if gen, ok := clip.MediaReference.(*timeline.GeneratorReference); ok {
		switch gen.GeneratorKind {
		case timeline.GeneratorBlack:
			return "BL", ""
		case timeline.GeneratorSMPTEBars:
			return string(SpecialSourceBars), ""
		}
	}
	if ns, ok := clip.Metadata[MetadataNamespace].(timeline.Metadata); ok {
		if r, ok := ns["reel"].(string); ok && r != "" {
			return SanitizeReelName(r, e.reelNameLen), ""
		}
	}
	if target := e.mediaTarget(clip); target != "" {
		base := path.Base(target)
		stem := strings.TrimSuffix(base, path.Ext(base))
		reel = SanitizeReelName(stem, e.reelNameLen)
		if reel != stem {
			return reel, base
		}
		return reel, ""
	}
	return string(SpecialSourceAux), ""
}

func transitionCode(t *timeline.Transition) (string, error) {
	switch t.TransitionType {
	case timeline.TransitionTypeSMPTEDissolve:
		return string(EditTypeDissolve), nil
	case timeline.TransitionTypeSMPTEWipe:
		if ns, ok := t.Metadata[MetadataNamespace].(timeline.Metadata); ok {
			if code, ok := ns["transition"].(string); ok && wipeCodeRegex.MatchString(code) {
				return code, nil
			}
		}
		return "W001", nil
	}
	return "", &EncodeError{Message: fmt.Sprintf("transition type %q cannot be written", t.TransitionType)}
}

// formatTimecode formats a RationalTime as a timecode string.
func (e *Encoder) formatTimecode(t opentime.RationalTime) string {
	tc, err := opentime.ToTimecode(t.RescaledTo(e.rate), e.rate, opentime.IsDropFrameRate(e.rate))
	if err != nil {
		return "00:00:00:00"
	}
	return tc
}
