// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"fmt"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

// freezeFrameSuffix is appended to clip names by writers that emit a
// freeze frame note.
const freezeFrameSuffix = " FF"

// makeTransition builds the transition for a dissolve or wipe statement. The
// whole duration lands on the incoming side.
func (r *reconstruction) makeTransition(stmt *StandardFormStatement) (*timeline.Transition, error) {
	effect, err := stmt.Effect()
	if err != nil {
		return nil, err
	}

	var kind timeline.TransitionType
	switch effect.Type {
	case EditTypeDissolve:
		kind = timeline.TransitionTypeSMPTEDissolve
	case EditTypeWipe:
		kind = timeline.TransitionTypeSMPTEWipe
	default:
		return nil, &ParseError{
			Line:       stmt.LineNumber,
			EditNumber: stmt.EditNumber,
			Kind:       ErrUnsupportedTransition,
			Message:    fmt.Sprintf("transition type %q is not supported", stmt.EditType),
		}
	}

	frames, ok, err := effect.TransitionDuration()
	if err == nil && !ok {
		err = fmt.Errorf("transition type %q is missing a duration", stmt.EditType)
	}
	if err != nil {
		return nil, &ParseError{
			Line:       stmt.LineNumber,
			EditNumber: stmt.EditNumber,
			Kind:       ErrUnsupportedTransition,
			Message:    err.Error(),
		}
	}

	duration := opentime.NewRationalTime(float64(frames), r.rate)
	md := timeline.Metadata{MetadataNamespace: timeline.Metadata{
		"transition":          stmt.EditType,
		"transition_duration": duration.Value(),
		"events":              []string{stmt.EditNumber},
	}}
	return timeline.NewTransition(string(kind), kind, opentime.NewRationalTime(0, r.rate), duration, md), nil
}

// transitionName names a transition after the clips it joins.
func transitionName(t *timeline.Transition, to *timeline.Clip, comments *EventComments) string {
	if comments.ClipName != nil && comments.DestClipName != nil {
		return fmt.Sprintf("%s from %s to %s", t.TransitionType, *comments.ClipName, *comments.DestClipName)
	}
	return fmt.Sprintf("%s to %s", t.TransitionType, to.Name)
}

// applyMotion applies M2 and freeze frame notes to the event's clips. A freeze
// frame note applies to the first clip; an M2 note applies to the clip on
// its reel, or the first clip when no reel matches.
func (r *reconstruction) applyMotion(notes []*NoteFormStatement, clips []*timeline.Clip) {
	if len(clips) == 0 {
		for _, note := range notes {
			r.log.Warn("motion note without a clip", "line", note.LineNumber, "edit", note.EditNumber)
		}
		return
	}

	for _, note := range notes {
		if note.Is(NoteFreezeFrame) {
			clips[0].Name = strings.TrimSuffix(clips[0].Name, freezeFrameSuffix)
			continue
		}

		directive, err := note.MotionDirective()
		if err != nil {
			r.stats.MalformedNotes++
			r.log.Warn("malformed motion directive", "line", note.LineNumber, "error", err)
			continue
		}
		target := clips[0]
		for _, c := range clips {
			if reel, ok := cmxMetadata(c)["reel"].(string); ok && reel == directive.Reel {
				target = c
				break
			}
		}
		scalar := directive.Speed / r.rate
		if scalar == 0 {
			target.Effects = append(target.Effects, &timeline.FreezeFrame{})
		} else {
			target.Effects = append(target.Effects, &timeline.LinearTimeWarp{Scalar: scalar})
		}
	}
}
