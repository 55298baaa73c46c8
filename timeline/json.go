// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
)

// Every serialized object carries a "type" tag so consumers can tell the
// track item and media reference variants apart.

func marshalTyped(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("timeline: %s did not encode as an object", kind)
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(tag)+10)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
	}
	return append(out, body[1:]...), nil
}

// MarshalJSON implements json.Marshaler.
func (tl *Timeline) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name            string                 `json:"name"`
		GlobalStartTime *opentime.RationalTime `json:"global_start_time"`
		Tracks          []*Track               `json:"tracks"`
		Metadata        Metadata               `json:"metadata"`
	}
	tracks := tl.Tracks
	if tracks == nil {
		tracks = []*Track{}
	}
	return marshalTyped("Timeline", &wire{
		Name: tl.Name, GlobalStartTime: tl.GlobalStartTime, Tracks: tracks, Metadata: orEmpty(tl.Metadata),
	})
}

// MarshalJSON implements json.Marshaler.
func (t *Track) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name     string   `json:"name"`
		Kind     Kind     `json:"kind"`
		Children []Item   `json:"children"`
		Metadata Metadata `json:"metadata"`
	}
	children := t.children
	if children == nil {
		children = []Item{}
	}
	return marshalTyped("Track", &wire{Name: t.Name, Kind: t.Kind, Children: children, Metadata: orEmpty(t.Metadata)})
}

// MarshalJSON implements json.Marshaler.
func (c *Clip) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name           string             `json:"name"`
		MediaReference json.RawMessage    `json:"media_reference"`
		SourceRange    opentime.TimeRange `json:"source_range"`
		Effects        []json.RawMessage  `json:"effects"`
		Markers        []*Marker          `json:"markers"`
		Metadata       Metadata           `json:"metadata"`
	}
	ref, err := marshalReference(c.MediaReference)
	if err != nil {
		return nil, err
	}
	effects := []json.RawMessage{}
	for _, e := range c.Effects {
		raw, err := marshalEffect(e)
		if err != nil {
			return nil, err
		}
		effects = append(effects, raw)
	}
	markers := c.Markers
	if markers == nil {
		markers = []*Marker{}
	}
	return marshalTyped("Clip", &wire{
		Name: c.Name, MediaReference: ref, SourceRange: c.SourceRange,
		Effects: effects, Markers: markers, Metadata: orEmpty(c.Metadata),
	})
}

// MarshalJSON implements json.Marshaler.
func (g *Gap) MarshalJSON() ([]byte, error) {
	type wire struct {
		SourceRange opentime.TimeRange `json:"source_range"`
	}
	return marshalTyped("Gap", &wire{SourceRange: g.SourceRange})
}

// MarshalJSON implements json.Marshaler.
func (t *Transition) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name           string                `json:"name"`
		TransitionType TransitionType        `json:"transition_type"`
		InOffset       opentime.RationalTime `json:"in_offset"`
		OutOffset      opentime.RationalTime `json:"out_offset"`
		Metadata       Metadata              `json:"metadata"`
	}
	return marshalTyped("Transition", &wire{
		Name: t.Name, TransitionType: t.TransitionType,
		InOffset: t.InOffset, OutOffset: t.OutOffset, Metadata: orEmpty(t.Metadata),
	})
}

func marshalReference(ref MediaReference) (json.RawMessage, error) {
	switch r := ref.(type) {
	case nil, MissingReference:
		return marshalTyped("MissingReference", &struct{}{})
	case *ExternalReference:
		return marshalTyped(r.Kind(), r)
	case *GeneratorReference:
		return marshalTyped(r.Kind(), r)
	case *ImageSequenceReference:
		return marshalTyped(r.Kind(), r)
	default:
		return json.Marshal(map[string]string{"type": ref.Kind(), "target": ref.Target()})
	}
}

func marshalEffect(e Effect) (json.RawMessage, error) {
	switch x := e.(type) {
	case *LinearTimeWarp:
		return marshalTyped(x.EffectName(), x)
	default:
		return json.Marshal(map[string]any{"type": e.EffectName(), "time_scalar": e.TimeScalar()})
	}
}

func orEmpty(m Metadata) Metadata {
	if m == nil {
		return Metadata{}
	}
	return m
}
