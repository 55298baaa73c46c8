// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

import (
	"fmt"
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
)

// MediaReference describes where a clip's media lives. The concrete types are
// MissingReference, ExternalReference, GeneratorReference and
// ImageSequenceReference.
type MediaReference interface {
	// Kind names the reference type, e.g. "ExternalReference".
	Kind() string
	// Target identifies the media within its kind: a URL, a generator kind,
	// or an abstract image sequence URL.
	Target() string
	CloneReference() MediaReference
}

// MissingReference marks a clip whose media is unknown.
type MissingReference struct{}

func (MissingReference) Kind() string                     { return "MissingReference" }
func (MissingReference) Target() string                   { return "" }
func (r MissingReference) CloneReference() MediaReference { return r }

// ExternalReference points at a single media file.
type ExternalReference struct {
	TargetURL string `json:"target_url"`
}

func (*ExternalReference) Kind() string     { return "ExternalReference" }
func (r *ExternalReference) Target() string { return r.TargetURL }
func (r *ExternalReference) CloneReference() MediaReference {
	c := *r
	return &c
}

// Generator kinds produced by special EDL sources.
const (
	GeneratorBlack     = "black"
	GeneratorSMPTEBars = "SMPTEBars"
)

// GeneratorReference stands in for synthesized media such as black or bars.
type GeneratorReference struct {
	GeneratorKind string `json:"generator_kind"`
}

func (*GeneratorReference) Kind() string     { return "GeneratorReference" }
func (r *GeneratorReference) Target() string { return r.GeneratorKind }
func (r *GeneratorReference) CloneReference() MediaReference {
	c := *r
	return &c
}

// ImageSequenceReference points at a numbered run of image files.
type ImageSequenceReference struct {
	TargetURLBase    string              `json:"target_url_base"`
	NamePrefix       string              `json:"name_prefix"`
	NameSuffix       string              `json:"name_suffix"`
	StartFrame       int                 `json:"start_frame"`
	FrameZeroPadding int                 `json:"frame_zero_padding"`
	Rate             float64             `json:"rate"`
	AvailableRange   *opentime.TimeRange `json:"available_range,omitempty"`
}

func (*ImageSequenceReference) Kind() string { return "ImageSequenceReference" }

// Target returns the abstract URL with the frame number replaced by '#'.
func (r *ImageSequenceReference) Target() string {
	return r.AbstractTargetURL("#")
}

func (r *ImageSequenceReference) CloneReference() MediaReference {
	c := *r
	if r.AvailableRange != nil {
		ar := *r.AvailableRange
		c.AvailableRange = &ar
	}
	return &c
}

// AbstractTargetURL joins the base, prefix, symbol and suffix.
func (r *ImageSequenceReference) AbstractTargetURL(symbol string) string {
	base := r.TargetURLBase
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + r.NamePrefix + symbol + r.NameSuffix
}

// TargetURLForFrame returns the URL of a single frame of the sequence.
func (r *ImageSequenceReference) TargetURLForFrame(frame int) string {
	return r.AbstractTargetURL(fmt.Sprintf("%0*d", r.FrameZeroPadding, frame))
}

// EndFrame returns the last frame number covered by AvailableRange.
func (r *ImageSequenceReference) EndFrame() int {
	if r.AvailableRange == nil {
		return r.StartFrame
	}
	return r.StartFrame + r.AvailableRange.Duration().RescaledTo(r.Rate).ToFrames() - 1
}

// SameMedia reports whether a and b reference the same media.
func SameMedia(a, b MediaReference) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Target() == b.Target()
}
