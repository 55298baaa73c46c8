// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

// Effect is a time effect applied to a clip.
type Effect interface {
	// EffectName is the serialized type name of the effect.
	EffectName() string
	// TimeScalar is the playback speed multiplier. Zero holds a frame.
	TimeScalar() float64
	CloneEffect() Effect
}

// LinearTimeWarp plays the clip's source at a constant speed multiplier.
type LinearTimeWarp struct {
	Scalar float64 `json:"time_scalar"`
}

func (*LinearTimeWarp) EffectName() string    { return "LinearTimeWarp" }
func (e *LinearTimeWarp) TimeScalar() float64 { return e.Scalar }
func (e *LinearTimeWarp) CloneEffect() Effect {
	c := *e
	return &c
}

// FreezeFrame holds the first frame of the clip's source range.
type FreezeFrame struct{}

func (*FreezeFrame) EffectName() string  { return "FreezeFrame" }
func (*FreezeFrame) TimeScalar() float64 { return 0 }
func (*FreezeFrame) CloneEffect() Effect { return &FreezeFrame{} }
