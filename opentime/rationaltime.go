// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package opentime provides exact (value, rate) time values and ranges, and the
// conversions between them and SMPTE-style timecode text used by EDLs.
package opentime

import (
	"encoding/json"
	"fmt"
	"math"
)

// RationalTime is a point in time expressed as a count of ticks at a rate.
// Arithmetic between values at different rates rescales to the finer rate.
type RationalTime struct {
	value float64
	rate  float64
}

// NewRationalTime creates a RationalTime of value ticks at rate ticks per second.
func NewRationalTime(value, rate float64) RationalTime {
	return RationalTime{value: value, rate: rate}
}

// FromFrames creates a RationalTime from a whole frame count.
func FromFrames(frames float64, rate float64) RationalTime {
	return RationalTime{value: math.Floor(frames), rate: rate}
}

// FromSeconds creates a RationalTime representing seconds at rate.
func FromSeconds(seconds, rate float64) RationalTime {
	return RationalTime{value: seconds * rate, rate: rate}
}

// Value returns the tick count.
func (t RationalTime) Value() float64 { return t.value }

// Rate returns the ticks per second.
func (t RationalTime) Rate() float64 { return t.rate }

// IsInvalidTime reports whether the time has a non-positive or NaN rate.
func (t RationalTime) IsInvalidTime() bool {
	return math.IsNaN(t.rate) || math.IsNaN(t.value) || t.rate <= 0
}

// IsValidTime is the negation of IsInvalidTime.
func (t RationalTime) IsValidTime() bool { return !t.IsInvalidTime() }

// ValueRescaledTo returns the tick count this time would have at rate.
func (t RationalTime) ValueRescaledTo(rate float64) float64 {
	if rate == t.rate {
		return t.value
	}
	return t.value * rate / t.rate
}

// RescaledTo returns the same instant expressed at rate.
func (t RationalTime) RescaledTo(rate float64) RationalTime {
	return RationalTime{value: t.ValueRescaledTo(rate), rate: rate}
}

// Add returns t + other at the finer of the two rates.
func (t RationalTime) Add(other RationalTime) RationalTime {
	if t.rate < other.rate {
		return RationalTime{value: t.ValueRescaledTo(other.rate) + other.value, rate: other.rate}
	}
	return RationalTime{value: t.value + other.ValueRescaledTo(t.rate), rate: t.rate}
}

// Sub returns t - other at the finer of the two rates.
func (t RationalTime) Sub(other RationalTime) RationalTime {
	if t.rate < other.rate {
		return RationalTime{value: t.ValueRescaledTo(other.rate) - other.value, rate: other.rate}
	}
	return RationalTime{value: t.value - other.ValueRescaledTo(t.rate), rate: t.rate}
}

// Equal reports whether both values denote the same instant. The comparison
// is exact after rescaling t to other's rate.
func (t RationalTime) Equal(other RationalTime) bool {
	return t.ValueRescaledTo(other.rate) == other.value
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to, or
// after other.
func (t RationalTime) Compare(other RationalTime) int {
	rate := math.Max(t.rate, other.rate)
	a, b := t.ValueRescaledTo(rate), other.ValueRescaledTo(rate)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly earlier than other.
func (t RationalTime) Before(other RationalTime) bool { return t.Compare(other) < 0 }

// After reports whether t is strictly later than other.
func (t RationalTime) After(other RationalTime) bool { return t.Compare(other) > 0 }

// ToFrames returns the whole number of frames at the time's own rate.
func (t RationalTime) ToFrames() int {
	return int(math.Floor(t.value))
}

// ToSeconds returns the time in seconds.
func (t RationalTime) ToSeconds() float64 {
	return t.value / t.rate
}

// String implements fmt.Stringer.
func (t RationalTime) String() string {
	return fmt.Sprintf("RationalTime(%g, %g)", t.value, t.rate)
}

type rationalTimeJSON struct {
	Value float64 `json:"value"`
	Rate  float64 `json:"rate"`
}

// MarshalJSON implements json.Marshaler.
func (t RationalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(rationalTimeJSON{Value: t.value, Rate: t.rate})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *RationalTime) UnmarshalJSON(data []byte) error {
	var v rationalTimeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.value, t.rate = v.Value, v.Rate
	return nil
}
