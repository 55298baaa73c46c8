// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package opentime

import (
	"encoding/json"
	"fmt"
)

// TimeRange is a start time and a duration.
type TimeRange struct {
	start    RationalTime
	duration RationalTime
}

// NewTimeRange creates a TimeRange from a start time and a duration.
func NewTimeRange(start, duration RationalTime) TimeRange {
	return TimeRange{start: start, duration: duration}
}

// DurationFromStartEndTime returns end - start expressed at start's rate.
func DurationFromStartEndTime(start, endExclusive RationalTime) RationalTime {
	if start.rate == endExclusive.rate {
		return RationalTime{value: endExclusive.value - start.value, rate: start.rate}
	}
	return RationalTime{value: endExclusive.ValueRescaledTo(start.rate) - start.value, rate: start.rate}
}

// RangeFromStartEndTime builds the range [start, endExclusive). The duration is
// not clamped; callers interpret zero or negative durations themselves.
func RangeFromStartEndTime(start, endExclusive RationalTime) TimeRange {
	return TimeRange{start: start, duration: DurationFromStartEndTime(start, endExclusive)}
}

// StartTime returns the start of the range.
func (r TimeRange) StartTime() RationalTime { return r.start }

// Duration returns the duration of the range.
func (r TimeRange) Duration() RationalTime { return r.duration }

// EndTimeExclusive returns start + duration.
func (r TimeRange) EndTimeExclusive() RationalTime {
	return r.start.Add(r.duration)
}

// Intersects reports whether the two ranges share any instant. A zero-length
// range intersects a range that strictly contains its start.
func (r TimeRange) Intersects(other TimeRange) bool {
	return r.start.Before(other.EndTimeExclusive()) && other.start.Before(r.EndTimeExclusive()) ||
		(r.duration.Value() == 0 && !r.start.Before(other.start) && r.start.Before(other.EndTimeExclusive()))
}

// Equal reports whether both start and duration are equal.
func (r TimeRange) Equal(other TimeRange) bool {
	return r.start.Equal(other.start) && r.duration.Equal(other.duration)
}

// String implements fmt.Stringer.
func (r TimeRange) String() string {
	return fmt.Sprintf("TimeRange(%v, %v)", r.start, r.duration)
}

type timeRangeJSON struct {
	StartTime RationalTime `json:"start_time"`
	Duration  RationalTime `json:"duration"`
}

// MarshalJSON implements json.Marshaler.
func (r TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeJSON{StartTime: r.start, Duration: r.duration})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var v timeRangeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.start, r.duration = v.StartTime, v.Duration
	return nil
}
