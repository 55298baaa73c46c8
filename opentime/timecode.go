// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package opentime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimecode is returned when timecode text cannot be represented at
// the requested rate.
var ErrInvalidTimecode = errors.New("invalid timecode")

// knownRates are tried in order when a timecode's frame field does not fit the
// rate it was parsed at.
var knownRates = []float64{1, 12, 24, 25, 30, 48, 50, 60}

// IsDropFrameRate reports whether rate is one of the NTSC rates that use
// drop-frame counting.
func IsDropFrameRate(rate float64) bool {
	return math.Abs(rate-30000.0/1001.0) < 0.001 || math.Abs(rate-60000.0/1001.0) < 0.001
}

func nominalRate(rate float64) int {
	return int(math.Round(rate))
}

// splitTimecode splits HH:MM:SS:FF (or ; separated) text into its four fields.
func splitTimecode(timecode string) ([4]int, error) {
	var fields [4]int
	parts := strings.Split(strings.ReplaceAll(timecode, ";", ":"), ":")
	if len(parts) != 4 {
		return fields, fmt.Errorf("%w: %q must have four fields", ErrInvalidTimecode, timecode)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return fields, fmt.Errorf("%w: %q has a non-numeric field", ErrInvalidTimecode, timecode)
		}
		fields[i] = n
	}
	return fields, nil
}

// FromTimecode parses HH:MM:SS:FF text at rate. Text without any separator is
// treated as a plain frame count. A ';' anywhere selects drop-frame counting
// when rate is 29.97 or 59.94 and is otherwise read like ':'.
func FromTimecode(timecode string, rate float64) (RationalTime, error) {
	timecode = strings.TrimSpace(timecode)
	if rate <= 0 || math.IsNaN(rate) {
		return RationalTime{}, fmt.Errorf("%w: rate %g", ErrInvalidTimecode, rate)
	}
	if !strings.ContainsAny(timecode, ":;") {
		frames, err := strconv.Atoi(timecode)
		if err != nil {
			return RationalTime{}, fmt.Errorf("%w: %q", ErrInvalidTimecode, timecode)
		}
		return NewRationalTime(float64(frames), rate), nil
	}

	fields, err := splitTimecode(timecode)
	if err != nil {
		return RationalTime{}, err
	}
	hours, minutes, seconds, frames := fields[0], fields[1], fields[2], fields[3]
	nominal := nominalRate(rate)
	if frames >= nominal {
		return RationalTime{}, fmt.Errorf("%w: frame %d in %q is not below rate %g",
			ErrInvalidTimecode, frames, timecode, rate)
	}
	if minutes >= 60 || seconds >= 60 {
		return RationalTime{}, fmt.Errorf("%w: %q is out of range", ErrInvalidTimecode, timecode)
	}

	value := ((hours*60+minutes)*60+seconds)*nominal + frames
	if strings.Contains(timecode, ";") && IsDropFrameRate(rate) {
		dropped := dropFramesPerMinute(rate)
		totalMinutes := hours*60 + minutes
		value -= dropped * (totalMinutes - totalMinutes/10)
	}
	return NewRationalTime(float64(value), rate), nil
}

func dropFramesPerMinute(rate float64) int {
	return nominalRate(rate) / 15
}

// ToTimecode formats t as HH:MM:SS:FF at rate. Drop-frame output uses ';' as
// the final separator and is only honoured at drop-frame rates.
func ToTimecode(t RationalTime, rate float64, dropFrame bool) (string, error) {
	if rate <= 0 || math.IsNaN(rate) {
		return "", fmt.Errorf("%w: rate %g", ErrInvalidTimecode, rate)
	}
	frames := int(math.Round(t.ValueRescaledTo(rate)))
	if frames < 0 {
		return "", fmt.Errorf("%w: negative time %v", ErrInvalidTimecode, t)
	}
	nominal := nominalRate(rate)
	sep := ":"
	if dropFrame && IsDropFrameRate(rate) {
		sep = ";"
		dropped := dropFramesPerMinute(rate)
		perMinute := nominal*60 - dropped
		perTenMinutes := perMinute*10 + dropped
		tens, rem := frames/perTenMinutes, frames%perTenMinutes
		frames += 9 * dropped * tens
		if rem > dropped {
			frames += dropped * ((rem - dropped) / perMinute)
		}
	}
	ff := frames % nominal
	totalSeconds := frames / nominal
	return fmt.Sprintf("%02d:%02d:%02d%s%02d",
		totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, sep, ff), nil
}

// FromTimecodeApprox parses timecode at rate. When that fails and tolerant is
// set, the timecode is re-read at the first known rate above its frame field
// (or frame+1 when none is) and the result reports adjusted == true. The
// returned time keeps the inferred rate; callers rescale as needed.
func FromTimecodeApprox(timecode string, rate float64, tolerant bool) (RationalTime, bool, error) {
	t, err := FromTimecode(timecode, rate)
	if err == nil || !tolerant {
		return t, false, err
	}
	fields, splitErr := splitTimecode(strings.TrimSpace(timecode))
	if splitErr != nil {
		return RationalTime{}, false, err
	}
	frame := float64(fields[3])
	inferred := frame + 1
	for _, r := range knownRates {
		if r > frame {
			inferred = r
			break
		}
	}
	adjusted, retryErr := FromTimecode(timecode, inferred)
	if retryErr != nil {
		return RationalTime{}, false, err
	}
	return adjusted, true, nil
}

// RangeFromTimecodesApprox parses a start/end timecode pair into a range. Each
// end is read on its own, so an adjusted start keeps its inferred rate and
// the duration is expressed at that rate. adjusted reports whether either end
// needed a rate adjustment.
func RangeFromTimecodesApprox(start, end string, rate float64, tolerant bool) (TimeRange, bool, error) {
	s, adjStart, err := FromTimecodeApprox(start, rate, tolerant)
	if err != nil {
		return TimeRange{}, false, err
	}
	e, adjEnd, err := FromTimecodeApprox(end, rate, tolerant)
	if err != nil {
		return TimeRange{}, false, err
	}
	return RangeFromStartEndTime(s, e), adjStart || adjEnd, nil
}
