// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package metrics defines the Prometheus metrics exported by the EDL tools.
// Metrics register with the default registry on package load; the server
// exposes them on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	cmx3600 "github.com/OpenTimelineIO/otio-cmx3600-adapter"
)

// Decode metrics. The source label names the caller, e.g. "http" or "cli".
var (
	DecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_decodes_total",
			Help: "Total number of EDL decodes",
		},
		[]string{"source", "status"},
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edl_decode_duration_seconds",
			Help:    "EDL decode duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"source"},
	)

	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_decode_errors_total",
			Help: "Total number of failed EDL decodes by error kind",
		},
		[]string{"source", "kind"},
	)

	StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_statements_total",
			Help: "Total number of EDL statements read",
		},
		[]string{"source"},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_events_total",
			Help: "Total number of edit events reconstructed",
		},
		[]string{"source"},
	)

	TimelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_timelines_total",
			Help: "Total number of timelines produced",
		},
		[]string{"source"},
	)

	MalformedNotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_malformed_notes_total",
			Help: "Total number of recognised notes whose content failed to parse",
		},
		[]string{"source"},
	)

	AdjustedTimecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_adjusted_timecodes_total",
			Help: "Total number of timecodes re-read at an inferred rate",
		},
		[]string{"source"},
	)

	TimecodeMismatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_timecode_mismatches_total",
			Help: "Total number of edits whose source and record durations differ",
		},
		[]string{"source"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edl_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edl_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edl_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// ObserveDecode records the outcome of one decode.
func ObserveDecode(source string, stats cmx3600.Stats, elapsed time.Duration, err error) {
	DecodeDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	StatementsTotal.WithLabelValues(source).Add(float64(stats.Statements))
	EventsTotal.WithLabelValues(source).Add(float64(stats.Events))
	MalformedNotesTotal.WithLabelValues(source).Add(float64(stats.MalformedNotes))
	AdjustedTimecodesTotal.WithLabelValues(source).Add(float64(stats.AdjustedTimecodes))
	TimecodeMismatchesTotal.WithLabelValues(source).Add(float64(stats.TimecodeMismatches))

	if err != nil {
		DecodesTotal.WithLabelValues(source, "error").Inc()
		DecodeErrorsTotal.WithLabelValues(source, ErrorKind(err)).Inc()
		return
	}
	DecodesTotal.WithLabelValues(source, "ok").Inc()
	TimelinesTotal.WithLabelValues(source).Add(float64(stats.Timelines))
}

// ErrorKind returns a short label for a decode error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cmx3600.ErrInvalidTimecode):
		return "invalid_timecode"
	case errors.Is(err, cmx3600.ErrMalformedStatement):
		return "malformed_statement"
	case errors.Is(err, cmx3600.ErrInvalidColorDecision):
		return "invalid_color_decision"
	case errors.Is(err, cmx3600.ErrUnsupportedTransition):
		return "unsupported_transition"
	case errors.Is(err, cmx3600.ErrTrackOverlap):
		return "track_overlap"
	case errors.Is(err, cmx3600.ErrMultipleTimelines):
		return "multiple_timelines"
	}
	return "other"
}
