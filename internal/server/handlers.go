// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	cmx3600 "github.com/OpenTimelineIO/otio-cmx3600-adapter"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/internal/metrics"
	"github.com/OpenTimelineIO/otio-cmx3600-adapter/timeline"
)

const metricsSource = "http"

// StatsResponse mirrors cmx3600.Stats.
type StatsResponse struct {
	Statements         int `json:"statements"`
	Events             int `json:"events"`
	Timelines          int `json:"timelines"`
	MalformedNotes     int `json:"malformed_notes"`
	AdjustedTimecodes  int `json:"adjusted_timecodes"`
	TimecodeMismatches int `json:"timecode_mismatches"`
}

// TimelinesResponse is the body of a successful POST /api/v1/timelines.
type TimelinesResponse struct {
	Timelines []*timeline.Timeline `json:"timelines"`
	Stats     StatsResponse        `json:"stats"`
}

// Statement is one lexed EDL line.
type Statement struct {
	Line               int    `json:"line"`
	Kind               string `json:"kind"`
	EditNumber         string `json:"edit_number,omitempty"`
	EditNumberInferred bool   `json:"edit_number_inferred,omitempty"`
	Identifier         string `json:"identifier,omitempty"`
	Text               string `json:"text"`
}

// StatementsResponse is the body of a successful POST /api/v1/statements.
type StatementsResponse struct {
	Statements []Statement `json:"statements"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Kind       string   `json:"kind,omitempty"`
	Line       int      `json:"line,omitempty"`
	EditNumber string   `json:"edit_number,omitempty"`
	Events     []string `json:"events,omitempty"`
}

func (s *Server) handleTimelines(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readEDL(w, r)
	if !ok {
		return
	}
	dec, ok := s.newDecoder(w, r, text)
	if !ok {
		return
	}

	start := time.Now()
	timelines, err := dec.DecodeAll()
	metrics.ObserveDecode(metricsSource, dec.Stats(), time.Since(start), err)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TimelinesResponse{Timelines: timelines, Stats: statsResponse(dec.Stats())})
}

func (s *Server) handleStatements(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readEDL(w, r)
	if !ok {
		return
	}
	stmts, err := cmx3600.ParseStatements(strings.NewReader(text))
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	resp := StatementsResponse{Statements: make([]Statement, 0, len(stmts))}
	for _, stmt := range stmts {
		resp.Statements = append(resp.Statements, statementView(stmt))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEDL decodes the body and writes it back out with the configured
// encoder style. The style query parameter overrides the configuration.
func (s *Server) handleEDL(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readEDL(w, r)
	if !ok {
		return
	}
	dec, ok := s.newDecoder(w, r, text)
	if !ok {
		return
	}

	style := cmx3600.OutputStyle(s.cfg.Encoder.Style)
	if v := r.URL.Query().Get("style"); v != "" {
		style = cmx3600.OutputStyle(strings.ToLower(v))
	}
	switch style {
	case cmx3600.OutputStyleAvid, cmx3600.OutputStyleNucoda, cmx3600.OutputStylePremiere:
	default:
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unknown style %q", style)})
		return
	}

	start := time.Now()
	timelines, err := dec.DecodeAll()
	metrics.ObserveDecode(metricsSource, dec.Stats(), time.Since(start), err)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	var buf bytes.Buffer
	enc := cmx3600.NewEncoder(&buf)
	enc.SetStyle(style)
	enc.SetReelNameLength(s.cfg.Encoder.ReelNameLength)
	enc.SetRate(s.rate(r))
	for _, tl := range timelines {
		if err := enc.Encode(tl); err != nil {
			writeError(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "encode"})
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readEDL reads the request body up to the configured limit.
func (s *Server) readEDL(w http.ResponseWriter, r *http.Request) (string, bool) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit),
			})
			return "", false
		}
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", false
	}
	text, err := cmx3600.DecodeText(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", false
	}
	return text, true
}

// newDecoder applies the rate and ignore_invalid_timecode query parameters
// over the configured decoder settings.
func (s *Server) newDecoder(w http.ResponseWriter, r *http.Request, text string) (*cmx3600.Decoder, bool) {
	q := r.URL.Query()
	tolerant := s.cfg.Decoder.IgnoreInvalidTimecodeErrors
	if v := q.Get("ignore_invalid_timecode"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("ignore_invalid_timecode: %v", err)})
			return nil, false
		}
		tolerant = b
	}
	if v := q.Get("rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("rate %q is not a positive number", v)})
			return nil, false
		}
	}

	dec := cmx3600.NewDecoder(strings.NewReader(text))
	dec.SetRate(s.rate(r))
	dec.SetIgnoreInvalidTimecodeErrors(tolerant)
	dec.SetLogger(s.log.With("component", "decoder"))
	return dec, true
}

// rate returns the request's rate parameter, assumed valid, or the
// configured default.
func (s *Server) rate(r *http.Request) float64 {
	if rate, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64); err == nil && rate > 0 {
		return rate
	}
	return s.cfg.Decoder.Rate
}

func statementView(stmt cmx3600.Statement) Statement {
	info := stmt.Info()
	v := Statement{
		Line:               info.LineNumber,
		EditNumber:         info.EditNumber,
		EditNumberInferred: info.EditNumberInferred,
		Text:               stmt.String(),
	}
	switch st := stmt.(type) {
	case *cmx3600.StandardFormStatement:
		v.Kind = "edit"
	case *cmx3600.NoteFormStatement:
		v.Kind = "directive"
		if st.IsComment {
			v.Kind = "comment"
		}
		v.Identifier = st.Identifier()
		v.Text = st.Text
	}
	return v
}

func statsResponse(st cmx3600.Stats) StatsResponse {
	return StatsResponse{
		Statements:         st.Statements,
		Events:             st.Events,
		Timelines:          st.Timelines,
		MalformedNotes:     st.MalformedNotes,
		AdjustedTimecodes:  st.AdjustedTimecodes,
		TimecodeMismatches: st.TimecodeMismatches,
	}
}

// writeDecodeError reports EDL content errors as 422 with the parse context.
func writeDecodeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Kind: metrics.ErrorKind(err)}
	var perr *cmx3600.ParseError
	if errors.As(err, &perr) {
		resp.Line = perr.Line
		resp.EditNumber = perr.EditNumber
		resp.Events = perr.Events
	}
	writeError(w, http.StatusUnprocessableEntity, resp)
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
