// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

// Package server exposes the EDL reader over HTTP.
//
// Routes:
//
//	POST /api/v1/timelines   EDL text in, timeline JSON out
//	POST /api/v1/statements  EDL text in, lexed statements out
//	POST /api/v1/edl         EDL text in, normalised EDL text out
//	GET  /healthz            liveness
//	GET  /metrics            Prometheus metrics
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/internal/config"
)

// Server routes requests to the decoder and encoder.
type Server struct {
	cfg    config.Config
	log    *slog.Logger
	router *mux.Router
}

// New builds a Server. A nil logger discards output.
func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, log: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests, recordMetrics(DefaultMetricsConfig()))

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/timelines", s.handleTimelines).Methods(http.MethodPost)
	api.HandleFunc("/statements", s.handleStatements).Methods(http.MethodPost)
	api.HandleFunc("/edl", s.handleEDL).Methods(http.MethodPost)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the Server in an http.Server using the configured address
// and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}
