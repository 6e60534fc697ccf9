// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package server implements an HTTP front end for merging PDF files.
//
// The following endpoints are provided:
//
//   - POST /api/merge merges the files uploaded in the multipart form
//     field "files" and returns the merged PDF file.
//   - POST /api/count returns the number of pages and the page sizes of
//     the file uploaded in the multipart form field "file".
//   - GET /metrics exposes Prometheus metrics.
//   - GET /healthz reports whether the server is running.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"seehuhn.de/go/pdfmerge/internal/buildinfo"
	"seehuhn.de/go/pdfmerge/internal/config"
)

// Server serves the merge API.
type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics
	counts  *countCache
	router  chi.Router
}

// New creates a new server.  If log is nil, nothing is logged.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: newMetrics(reg),
	}
	if cfg.Cache.Size > 0 {
		s.counts, err = newCountCache(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(cfg.Server.BodyLimit))
		r.Post("/merge", s.handleMerge)
		r.Post("/count", s.handleCount)
	})
	s.router = r

	return s, nil
}

// ServeHTTP implements the [http.Handler] interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe listens on the configured address and serves requests
// until ctx is cancelled.  Requests in progress are given a few seconds to
// complete before the server shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve serves requests on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(listener)
	}()
	s.log.Info("listening",
		zap.Stringer("addr", listener.Addr()),
		zap.String("version", buildinfo.Version()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}
	err = <-errc
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version(),
	})
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("request",
				zap.String("id", requestID(r)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
