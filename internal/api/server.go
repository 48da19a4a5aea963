// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/ingest"
	"github.com/rvense/efvcompass/internal/recommend"
)

// Config holds HTTP server settings.
type Config struct {
	Host string `koanf:"host" json:"host"`
	Port int    `koanf:"port" json:"port"`

	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`

	// CORSOrigins lists allowed origins; empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`

	// RateLimit is requests per client IP per minute; 0 disables limiting.
	RateLimit int `koanf:"rate_limit" json:"rate_limit"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimit:       300,
	}
}

// Server is the HTTP front end over the engine, index, and ingest pipeline.
type Server struct {
	config   Config
	handler  *Handler
	logger   zerolog.Logger
	srv      *http.Server
	listener net.Listener
}

// NewServer builds the server and its route tree.
func NewServer(cfg Config, engine *recommend.Engine, idx *corpus.Index, sink *ingest.Sink, pipeline *ingest.Pipeline, logger zerolog.Logger) *Server {
	s := &Server{
		config: cfg,
		handler: &Handler{
			engine:   engine,
			idx:      idx,
			sink:     sink,
			pipeline: pipeline,
			logger:   logger.With().Str("component", "api").Logger(),
		},
		logger: logger.With().Str("component", "api").Logger(),
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// routes assembles the chi route tree with the global middleware stack.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging(s.logger))
	if len(s.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", s.handler.Health)
		r.Get("/live", s.handler.HealthLive)
		r.Get("/ready", s.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.config.RateLimit, time.Minute))
		}
		r.Post("/recommend", s.handler.Recommend)
		r.Post("/reports", s.handler.SubmitReport)
		r.Post("/candidates", s.handler.SubmitCandidates)
		r.Get("/corpus/stats", s.handler.CorpusStats)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Handler returns the route tree for in-process testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Serve listens and serves until the context is cancelled, then drains
// connections within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	s.listener = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	errCh := make(chan error, 1)
	go func() {
		if serr := s.srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Addr returns the bound listener address, valid once Serve has started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.srv.Addr
	}
	return s.listener.Addr().String()
}
