// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package main is the entry point for the EFV Compass server.
//
// EFV Compass recommends Events, Factors, and Variables extracted from
// credit rating reports. The extraction pipeline submits reports and EFV
// candidates over HTTP; the server assigns snowflake identities, maintains
// the deduplicated corpus (durable in BadgerDB), and serves fused
// company/global/hybrid recommendation rankings.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml, EFVC_ env vars
//  2. Identity generator: snowflake IDs from the configured datacenter/worker
//  3. Corpus store: BadgerDB open and index replay
//  4. Scoring: relation scorer, optional HTTP embedding provider
//  5. Recommendation engine
//  6. Ingest pipeline: Watermill bus with retry and poison queue
//  7. HTTP server: chi REST API plus /metrics
//
// The ingest pipeline and the HTTP server run under a suture supervision
// tree; SIGINT/SIGTERM drain both gracefully.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rvense/efvcompass/internal/api"
	"github.com/rvense/efvcompass/internal/config"
	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/identity"
	"github.com/rvense/efvcompass/internal/ingest"
	"github.com/rvense/efvcompass/internal/logging"
	"github.com/rvense/efvcompass/internal/recommend"
	"github.com/rvense/efvcompass/internal/scoring"
	"github.com/rvense/efvcompass/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().Msg("starting efvcompass")

	gen, err := identity.New(cfg.Identity)
	if err != nil {
		return err
	}

	store, err := corpus.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close corpus store")
		}
	}()

	idx := corpus.NewIndex()
	reports, items, err := store.LoadInto(idx)
	if err != nil {
		return err
	}
	logger.Info().
		Int("reports", reports).
		Int("items", items).
		Msg("corpus replayed")

	var provider scoring.EmbeddingProvider
	if cfg.Embedding.Endpoint != "" {
		provider = scoring.NewHTTPProvider(cfg.Embedding, logger)
	}
	scorer, err := scoring.NewScorer(cfg.Scoring, provider)
	if err != nil {
		return err
	}

	engine, err := recommend.NewEngine(cfg.Recommend, idx, scorer, logger)
	if err != nil {
		return err
	}

	sink := ingest.NewSink(gen, store, idx, engine.InvalidateCache, logger)
	pipeline, err := ingest.NewPipeline(cfg.Ingest, sink, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close ingest pipeline")
		}
	}()

	server := api.NewServer(cfg.Server, engine, idx, sink, pipeline, logger)

	slogger := slog.New(logging.NewSlogHandler(logging.Component("supervisor")))
	tree := supervisor.NewTree(slogger, supervisor.DefaultTreeConfig())
	tree.AddIngestService(supervisor.NewService("ingest-pipeline", supervisor.RunFunc(pipeline.Run)))
	tree.AddAPIService(supervisor.NewService("http-server", server))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if ctx.Err() != nil {
		logger.Info().Msg("shutdown complete")
		return nil
	}
	return err
}
