// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// TopicCandidates carries extracted candidates awaiting ingestion.
const TopicCandidates = "efv.candidates"

// Config holds the pipeline's bus and retry settings.
type Config struct {
	// BufferSize is the bus output channel buffer per subscriber.
	BufferSize int `koanf:"buffer_size" json:"buffer_size"`

	// CloseTimeout bounds the wait for in-flight handlers on shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout" json:"close_timeout"`

	// Exponential backoff retry for failing handlers.
	RetryMaxRetries      int           `koanf:"retry_max_retries" json:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval" json:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval" json:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier" json:"retry_multiplier"`

	// PoisonTopic receives messages that exhaust their retries.
	PoisonTopic string `koanf:"poison_topic" json:"poison_topic"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
		PoisonTopic:          "efv.candidates.poison",
	}
}

// Pipeline is the candidate ingestion pipeline: an in-process Watermill bus
// with a single consumer handler feeding the sink. Failed candidates retry
// with backoff, then land on the poison topic for inspection.
type Pipeline struct {
	config     Config
	bus        *gochannel.GoChannel
	router     *message.Router
	serializer *Serializer
	sink       *Sink
	logger     zerolog.Logger
}

// NewPipeline wires the bus, middleware, and sink handler.
func NewPipeline(cfg Config, sink *Sink, logger zerolog.Logger) (*Pipeline, error) {
	if sink == nil {
		return nil, fmt.Errorf("pipeline requires a sink")
	}

	wmLogger := newWatermillLogger(logger)
	bus := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	// Outer to inner: recover panics, retry transient failures, then hand
	// permanent failures to the poison topic.
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)
	if cfg.PoisonTopic != "" {
		poison, perr := middleware.PoisonQueue(bus, cfg.PoisonTopic)
		if perr != nil {
			return nil, fmt.Errorf("create poison queue: %w", perr)
		}
		router.AddMiddleware(poison)
	}

	p := &Pipeline{
		config:     cfg,
		bus:        bus,
		router:     router,
		serializer: NewSerializer(),
		sink:       sink,
		logger:     logger.With().Str("component", "ingest-pipeline").Logger(),
	}

	router.AddConsumerHandler(
		"ingest-candidates",
		TopicCandidates,
		bus,
		p.handleCandidate,
	)
	return p, nil
}

func (p *Pipeline) handleCandidate(msg *message.Message) error {
	cand, err := p.serializer.Unmarshal(msg.Payload)
	if err != nil {
		return err
	}
	_, err = p.sink.Ingest(cand)
	return err
}

// Publish validates and enqueues candidates for ingestion. Publishing is
// asynchronous; delivery happens on the router's handler goroutine.
func (p *Pipeline) Publish(candidates ...*Candidate) error {
	msgs := make([]*message.Message, 0, len(candidates))
	for _, c := range candidates {
		data, err := p.serializer.Marshal(c)
		if err != nil {
			return err
		}
		msgs = append(msgs, message.NewMessage(watermill.NewUUID(), data))
	}
	if err := p.bus.Publish(TopicCandidates, msgs...); err != nil {
		return fmt.Errorf("publish candidates: %w", err)
	}
	return nil
}

// Run starts the router and blocks until the context is cancelled or the
// router stops. The suture supervisor calls this as the service body.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running closes once the router's handlers are subscribed.
func (p *Pipeline) Running() <-chan struct{} {
	return p.router.Running()
}

// SubscribePoison exposes the poison topic for inspection tooling.
func (p *Pipeline) SubscribePoison(ctx context.Context) (<-chan *message.Message, error) {
	return p.bus.Subscribe(ctx, p.config.PoisonTopic)
}

// Close shuts the router and the bus down.
func (p *Pipeline) Close() error {
	if err := p.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	if err := p.bus.Close(); err != nil {
		return fmt.Errorf("close bus: %w", err)
	}
	return nil
}
