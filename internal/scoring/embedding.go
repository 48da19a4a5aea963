// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package scoring

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rvense/efvcompass/internal/metrics"
)

// ProviderConfig configures the HTTP embedding provider.
type ProviderConfig struct {
	// Endpoint is the embedding service URL. Empty disables the provider.
	Endpoint string `koanf:"endpoint" json:"endpoint"`

	// Timeout bounds a single embedding request.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold" json:"breaker_failure_threshold"`

	// BreakerCooldown is how long the circuit stays open before probing.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" json:"breaker_cooldown"`

	// CacheCapacity bounds the number of cached vectors. Zero or negative
	// uses the default capacity.
	CacheCapacity int `koanf:"cache_capacity" json:"cache_capacity"`
}

// DefaultProviderConfig returns production defaults for the provider.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Endpoint:                "",
		Timeout:                 2 * time.Second,
		BreakerFailureThreshold: 5,
		BreakerCooldown:         30 * time.Second,
		CacheCapacity:           defaultVectorCacheCapacity,
	}
}

// HTTPProvider fetches embedding vectors from an external service, guarded
// by a circuit breaker. Successful lookups are held in a bounded LRU cache
// keyed by text so repeated scoring of identical inputs stays deterministic
// and cheap; a failed or short-circuited lookup reports absence, which the
// scorer tolerates.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]float64]
	logger   zerolog.Logger
	cache    *VectorCache
}

// embedRequest is the wire request to the embedding service.
type embedRequest struct {
	Text string `json:"text"`
}

// embedResponse is the wire response from the embedding service.
type embedResponse struct {
	Vector []float64 `json:"vector"`
}

// NewHTTPProvider creates a provider for the given endpoint.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHTTPProvider(cfg ProviderConfig, logger zerolog.Logger) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProviderConfig().Timeout
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = DefaultProviderConfig().BreakerFailureThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = DefaultProviderConfig().BreakerCooldown
	}

	breaker := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:    "embedding-provider",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetEmbeddingBreakerOpen(to == gobreaker.StateOpen)
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding breaker state change")
		},
	})

	return &HTTPProvider{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		logger:   logger.With().Str("component", "embedding").Logger(),
		cache:    NewVectorCache(cfg.CacheCapacity),
	}
}

// Vector implements EmbeddingProvider. Absence (service down, breaker open,
// malformed response) is reported via the second return value, never an error.
func (p *HTTPProvider) Vector(text string) ([]float64, bool) {
	if p.endpoint == "" || text == "" {
		return nil, false
	}

	if cached, ok := p.cache.Get(text); ok {
		return cached, true
	}

	vec, err := p.breaker.Execute(func() ([]float64, error) {
		return p.fetch(text)
	})
	if err != nil {
		p.logger.Debug().Err(err).Msg("embedding lookup failed")
		return nil, false
	}

	p.cache.Add(text, vec)
	return vec, true
}

// BreakerState returns the circuit breaker state for monitoring.
func (p *HTTPProvider) BreakerState() string {
	return p.breaker.State().String()
}

// fetch performs a single embedding request.
func (p *HTTPProvider) fetch(text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := p.client.Post(p.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Vector) == 0 {
		return nil, fmt.Errorf("embedding service returned empty vector")
	}

	return out.Vector, nil
}

// StaticProvider serves vectors from a fixed map. Used for tests and for
// deployments that precompute embeddings offline.
type StaticProvider struct {
	vectors map[string][]float64
}

// NewStaticProvider creates a provider over a fixed vector table.
func NewStaticProvider(vectors map[string][]float64) *StaticProvider {
	return &StaticProvider{vectors: vectors}
}

// Vector implements EmbeddingProvider.
func (p *StaticProvider) Vector(text string) ([]float64, bool) {
	vec, ok := p.vectors[text]
	return vec, ok
}
