// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package metrics exposes Prometheus instrumentation for ingestion,
// recommendation serving, and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	ItemsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efv_items_ingested_total",
			Help: "Total number of EFV items ingested",
		},
		[]string{"kind"},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efv_ingest_failures_total",
			Help: "Total number of candidates rejected during ingestion",
		},
		[]string{"reason"}, // "validation", "identity", "storage"
	)

	ReportsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efv_reports_registered_total",
			Help: "Total number of source reports registered",
		},
	)

	// Corpus metrics
	CorpusLogicalItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "efv_corpus_logical_items",
			Help: "Current number of deduplicated logical items in the corpus",
		},
		[]string{"kind"},
	)

	CorpusReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efv_corpus_reports",
			Help: "Current number of registered reports",
		},
	)

	// Recommendation metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "efv_recommend_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "efv_recommend_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "efv_recommend_errors_total",
			Help: "Total number of failed recommendation requests",
		},
		[]string{"reason"}, // "invalid_request", "cancelled"
	)

	// Embedding provider metrics
	EmbeddingBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "efv_embedding_breaker_open",
			Help: "1 when the embedding provider circuit breaker is open",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngest records one successful item ingestion.
func RecordIngest(kind string) {
	ItemsIngested.WithLabelValues(kind).Inc()
}

// SetEmbeddingBreakerOpen reflects the embedding provider circuit breaker
// state on its gauge.
func SetEmbeddingBreakerOpen(open bool) {
	if open {
		EmbeddingBreakerState.Set(1)
		return
	}
	EmbeddingBreakerState.Set(0)
}

// UpdateCorpusGauges refreshes the corpus size gauges from a stats snapshot.
func UpdateCorpusGauges(reports int, byKind map[string]int) {
	CorpusReports.Set(float64(reports))
	for kind, n := range byKind {
		CorpusLogicalItems.WithLabelValues(kind).Set(float64(n))
	}
}
