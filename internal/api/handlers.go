// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/efv"
	"github.com/rvense/efvcompass/internal/ingest"
	"github.com/rvense/efvcompass/internal/metrics"
	"github.com/rvense/efvcompass/internal/recommend"
	"github.com/rvense/efvcompass/internal/validation"
)

// Handler carries the dependencies the HTTP handlers need.
type Handler struct {
	engine   *recommend.Engine
	idx      *corpus.Index
	sink     *ingest.Sink
	pipeline *ingest.Pipeline
	logger   zerolog.Logger
}

// Health reports overall service state with corpus and engine counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"corpus": h.idx.Stats(),
		"engine": h.engine.Snapshot(),
	})
}

// HealthLive is the liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe. The service is ready as soon as the
// index is constructed; an empty corpus is a valid serving state.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Recommend serves a recommendation request.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommend.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "malformed request body", nil)
		return
	}

	start := time.Now()
	result, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidRequest):
			metrics.RecommendErrors.WithLabelValues("invalid_request").Inc()
			respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			metrics.RecommendErrors.WithLabelValues("cancelled").Inc()
			respondError(w, http.StatusServiceUnavailable, CodeInternal, "request cancelled", nil)
		default:
			metrics.RecommendErrors.WithLabelValues("internal").Inc()
			h.logger.Error().Err(err).Msg("recommendation failed")
			respondError(w, http.StatusInternalServerError, CodeInternal, "recommendation failed", nil)
		}
		return
	}

	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	if result.CacheHit {
		metrics.RecommendCacheHits.Inc()
	}
	respondJSON(w, http.StatusOK, result)
}

// reportSubmission is the wire form of a report registration.
type reportSubmission struct {
	Company  string            `json:"company" validate:"required"`
	Year     int               `json:"year" validate:"reportyear"`
	Sections map[string]string `json:"sections"`
}

// SubmitReport registers a source report and returns its assigned ID.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var sub reportSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "malformed request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&sub); verr != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, verr.Error(), verr.Fields)
		return
	}

	report, err := h.sink.IngestReport(&efv.Report{
		CompanyName: sub.Company,
		Year:        sub.Year,
		Sections:    sub.Sections,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("company", sub.Company).Msg("report registration failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "report registration failed", nil)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"report_id": report.ID,
		"company":   report.CompanyName,
		"year":      report.Year,
	})
}

// candidateSubmission is the wire form of a candidate batch.
type candidateSubmission struct {
	Candidates []ingest.Candidate `json:"candidates" validate:"required,min=1,dive"`
}

// SubmitCandidates enqueues extracted candidates for asynchronous ingestion.
func (h *Handler) SubmitCandidates(w http.ResponseWriter, r *http.Request) {
	var sub candidateSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "malformed request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&sub); verr != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, verr.Error(), verr.Fields)
		return
	}

	batch := make([]*ingest.Candidate, len(sub.Candidates))
	for i := range sub.Candidates {
		batch[i] = &sub.Candidates[i]
	}
	if err := h.pipeline.Publish(batch...); err != nil {
		var verr *validation.RequestError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, CodeValidationError, verr.Error(), verr.Fields)
			return
		}
		h.logger.Error().Err(err).Msg("candidate publish failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "candidate publish failed", nil)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]int{"accepted": len(batch)})
}

// CorpusStats reports index contents and engine counters.
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"corpus": h.idx.Stats(),
		"engine": h.engine.Snapshot(),
	})
}
