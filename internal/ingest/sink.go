// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package ingest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/efv"
	"github.com/rvense/efvcompass/internal/identity"
	"github.com/rvense/efvcompass/internal/metrics"
)

// Sink turns validated candidates into corpus items: it assigns the
// snowflake ID, computes the normalized text, persists the item, and merges
// it into the index.
type Sink struct {
	gen    *identity.Generator
	store  *corpus.Store
	idx    *corpus.Index
	logger zerolog.Logger

	// onIngest runs after every successful ingestion. The engine hooks its
	// cache invalidation here.
	onIngest func()

	now func() time.Time
}

// NewSink creates a sink. The store may be nil for an index-only deployment;
// onIngest may be nil.
func NewSink(gen *identity.Generator, store *corpus.Store, idx *corpus.Index, onIngest func(), logger zerolog.Logger) *Sink {
	return &Sink{
		gen:      gen,
		store:    store,
		idx:      idx,
		logger:   logger.With().Str("component", "ingest-sink").Logger(),
		onIngest: onIngest,
		now:      time.Now,
	}
}

// Ingest accepts one candidate. Identity assignment happens before
// persistence so the durable record and the index agree on the ID.
func (s *Sink) Ingest(c *Candidate) (*efv.Item, error) {
	kind, err := efv.ParseKind(c.Kind)
	if err != nil {
		return nil, fmt.Errorf("ingest candidate: %w", err)
	}

	id, err := s.gen.Next()
	if err != nil {
		metrics.IngestFailures.WithLabelValues("identity").Inc()
		return nil, fmt.Errorf("assign identity: %w", err)
	}

	item := &efv.Item{
		ID:             id,
		Kind:           kind,
		CompanyID:      c.Company,
		SourceReportID: c.ReportID,
		SourceSection:  c.Section,
		SourceSentence: c.Sentence,
		Text:           c.Text,
		NormalizedText: efv.NormalizeText(c.Text),
		ReportYear:     c.ReportYear,
		ExtractedAt:    s.now().UTC(),
	}

	if s.store != nil {
		if err := s.store.PutItem(item); err != nil {
			metrics.IngestFailures.WithLabelValues("storage").Inc()
			return nil, fmt.Errorf("persist item %d: %w", item.ID, err)
		}
	}
	if err := s.idx.Add(item); err != nil {
		metrics.IngestFailures.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("index item %d: %w", item.ID, err)
	}

	metrics.RecordIngest(kind.String())
	stats := s.idx.Stats()
	metrics.UpdateCorpusGauges(stats.Reports, stats.ByKind)

	if s.onIngest != nil {
		s.onIngest()
	}

	s.logger.Debug().
		Uint64("item_id", item.ID).
		Str("kind", kind.String()).
		Str("company", item.CompanyID).
		Msg("candidate ingested")
	return item, nil
}

// IngestReport registers a report, assigning its ID when unset.
func (s *Sink) IngestReport(r *efv.Report) (*efv.Report, error) {
	if r.ID == 0 {
		id, err := s.gen.Next()
		if err != nil {
			return nil, fmt.Errorf("assign report identity: %w", err)
		}
		r.ID = id
	}

	if s.store != nil {
		if err := s.store.PutReport(r); err != nil {
			return nil, fmt.Errorf("persist report %d: %w", r.ID, err)
		}
	}
	if err := s.idx.AddReport(r); err != nil {
		return nil, fmt.Errorf("register report %d: %w", r.ID, err)
	}

	metrics.ReportsRegistered.Inc()
	metrics.CorpusReports.Set(float64(s.idx.Stats().Reports))

	if s.onIngest != nil {
		s.onIngest()
	}

	s.logger.Debug().
		Uint64("report_id", r.ID).
		Str("company", r.CompanyName).
		Int("year", r.Year).
		Msg("report registered")
	return r, nil
}
