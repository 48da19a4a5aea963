// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/efv"
	"github.com/rvense/efvcompass/internal/identity"
)

func newTestSink(t *testing.T, idx *corpus.Index, onIngest func()) *Sink {
	t.Helper()
	gen, err := identity.New(identity.Config{DatacenterID: 0, WorkerID: 1})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return NewSink(gen, nil, idx, onIngest, zerolog.Nop())
}

func validCandidate() *Candidate {
	return &Candidate{
		Kind:       "event",
		Company:    "Acme Corp",
		ReportID:   100,
		Section:    "Liquidity and Debt Structure",
		Sentence:   "Acme refinanced its term loan.",
		Text:       "refinanced term loan",
		ReportYear: 2023,
	}
}

func startPipeline(t *testing.T, cfg Config, sink *Sink) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("pipeline did not stop")
		}
	})

	select {
	case <-p.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not start")
	}
	return p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSerializerRejectsInvalid(t *testing.T) {
	s := NewSerializer()

	if _, err := s.Marshal(&Candidate{Kind: "incident"}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := s.Unmarshal([]byte(`{"kind":"event"}`)); err == nil {
		t.Error("expected error for missing fields")
	}
	if _, err := s.Unmarshal([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}

	data, err := s.Marshal(validCandidate())
	if err != nil {
		t.Fatalf("marshal valid candidate: %v", err)
	}
	got, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal valid candidate: %v", err)
	}
	if got.Text != "refinanced term loan" || got.ReportYear != 2023 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSinkIngest(t *testing.T) {
	idx := corpus.NewIndex()
	invalidated := 0
	sink := newTestSink(t, idx, func() { invalidated++ })

	if _, err := sink.IngestReport(&efv.Report{CompanyName: "Acme Corp", Year: 2023}); err != nil {
		t.Fatalf("ingest report: %v", err)
	}
	item, err := sink.Ingest(validCandidate())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if item.ID == 0 {
		t.Error("item not stamped with an ID")
	}
	if item.NormalizedText != efv.NormalizeText(item.Text) {
		t.Errorf("normalized text = %q", item.NormalizedText)
	}
	if item.ExtractedAt.IsZero() {
		t.Error("extraction timestamp not set")
	}
	if invalidated != 2 {
		t.Errorf("onIngest ran %d times, want 2", invalidated)
	}

	entries := idx.Query(corpus.Filter{Company: "Acme Corp"})
	if len(entries) != 1 || entries[0].Kind != efv.KindEvent {
		t.Errorf("unexpected index state: %+v", entries)
	}
}

func TestPipelineDeliversCandidates(t *testing.T) {
	idx := corpus.NewIndex()
	sink := newTestSink(t, idx, nil)
	p := startPipeline(t, DefaultConfig(), sink)

	if err := p.Publish(validCandidate()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		return len(idx.Query(corpus.Filter{Company: "Acme Corp"})) == 1
	})
}

func TestPipelinePoisonsFailingCandidates(t *testing.T) {
	idx := corpus.NewIndex()
	sink := newTestSink(t, idx, nil)

	cfg := DefaultConfig()
	cfg.RetryMaxRetries = 1
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = time.Millisecond
	p := startPipeline(t, cfg, sink)

	poison, err := p.SubscribePoison(context.Background())
	if err != nil {
		t.Fatalf("subscribe poison: %v", err)
	}

	// Bypass Publish validation to simulate a corrupt payload on the bus.
	raw := message.NewMessage(watermill.NewUUID(), []byte(`{"kind":"incident"}`))
	if err := p.bus.Publish(TopicCandidates, raw); err != nil {
		t.Fatalf("publish raw: %v", err)
	}

	select {
	case msg := <-poison:
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("corrupt candidate never reached the poison topic")
	}
	if n := len(idx.Query(corpus.Filter{})); n != 0 {
		t.Errorf("corrupt candidate was indexed: %d entries", n)
	}
}
