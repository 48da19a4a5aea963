// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package corpus

import (
	"testing"
	"time"

	"github.com/rvense/efvcompass/internal/efv"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := OpenStore(StoreConfig{Path: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if cerr := s.Close(); cerr != nil {
			t.Errorf("close store: %v", cerr)
		}
	})
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t, "")

	report := &efv.Report{
		ID:          100,
		CompanyName: "Acme Corp",
		Year:        2023,
		Sections:    map[string]string{"Key Rating Drivers": "Driver text."},
	}
	if err := s.PutReport(report); err != nil {
		t.Fatalf("put report: %v", err)
	}

	item := &efv.Item{
		ID:             7,
		Kind:           efv.KindFactor,
		CompanyID:      "Acme Corp",
		SourceReportID: 100,
		SourceSentence: "Leverage remains high.",
		Text:           "high leverage",
		NormalizedText: "high leverage",
		ReportYear:     2023,
		ExtractedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := s.PutItem(item); err != nil {
		t.Fatalf("put item: %v", err)
	}

	idx := NewIndex()
	reports, items, err := s.LoadInto(idx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reports != 1 || items != 1 {
		t.Errorf("loaded %d reports, %d items; want 1, 1", reports, items)
	}

	entries := idx.Query(Filter{})
	if len(entries) != 1 || entries[0].ID != 7 {
		t.Fatalf("unexpected entries after replay: %+v", entries)
	}
	if !idx.CompanyKnown("acme corp") {
		t.Error("replayed report not registered")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s := openTestStore(t, dir)
	if err := s.PutReport(&efv.Report{ID: 100, CompanyName: "Acme Corp", Year: 2023}); err != nil {
		t.Fatalf("put report: %v", err)
	}
	if err := s.PutItem(&efv.Item{
		ID: 7, Kind: efv.KindEvent, CompanyID: "Acme Corp", SourceReportID: 100,
		SourceSentence: "Acme refinanced its term loan.", Text: "refinanced term loan",
		NormalizedText: "refinanced term loan", ReportYear: 2023,
	}); err != nil {
		t.Fatalf("put item: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenStore(StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	idx := NewIndex()
	reports, items, err := reopened.LoadInto(idx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if reports != 1 || items != 1 {
		t.Errorf("loaded %d reports, %d items after reopen; want 1, 1", reports, items)
	}
}

func TestStoreOverwriteIsIdempotent(t *testing.T) {
	s := openTestStore(t, "")

	item := &efv.Item{
		ID: 7, Kind: efv.KindVariable, CompanyID: "Acme Corp", SourceReportID: 100,
		SourceSentence: "Margin improved.", Text: "ebitda margin",
		NormalizedText: "ebitda margin", ReportYear: 2023,
	}
	if err := s.PutReport(&efv.Report{ID: 100, CompanyName: "Acme Corp", Year: 2023}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutItem(item); err != nil {
		t.Fatal(err)
	}
	if err := s.PutItem(item); err != nil {
		t.Fatal(err)
	}

	idx := NewIndex()
	_, items, err := s.LoadInto(idx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if items != 1 {
		t.Errorf("loaded %d items, want 1 (same key overwritten)", items)
	}
}
