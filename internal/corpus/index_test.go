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

func mustAddReport(t *testing.T, idx *Index, id uint64, company string, year int, sections map[string]string) {
	t.Helper()
	if err := idx.AddReport(&efv.Report{ID: id, CompanyName: company, Year: year, Sections: sections}); err != nil {
		t.Fatalf("add report %d: %v", id, err)
	}
}

func mustAdd(t *testing.T, idx *Index, item efv.Item) {
	t.Helper()
	if item.NormalizedText == "" {
		item.NormalizedText = efv.NormalizeText(item.Text)
	}
	if item.SourceSentence == "" {
		item.SourceSentence = item.Text + "."
	}
	if item.ExtractedAt.IsZero() {
		item.ExtractedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if err := idx.Add(&item); err != nil {
		t.Fatalf("add item %d: %v", item.ID, err)
	}
}

func TestIndexDedup(t *testing.T) {
	idx := NewIndex()
	mustAddReport(t, idx, 100, "Acme Corp", 2022, nil)
	mustAddReport(t, idx, 101, "Acme Corp", 2023, nil)

	// Same logical item from two reports, differing only in surface form.
	mustAdd(t, idx, efv.Item{
		ID: 7, Kind: efv.KindFactor, CompanyID: "Acme Corp",
		SourceReportID: 100, Text: "High leverage,", ReportYear: 2022,
		NormalizedText: efv.NormalizeText("High leverage,"),
	})
	mustAdd(t, idx, efv.Item{
		ID: 9, Kind: efv.KindFactor, CompanyID: "ACME CORP",
		SourceReportID: 101, Text: "high leverage", ReportYear: 2023,
		NormalizedText: efv.NormalizeText("high leverage"),
	})

	entries := idx.Query(Filter{})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != 7 {
		t.Errorf("representative ID = %d, want 7 (smallest merged ID)", e.ID)
	}
	if e.Text != "high leverage" {
		t.Errorf("text = %q, want most recent occurrence's text", e.Text)
	}
	if len(e.Occurrences) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(e.Occurrences))
	}
	if e.Occurrences[0].ReportYear != 2023 {
		t.Errorf("occurrences not newest-first: %+v", e.Occurrences)
	}
}

func TestIndexIdempotentReingest(t *testing.T) {
	idx := NewIndex()
	mustAddReport(t, idx, 100, "Acme Corp", 2023, nil)

	item := efv.Item{
		ID: 7, Kind: efv.KindEvent, CompanyID: "Acme Corp",
		SourceReportID: 100, Text: "refinanced term loan", ReportYear: 2023,
	}
	mustAdd(t, idx, item)
	item.ID = 8 // re-extraction assigns a fresh ID
	mustAdd(t, idx, item)

	entries := idx.Query(Filter{})
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := len(entries[0].Occurrences); got != 1 {
		t.Errorf("got %d occurrences after re-ingest, want 1", got)
	}
	if entries[0].ID != 7 {
		t.Errorf("representative ID = %d, want 7", entries[0].ID)
	}
}

func TestIndexRejectsInvalid(t *testing.T) {
	idx := NewIndex()
	err := idx.Add(&efv.Item{ID: 1, Kind: efv.Kind(9), CompanyID: "x", Text: "t", SourceSentence: "s.", ReportYear: 2023})
	if err == nil {
		t.Error("expected error for invalid kind")
	}
	err = idx.Add(&efv.Item{Kind: efv.KindEvent, CompanyID: "x", Text: "t", SourceSentence: "s.", ReportYear: 2023})
	if err == nil {
		t.Error("expected error for missing ID")
	}
	if err := idx.AddReport(&efv.Report{ID: 1, CompanyName: " ", Year: 2023}); err == nil {
		t.Error("expected error for empty company name")
	}
}

func TestQueryFilters(t *testing.T) {
	idx := NewIndex()
	mustAddReport(t, idx, 100, "Acme Corp", 2021, nil)
	mustAddReport(t, idx, 101, "Acme Corp", 2022, nil)
	mustAddReport(t, idx, 102, "Acme Corp", 2023, nil)
	mustAddReport(t, idx, 200, "Globex", 2023, nil)

	mustAdd(t, idx, efv.Item{ID: 1, Kind: efv.KindVariable, CompanyID: "Acme Corp", SourceReportID: 100, Text: "ebitda margin", ReportYear: 2021})
	mustAdd(t, idx, efv.Item{ID: 2, Kind: efv.KindVariable, CompanyID: "Acme Corp", SourceReportID: 101, Text: "ebitda margin", ReportYear: 2022})
	mustAdd(t, idx, efv.Item{ID: 3, Kind: efv.KindVariable, CompanyID: "Acme Corp", SourceReportID: 102, Text: "free cash flow", ReportYear: 2023})
	mustAdd(t, idx, efv.Item{ID: 4, Kind: efv.KindVariable, CompanyID: "Globex", SourceReportID: 200, Text: "ebitda margin", ReportYear: 2023})
	mustAdd(t, idx, efv.Item{ID: 5, Kind: efv.KindFactor, CompanyID: "Acme Corp", SourceReportID: 102, Text: "refinancing risk", ReportYear: 2023})

	t.Run("company filter", func(t *testing.T) {
		entries := idx.Query(Filter{Company: "acme corp"})
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		for _, e := range entries {
			if e.CompanyID != "Acme Corp" {
				t.Errorf("entry %d leaked company %q", e.ID, e.CompanyID)
			}
		}
	})

	t.Run("year window", func(t *testing.T) {
		entries := idx.Query(Filter{Company: "Acme Corp", YearMin: 2022, YearMax: 2022})
		if len(entries) != 1 || entries[0].NormalizedText != "ebitda margin" {
			t.Fatalf("unexpected entries: %+v", entries)
		}
		if len(entries[0].Occurrences) != 1 || entries[0].Occurrences[0].ReportYear != 2022 {
			t.Errorf("year window leaked occurrences: %+v", entries[0].Occurrences)
		}
	})

	t.Run("report limit keeps newest", func(t *testing.T) {
		entries := idx.Query(Filter{Company: "Acme Corp", ReportLimit: 2})
		// Reports 102 (2023) and 101 (2022) in scope; report 100 excluded.
		var years []int
		for _, e := range entries {
			for _, o := range e.Occurrences {
				years = append(years, o.ReportYear)
			}
		}
		for _, y := range years {
			if y < 2022 {
				t.Errorf("report limit leaked year %d", y)
			}
		}
		if len(years) != 3 {
			t.Errorf("got %d occurrences, want 3", len(years))
		}
	})

	t.Run("kind filter", func(t *testing.T) {
		kind := efv.KindFactor
		entries := idx.Query(Filter{Company: "Acme Corp", Kind: &kind})
		if len(entries) != 1 || entries[0].Kind != efv.KindFactor {
			t.Fatalf("unexpected entries: %+v", entries)
		}

		kind = efv.KindEvent
		if entries := idx.Query(Filter{Kind: &kind}); len(entries) != 0 {
			t.Errorf("expected no events, got %+v", entries)
		}
	})

	t.Run("global query crosses companies", func(t *testing.T) {
		entries := idx.Query(Filter{})
		keys := make(map[string]int)
		for _, e := range entries {
			keys[e.AggregationKey()]++
		}
		if keys["variable\x1febitda margin"] != 2 {
			t.Errorf("aggregation key should collect both companies: %v", keys)
		}
	})
}

func TestSectionText(t *testing.T) {
	idx := NewIndex()
	mustAddReport(t, idx, 100, "Acme Corp", 2022, map[string]string{
		"Debt and Liquidity": "Older liquidity text.",
	})
	mustAddReport(t, idx, 101, "Acme Corp", 2023, map[string]string{
		"Liquidity and Debt Structure": "Newer liquidity text.",
		"Key Rating Drivers":           "Driver text.",
	})

	got := idx.SectionText("ACME CORP", "Liquidity and Debt Structure")
	want := "Newer liquidity text.\nOlder liquidity text."
	if got != want {
		t.Errorf("SectionText = %q, want %q", got, want)
	}
	if idx.SectionText("Acme Corp", "No Such Section") != "" {
		t.Error("unknown section should return empty text")
	}
	if idx.SectionText("Unknown Co", "Key Rating Drivers") != "" {
		t.Error("unknown company should return empty text")
	}
}

func TestMaxYearAndStats(t *testing.T) {
	idx := NewIndex()
	if idx.MaxYear() != 0 {
		t.Error("empty index MaxYear should be 0")
	}

	mustAddReport(t, idx, 100, "Acme Corp", 2021, nil)
	mustAddReport(t, idx, 101, "Globex", 2024, nil)
	mustAdd(t, idx, efv.Item{ID: 1, Kind: efv.KindEvent, CompanyID: "Acme Corp", SourceReportID: 100, Text: "covenant waiver", ReportYear: 2021})
	mustAdd(t, idx, efv.Item{ID: 2, Kind: efv.KindFactor, CompanyID: "Globex", SourceReportID: 101, Text: "strong market position", ReportYear: 2024})

	if idx.MaxYear() != 2024 {
		t.Errorf("MaxYear = %d, want 2024", idx.MaxYear())
	}
	if !idx.CompanyKnown("globex") || idx.CompanyKnown("initech") {
		t.Error("CompanyKnown mismatch")
	}

	s := idx.Stats()
	if s.Reports != 2 || s.Companies != 2 || s.LogicalItems != 2 || s.Occurrences != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.ByKind["event"] != 1 || s.ByKind["factor"] != 1 || s.ByKind["variable"] != 0 {
		t.Errorf("unexpected kind breakdown: %+v", s.ByKind)
	}
}
