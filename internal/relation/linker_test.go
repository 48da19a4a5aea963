// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package relation

import "testing"

const sectionText = "Liquidity weakened in the quarter. Cash fell to $1.2bn, driven by working-capital swings. The revolver remains undrawn. Management expects refinancing in 2025."

func TestSentenceSpans(t *testing.T) {
	spans := SentenceSpans(sectionText)
	if len(spans) != 4 {
		t.Fatalf("expected 4 sentences, got %d: %v", len(spans), spans)
	}

	// Spans must tile the text without gaps.
	if spans[0].Start != 0 {
		t.Errorf("first span starts at %d", spans[0].Start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start != spans[i-1].End {
			t.Errorf("gap between span %d and %d", i-1, i)
		}
	}
	if spans[len(spans)-1].End != len(sectionText) {
		t.Errorf("last span ends at %d, text length %d", spans[len(spans)-1].End, len(sectionText))
	}
}

func TestSentenceSpansDecimals(t *testing.T) {
	spans := SentenceSpans("Leverage rose to 6.2x on $1.2bn of gross debt. Coverage fell to 1.8x.")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %v", len(spans), spans)
	}
}

func TestSentenceSpansTrailingText(t *testing.T) {
	spans := SentenceSpans("First sentence. trailing fragment without terminator")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
}

func TestSentenceSpansEmpty(t *testing.T) {
	if spans := SentenceSpans(""); len(spans) != 0 {
		t.Errorf("expected no spans for empty text, got %v", spans)
	}
}

func TestLocate(t *testing.T) {
	spans := SentenceSpans(sectionText)

	tests := []struct {
		name     string
		evidence string
		want     int
	}{
		{"first sentence", "Liquidity weakened", 0},
		{"second sentence", "Cash fell to $1.2bn", 1},
		{"fourth sentence", "refinancing in 2025", 3},
		{"anchor fallback", "Cash fell to $1.2bn, driven  by  different  spacing", 1},
		{"not present", "completely unrelated evidence", -1},
		{"empty", "  ", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Locate(sectionText, spans, tt.evidence); got != tt.want {
				t.Errorf("Locate(%q) = %d, want %d", tt.evidence, got, tt.want)
			}
		})
	}
}

func TestLinkScores(t *testing.T) {
	events := map[uint64]string{
		10: "Liquidity weakened in the quarter",
	}
	factors := map[uint64]string{
		20: "working-capital swings", // sentence 1, adjacent to event
		21: "refinancing in 2025",    // sentence 3, too far
	}
	variables := map[uint64]string{
		30: "Liquidity weakened", // sentence 0, same as event
	}

	result := Link(sectionText, events, factors, variables)

	if len(result.EventFactor) != 1 {
		t.Fatalf("expected 1 event-factor link, got %d", len(result.EventFactor))
	}
	if got := result.EventFactor[0]; got.A != 10 || got.B != 20 || got.Score != 0.5 {
		t.Errorf("event-factor link = %+v, want {10 20 0.5}", got)
	}

	if len(result.EventVariable) != 1 {
		t.Fatalf("expected 1 event-variable link, got %d", len(result.EventVariable))
	}
	if got := result.EventVariable[0]; got.Score != 1.0 {
		t.Errorf("same-sentence link score = %v, want 1.0", got.Score)
	}

	// factor 20 (sentence 1) and variable 30 (sentence 0) are adjacent.
	if len(result.FactorVariable) != 1 {
		t.Fatalf("expected 1 factor-variable link, got %d", len(result.FactorVariable))
	}
}

func TestEventLinkCounts(t *testing.T) {
	result := Result{
		EventFactor:   []Pair{{A: 1, B: 2, Score: 1}, {A: 1, B: 3, Score: 0.5}},
		EventVariable: []Pair{{A: 1, B: 4, Score: 1}},
	}

	counts := result.EventLinkCounts()
	if got := counts[1]; got.Factors != 2 || got.Variables != 1 {
		t.Errorf("counts[1] = %+v, want {Factors:2 Variables:1}", got)
	}
	if _, ok := counts[99]; ok {
		t.Error("unexpected counts for unlinked event")
	}
}
