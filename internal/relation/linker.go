// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package relation

import "strings"

// sentence terminators, covering both Latin and CJK punctuation found in
// rating report exports.
const terminators = ".!?。！？"

// Span is a half-open [Start, End) character range of one sentence.
type Span struct {
	Start int
	End   int
}

// SentenceSpans segments text into coarse sentence spans. Trailing text
// without a terminator forms a final span.
func SentenceSpans(text string) []Span {
	var spans []Span
	last := 0

	for i, r := range text {
		if !strings.ContainsRune(terminators, r) {
			continue
		}
		// A period between digits is a decimal point ($1.2bn, 6.2x),
		// not a sentence boundary.
		if r == '.' && isDecimalPoint(text, i) {
			continue
		}
		end := i + len(string(r))
		// Closing quotes belong to the sentence they terminate.
		for end < len(text) && (text[end] == '"' || text[end] == '\'') {
			end++
		}
		spans = append(spans, Span{Start: last, End: end})
		last = end
	}

	if last < len(text) {
		spans = append(spans, Span{Start: last, End: len(text)})
	}
	return spans
}

func isDecimalPoint(text string, i int) bool {
	return i > 0 && i+1 < len(text) &&
		isDigit(text[i-1]) && isDigit(text[i+1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// sentenceIndexOf returns the index of the span containing pos, clamped to
// the nearest span for out-of-range positions. Returns -1 for empty spans.
func sentenceIndexOf(pos int, spans []Span) int {
	if len(spans) == 0 {
		return -1
	}
	if pos < spans[0].Start {
		return 0
	}
	for i, s := range spans {
		if s.Start <= pos && pos < s.End {
			return i
		}
	}
	return len(spans) - 1
}

// Locate finds the sentence index of an evidence snippet within text.
// Exact match first; falls back to a short anchor prefix when whitespace
// differences break the verbatim match. Returns -1 when unlocatable.
func Locate(text string, spans []Span, evidence string) int {
	evidence = strings.TrimSpace(evidence)
	if evidence == "" {
		return -1
	}

	pos := strings.Index(text, evidence)
	if pos < 0 {
		anchor := evidence
		if len(anchor) > 24 {
			anchor = anchor[:24]
		}
		pos = strings.Index(text, anchor)
	}
	if pos < 0 {
		return -1
	}
	return sentenceIndexOf(pos, spans)
}

// Pair is a positional link between two items with its discrete score.
type Pair struct {
	A     uint64
	B     uint64
	Score float64
}

// Result holds the three link groups for one section text.
type Result struct {
	EventFactor    []Pair
	EventVariable  []Pair
	FactorVariable []Pair
}

// Link computes positional links among the given items. Each map carries
// item id to evidence sentence; items whose evidence cannot be located in
// the text are skipped.
func Link(text string, events, factors, variables map[uint64]string) Result {
	spans := SentenceSpans(text)

	evs := locateAll(text, spans, events)
	fcs := locateAll(text, spans, factors)
	vrs := locateAll(text, spans, variables)

	return Result{
		EventFactor:    linkGroups(evs, fcs),
		EventVariable:  linkGroups(evs, vrs),
		FactorVariable: linkGroups(fcs, vrs),
	}
}

// located is an item resolved to its sentence index.
type located struct {
	id       uint64
	sentence int
}

func locateAll(text string, spans []Span, items map[uint64]string) []located {
	out := make([]located, 0, len(items))
	for id, evidence := range items {
		if idx := Locate(text, spans, evidence); idx >= 0 {
			out = append(out, located{id: id, sentence: idx})
		}
	}
	return out
}

func linkGroups(as, bs []located) []Pair {
	var pairs []Pair
	for _, a := range as {
		for _, b := range bs {
			if score, ok := discreteScore(a.sentence, b.sentence); ok {
				pairs = append(pairs, Pair{A: a.id, B: b.id, Score: score})
			}
		}
	}
	return pairs
}

// discreteScore maps sentence distance to a link score: same sentence 1.0,
// adjacent 0.5, otherwise no link.
func discreteScore(a, b int) (float64, bool) {
	switch d := a - b; {
	case d == 0:
		return 1.0, true
	case d == 1 || d == -1:
		return 0.5, true
	default:
		return 0, false
	}
}

// EventLinkCounts summarizes, per event, how many factors and variables link
// to it. The engine converts presence into a ranking bonus.
func (r *Result) EventLinkCounts() map[uint64]LinkCounts {
	counts := make(map[uint64]LinkCounts)
	for _, p := range r.EventFactor {
		c := counts[p.A]
		c.Factors++
		counts[p.A] = c
	}
	for _, p := range r.EventVariable {
		c := counts[p.A]
		c.Variables++
		counts[p.A] = c
	}
	return counts
}

// LinkCounts tallies links from one event to factors and variables.
type LinkCounts struct {
	Factors   int
	Variables int
}
