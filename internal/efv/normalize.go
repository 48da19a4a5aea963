// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package efv

import (
	"strings"
	"unicode"
)

// NormalizeText produces the canonical form of extracted text used for
// deduplication: lowercased, punctuation replaced by spaces, whitespace
// collapsed. Deterministic; identical input always yields identical output.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		// Punctuation and whitespace both collapse to a single separator.
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokenize splits text into normalized tokens for lexical comparison.
// Plural suffixes are trimmed so "liabilities"/"liability"-style variants
// still overlap without a full stemmer.
func Tokenize(s string) []string {
	fields := strings.Fields(NormalizeText(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, lightStem(f))
	}
	return tokens
}

// lightStem trims common English plural suffixes. Intentionally conservative:
// short tokens and non-plural forms pass through unchanged.
func lightStem(tok string) string {
	switch {
	case len(tok) > 4 && strings.HasSuffix(tok, "ies"):
		return tok[:len(tok)-3] + "y"
	case len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss"):
		return tok[:len(tok)-1]
	default:
		return tok
	}
}
