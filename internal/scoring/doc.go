// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package scoring computes the relevance of a candidate evidence sentence
// against a query context (the target report section text).
//
// The score is a weighted sum of three normalized sub-signals: lexical
// token-set overlap, cosine similarity over externally-produced embedding
// vectors, and exponential recency decay over report-year distance. Weights
// come from configuration and are normalized at construction. A missing
// sub-signal (no embedding available, empty context) redistributes its weight
// proportionally across the remaining signals instead of failing the score.
//
// Scoring is deterministic: identical inputs always yield the identical
// value, which the engine relies on for reproducible rankings.
package scoring
