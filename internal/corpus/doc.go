// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package corpus holds the ingested EFV corpus: deduplicated logical items
// with their per-report occurrences, plus the registered source reports.
// The in-memory index answers all read queries; the BadgerDB store gives
// the corpus durability across restarts.
package corpus
