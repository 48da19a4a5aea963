// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package recommend fuses company-scoped and industry-wide relevance into
// ranked EFV recommendation lists. The engine is stateless per request and
// reads the corpus through snapshot queries, so any number of requests may
// run concurrently with ingestion.
package recommend
