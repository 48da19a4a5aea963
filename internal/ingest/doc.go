// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package ingest moves extracted EFV candidates from the extraction pipeline
// into the corpus. Candidates travel over a Watermill in-process pub/sub bus
// with retry and poison-queue middleware; the sink stamps each accepted
// candidate with a snowflake ID, persists it, and merges it into the index.
package ingest
