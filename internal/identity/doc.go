// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package identity generates snowflake-style 64-bit identifiers for EFV items
// and report records.
//
// Layout: 41 bits of milliseconds since 2020-01-01 UTC, 10 bits of node
// identity (5-bit datacenter + 5-bit worker), 12 bits of per-millisecond
// sequence. Identifiers from one generator are strictly increasing; downstream
// ranking relies on that for recency and insertion-order tie-breaks, so a
// backwards system clock surfaces as ErrClockRollback instead of a
// non-monotonic id.
package identity
