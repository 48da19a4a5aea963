// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package relation links events, factors, and variables that co-occur in a
// section text by sentence position: evidence in the same sentence links with
// score 1.0, adjacent sentences 0.5, anything further apart is unlinked.
//
// The engine uses these links as a structural bonus on event rankings: an
// event whose evidence sits next to a quantified variable or a named factor
// is better supported than one standing alone.
package relation
