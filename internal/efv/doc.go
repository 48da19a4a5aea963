// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package efv defines the domain types shared across the recommendation core:
// the EFV item (an extracted Event, Factor, or Variable), the report it was
// extracted from, and the text-normalization rules used for deduplication.
//
// Items arrive from the extraction pipeline as untrusted, already-structured
// input. This package performs no extraction and no I/O; it only defines the
// shapes and the canonical forms the rest of the system agrees on.
package efv
