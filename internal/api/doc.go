// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package api exposes the recommendation service over HTTP using the chi
// router. Reports and candidates come in, ranked recommendations go out;
// Prometheus metrics and health probes ride alongside.
package api
