// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package logging provides centralized zerolog-based logging.
//
// The global logger is initialized with sane defaults at import time and
// reconfigured from application config via Init. Components derive child
// loggers with Component, so every line carries a component field:
//
//	logger := logging.Component("recommend")
//	logger.Info().Str("company", name).Msg("request complete")
//
// A slog.Handler adapter is provided for libraries that speak log/slog
// (the supervision tree's sutureslog handler), so those lines end up in the
// same zerolog stream as everything else.
package logging
