// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/metrics"
)

// requestLogging records one structured log line and the Prometheus request
// metrics per completed request.
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			took := time.Since(start)
			metrics.RecordAPIRequest(r.Method, r.URL.Path, ww.Status(), took)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", took).
				Msg("request")
		})
	}
}
