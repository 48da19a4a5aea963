// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rvense/efvcompass/internal/logging"
)

// APIError is the error envelope returned to callers.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes returned by the API.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := logging.Component("api")
		logger.Error().Err(err).Msg("encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	respondJSON(w, status, map[string]*APIError{
		"error": {Code: code, Message: message, Details: details},
	})
}
