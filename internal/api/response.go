// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderboard/internal/logging"
)

// APIResponse is the JSON envelope of the health endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError is a machine-readable error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta carries request tracing data.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes for API responses
const (
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstream           = "EXTERNAL_SERVICE_FAILED"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	resp.Meta = &APIMeta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, &APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// respondEmpty writes a status with no body. The webhook contract never
// carries a body.
func respondEmpty(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}
