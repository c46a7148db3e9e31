// SPDX-License-Identifier: AGPL-3.0-or-later
// SPDX-FileCopyrightText: 2025 OpenCloudMesh Authors

// Package api provides common HTTP API utilities for the bridge endpoints.
package api

import (
	"encoding/json"
	"net/http"
)

// Deterministic reason codes for stable error classification.
// These codes should remain stable across versions for host UI compatibility.
const (
	// Authentication
	ReasonUnauthenticated = "unauthenticated"
	ReasonInvalidToken    = "invalid_token"

	// Request validation
	ReasonBadRequest       = "bad_request"
	ReasonMissingField     = "missing_field"
	ReasonInvalidField     = "invalid_field"
	ReasonInvalidURI       = "invalid_uri"
	ReasonBodyTooLarge     = "body_too_large"
	ReasonNotFound         = "not_found"
	ReasonMethodNotAllowed = "method_not_allowed"

	// Server errors
	ReasonInternalError  = "internal_error"
	ReasonNotImplemented = "not_implemented"
	ReasonReadOnly       = "read_only"
)

// ErrorEnvelope is the standard error response format.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code       string `json:"code"`        // HTTP status text
	ReasonCode string `json:"reason_code"` // Deterministic reason code
	Message    string `json:"message"`     // Human-readable message
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, reasonCode, message string) {
	WriteJSON(w, statusCode, ErrorEnvelope{
		Error: ErrorDetail{
			Code:       http.StatusText(statusCode),
			ReasonCode: reasonCode,
			Message:    message,
		},
	})
}

// WriteUnauthorized writes a 401 Unauthorized error with a Bearer challenge.
func WriteUnauthorized(w http.ResponseWriter, reasonCode, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="shareintake"`)
	WriteError(w, http.StatusUnauthorized, reasonCode, message)
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ReasonNotFound, message)
}

// WriteBadRequest writes a 400 Bad Request error.
func WriteBadRequest(w http.ResponseWriter, reasonCode, message string) {
	WriteError(w, http.StatusBadRequest, reasonCode, message)
}

// WriteInternalError writes a 500 Internal Server Error.
// Be careful not to leak sensitive information in the message.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ReasonInternalError, message)
}

// WriteNotImplemented writes a 404 for an unknown channel method, matching
// the host UI's "method not implemented" contract.
func WriteNotImplemented(w http.ResponseWriter, method string) {
	WriteError(w, http.StatusNotFound, ReasonNotImplemented, "method "+method+" not implemented")
}

// WriteReadOnly writes a 501 for write methods on read-only resources.
func WriteReadOnly(w http.ResponseWriter, method string) {
	WriteError(w, http.StatusNotImplemented, ReasonReadOnly, method+" is not supported on a read-only view")
}
