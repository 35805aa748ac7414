// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/viewgate/viewgate/internal/log"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, errorBody{
		Error:     kind,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeBadRequest writes a 400 with a machine-readable validation detail
func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeErrorBody(w, r, http.StatusBadRequest, "invalid_request", detail)
}

// writeUnauthorized writes a 401 Unauthorized response
func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, r, http.StatusUnauthorized, "unauthorized", "")
}

// writeNotFound writes a 404 Not Found response. Hidden and missing
// channels share this path deliberately.
func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, r, http.StatusNotFound, "not_found", "")
}

// writeTooManyRequests writes a 429 response
func writeTooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "")
}

// writeInternalError writes a 500 without leaking the underlying error
func writeInternalError(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, r, http.StatusInternalServerError, "internal_error", "")
}
