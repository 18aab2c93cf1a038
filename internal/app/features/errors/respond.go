// internal/app/features/errors/respond.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Error codes carried in the "error" field of every error body.
const (
	CodeBadRequest      = "invalid_input"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeRateLimited     = "rate_limited"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal_error"
)

// ErrorResponse is the JSON error shape returned by every endpoint.
// Retry tells the client the request may succeed if sent again unchanged.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

// WriteJSON sends data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("encode JSON response failed", zap.Error(err))
	}
}

// WriteError sends an ErrorResponse.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// BadRequest sends 400.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, msg)
}

// Unauthenticated sends 401.
func Unauthenticated(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthenticated, "Sign in to continue.")
}

// Forbidden sends 403.
func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "You do not have access to this resource."
	}
	WriteError(w, http.StatusForbidden, CodeForbidden, msg)
}

// NotFound sends 404.
func NotFound(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, msg)
}

// Conflict sends 409.
func Conflict(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusConflict, CodeConflict, msg)
}

// RateLimited sends 429.
func RateLimited(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: CodeRateLimited, Message: msg, Retry: true})
}
