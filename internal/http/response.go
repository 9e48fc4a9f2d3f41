package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// statusClientClosed is the non-standard status for a request the client
// gave up on before it was answered.
const statusClientClosed = 499

// APIResponse is the envelope every API endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidCategory,
	core.ErrInvalidType,
	core.ErrInvalidDate,
	core.ErrDescriptionTooLong,
	analytics.ErrInvalidSort,
	errInvalidRequest,
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err, "status_code", status)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// statusFor maps service errors onto HTTP statuses. Storage details are
// never echoed to the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrEmptyUser):
		return http.StatusUnauthorized, "missing " + HeaderUserID + " header"
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	case errors.Is(err, context.Canceled):
		return statusClientClosed, "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}
