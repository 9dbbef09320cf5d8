// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the body of a successful registration change
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{Detail: message}, statusCode)
}
