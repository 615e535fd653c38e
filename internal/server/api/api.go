// Package api provides the JSON HTTP handlers for the glove, speech, chat
// and conversation endpoints.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/speakle/speakle/internal/app"
)

// Error messages shared by several handlers.
const (
	msgMissingAPIKey    = "Server configuration error: Missing API Key"
	msgSpeechFailed     = "Failed to generate speech"
	msgInvalidFormat    = "Invalid data format"
	msgMethodNotAllowed = "Method not allowed"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErrorDetails writes a JSON error response carrying the cause.
func writeErrorDetails(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, errorResponse{Error: message, Details: err.Error()})
}

// writeServiceError maps app errors onto responses. fallback is the message
// used for upstream failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, msgMissingAPIKey)
	default:
		writeErrorDetails(w, http.StatusInternalServerError, fallback, err)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// decodeJSON decodes a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// parseLimit reads ?limit=N, returning 0 when absent or invalid.
func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
