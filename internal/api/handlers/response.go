package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cftrigger/internal/api/middleware"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
)

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

// writeErrorWithRequestID writes a standardized error response with optional request ID
func writeErrorWithRequestID(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeErrorResponse(w, r, status, map[string]any{"error": message})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, response map[string]any) {
	response["status"] = http.StatusText(status)

	// Request ID comes from the context, not the header
	if r != nil {
		if requestID := middleware.GetRequestID(r); requestID != "" {
			response["request_id"] = requestID
		}
	}

	writeJSON(w, status, response)
}

// statusForError maps invocation errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, engine.ErrResolution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrInterrupted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes an invocation error with its remediation hint
func writeEngineError(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	response := map[string]any{"error": err.Error()}
	if hint := engine.Hint(err); hint != "" {
		response["hint"] = hint
	}
	for k, v := range extra {
		response[k] = v
	}
	writeErrorResponse(w, r, statusForError(err), response)
}
