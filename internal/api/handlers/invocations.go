package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cftrigger/internal/logger"
	"cftrigger/internal/storage"
	"cftrigger/internal/storage/models"
)

// History reads recorded invocations
type History interface {
	GetInvocations(ctx context.Context, limit, offset int) ([]models.Invocation, error)
	GetInvocation(ctx context.Context, id string) (*models.Invocation, error)
}

// InvocationHandler serves invocation history
type InvocationHandler struct {
	history History
}

// NewInvocationHandler creates a new InvocationHandler. history may be nil
// when the database is disabled.
func NewInvocationHandler(history History) *InvocationHandler {
	return &InvocationHandler{history: history}
}

// GetInvocations handles GET /api/v1/invocations?limit=&offset=
func (h *InvocationHandler) GetInvocations(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeErrorWithRequestID(w, r, http.StatusServiceUnavailable, "Invocation history is disabled")
		return
	}

	limit := 100
	offset := 0

	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = min(parsed, 1000)
	}
	if parsed, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && parsed >= 0 {
		offset = parsed
	}

	invocations, err := h.history.GetInvocations(r.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to get invocations", "error", err)
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, "Failed to get invocations")
		return
	}
	writeJSON(w, http.StatusOK, invocations)
}

// GetInvocation handles GET /api/v1/invocations/{id}
func (h *InvocationHandler) GetInvocation(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeErrorWithRequestID(w, r, http.StatusServiceUnavailable, "Invocation history is disabled")
		return
	}

	inv, err := h.history.GetInvocation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeErrorWithRequestID(w, r, http.StatusNotFound, "Invocation not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get invocation", "error", err)
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, "Failed to get invocation")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
