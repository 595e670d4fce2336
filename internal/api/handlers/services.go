package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
)

// Codefresh is the remote API surface used outside build runs
type Codefresh interface {
	engine.ServiceLister
	engine.Authenticator
}

// AuthenticatorFactory builds a one-off authenticator for a candidate token
type AuthenticatorFactory func(token string) engine.Authenticator

// ServicesHandler lists services and tests the credential
type ServicesHandler struct {
	codefresh        Codefresh
	expectedUser     string
	newAuthenticator AuthenticatorFactory
}

// NewServicesHandler creates a new ServicesHandler. expectedUser is the
// configured username checked by the connection test, if any. newAuthenticator
// serves connection tests that carry their own token; nil rejects them.
func NewServicesHandler(codefresh Codefresh, expectedUser string, newAuthenticator AuthenticatorFactory) *ServicesHandler {
	return &ServicesHandler{codefresh: codefresh, expectedUser: expectedUser, newAuthenticator: newAuthenticator}
}

// ListServices handles GET /api/v1/services?selected=<name>
func (h *ServicesHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	options, err := engine.ListServices(r.Context(), h.codefresh, r.URL.Query().Get("selected"))
	if err != nil {
		logger.Error("Failed to list services", "error", err)
		writeEngineError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// TestConnectionRequest optionally overrides the username to check and
// the token to test. Without a token the server's credential is tested.
type TestConnectionRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// TestConnection handles POST /api/v1/connection/test. The diagnostic is
// returned with 200 whether or not the credential works.
func (h *ServicesHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	req := TestConnectionRequest{Username: h.expectedUser}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorWithRequestID(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var auth engine.Authenticator = h.codefresh
	if req.Token != "" {
		if h.newAuthenticator == nil {
			writeErrorWithRequestID(w, r, http.StatusBadRequest, "Testing a candidate token is not supported")
			return
		}
		auth = h.newAuthenticator(req.Token)
	}

	diag := engine.TestConnection(r.Context(), auth, req.Username)
	if !diag.OK {
		logger.Warn("Codefresh connection test failed", "message", diag.Message)
	}
	writeJSON(w, http.StatusOK, diag)
}
