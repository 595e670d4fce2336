package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cftrigger/internal/api/middleware"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
	"cftrigger/internal/scm"
	"cftrigger/internal/storage/models"
	"cftrigger/internal/trigger"
)

const maxFieldLength = 255

// Runner executes a trigger invocation
type Runner interface {
	Run(ctx context.Context, req trigger.Request) (*trigger.Result, error)
}

// CodefreshHandler handles build trigger requests
type CodefreshHandler struct {
	runner Runner
}

// NewCodefreshHandler creates a new CodefreshHandler instance
func NewCodefreshHandler(runner Runner) *CodefreshHandler {
	return &CodefreshHandler{runner: runner}
}

// TriggerCodefreshBuildRequest is the body of POST /api/v1/trigger/codefresh.
// Service selects name lookup; otherwise RepositoryURL and GitBranch describe the git job.
type TriggerCodefreshBuildRequest struct {
	Service       string `json:"service"`
	Branch        string `json:"branch"`
	RepositoryURL string `json:"repository_url"`
	GitBranch     string `json:"git_branch"`
}

// Job converts the request into the engine's job identity
func (req TriggerCodefreshBuildRequest) Job() engine.JobContext {
	if req.Service != "" {
		return engine.JobContext{ServiceName: req.Service, Branch: req.Branch}
	}
	return engine.JobContext{Source: scm.Git(req.RepositoryURL, req.GitBranch)}
}

func (req TriggerCodefreshBuildRequest) validate() string {
	req.Service = strings.TrimSpace(req.Service)
	if req.Service == "" && strings.TrimSpace(req.RepositoryURL) == "" {
		return "Either service or repository_url is required"
	}
	for name, value := range map[string]string{
		"service":        req.Service,
		"branch":         req.Branch,
		"repository_url": req.RepositoryURL,
		"git_branch":     req.GitBranch,
	} {
		if len(value) > maxFieldLength {
			return name + " exceeds maximum length of 255 characters"
		}
	}
	return ""
}

// TriggerCodefreshBuild handles POST /api/v1/trigger/codefresh. It blocks until
// the build reaches a terminal status or the client goes away.
func (h *CodefreshHandler) TriggerCodefreshBuild(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	var req TriggerCodefreshBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to parse request body", "error", err, "request_id", requestID)
		writeErrorWithRequestID(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Service = strings.TrimSpace(req.Service)

	if msg := req.validate(); msg != "" {
		logger.Warn("Invalid trigger request", "reason", msg, "request_id", requestID)
		writeErrorWithRequestID(w, r, http.StatusBadRequest, msg)
		return
	}

	result, err := h.runner.Run(r.Context(), trigger.Request{
		Job:    req.Job(),
		Source: models.SourceAPI,
		APIKey: middleware.APIKeyFromContext(r.Context()),
	})
	if err != nil {
		logger.Error("Codefresh build invocation failed", "error", err, "request_id", requestID)
		extra := map[string]any{}
		if result != nil {
			extra["invocation_id"] = result.InvocationID
			extra["outcome"] = result.Outcome
		}
		writeEngineError(w, r, err, extra)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
