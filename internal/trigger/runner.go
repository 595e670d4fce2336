// Package trigger runs build invocations on behalf of the CLI and the HTTP API.
package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cftrigger/internal/engine"
	"cftrigger/internal/events"
	"cftrigger/internal/logger"
	"cftrigger/internal/storage/models"
)

// recordTimeout bounds history writes and event publishing after a run,
// which continue even when the run itself was cancelled
const recordTimeout = 10 * time.Second

// Recorder persists finished invocations
type Recorder interface {
	InsertInvocation(ctx context.Context, inv models.Invocation) error
}

// Request is one invocation to run
type Request struct {
	Job    engine.JobContext
	Source string // models.SourceCLI or models.SourceAPI
	APIKey string
}

// Result is a finished invocation
type Result struct {
	InvocationID string          `json:"invocation_id"`
	Outcome      *engine.Outcome `json:"outcome"`
}

// Runner wraps an orchestrator with history and event publishing
type Runner struct {
	orchestrator *engine.Orchestrator
	recorder     Recorder
	publisher    events.Publisher
	log          *slog.Logger
	now          func() time.Time
}

// NewRunner creates a runner. recorder may be nil when history is disabled.
func NewRunner(orchestrator *engine.Orchestrator, recorder Recorder, publisher events.Publisher) *Runner {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Runner{
		orchestrator: orchestrator,
		recorder:     recorder,
		publisher:    publisher,
		log:          logger.With("component", "trigger"),
		now:          time.Now,
	}
}

// Run executes the invocation and records it. The returned error is the
// orchestrator's; recording and publishing failures are only logged.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	id := uuid.NewString()
	started := r.now()

	r.log.Info("Invocation started", "invocation_id", id, "source", req.Source, "target", target(req.Job))
	outcome, runErr := r.orchestrator.Run(ctx, req.Job)
	finished := r.now()

	inv := newInvocation(id, req, outcome, runErr)
	inv.StartedAt = started
	inv.FinishedAt = finished

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if r.recorder != nil {
		if err := r.recorder.InsertInvocation(recordCtx, inv); err != nil {
			r.log.Error("Failed to record invocation", "invocation_id", id, "error", err)
		}
	}

	if err := r.publisher.Publish(recordCtx, newEvent(inv, outcome)); err != nil {
		r.log.Error("Failed to publish outcome event", "invocation_id", id, "error", err)
	}

	r.log.Info("Invocation finished", "invocation_id", id, "passed", inv.Passed, "duration", inv.Duration().String())
	return &Result{InvocationID: id, Outcome: outcome}, runErr
}

func newInvocation(id string, req Request, outcome *engine.Outcome, runErr error) models.Invocation {
	inv := models.Invocation{
		ID:     id,
		Source: req.Source,
		APIKey: req.APIKey,
		Mode:   models.ModeGit,
		Target: target(req.Job),
	}
	if req.Job.Explicit() {
		inv.Mode = models.ModeExplicit
	}

	if outcome != nil {
		inv.ServiceID = string(outcome.ServiceID)
		inv.Branch = outcome.Branch
		inv.BuildID = string(outcome.BuildID)
		inv.ProgressID = string(outcome.ProgressID)
		inv.Status = outcome.Status
		inv.Passed = outcome.Passed
		inv.Polls = outcome.Polls
		if outcome.Badge != nil {
			inv.URL = string(outcome.Badge.URL)
		}
	}
	if runErr != nil {
		inv.Passed = false
		inv.Error = runErr.Error()
	}
	return inv
}

func newEvent(inv models.Invocation, outcome *engine.Outcome) events.Event {
	event := events.Event{
		InvocationID: inv.ID,
		Source:       inv.Source,
		ServiceID:    inv.ServiceID,
		Branch:       inv.Branch,
		BuildID:      inv.BuildID,
		Status:       inv.Status,
		Passed:       inv.Passed,
		URL:          inv.URL,
		Error:        inv.Error,
		StartedAt:    inv.StartedAt,
		FinishedAt:   inv.FinishedAt,
	}
	if outcome != nil && outcome.Badge != nil {
		event.Icon = string(outcome.Badge.Icon)
		event.Label = outcome.Badge.Label
	}
	return event
}

// target names what the job resolves against: the service name or the git remote
func target(job engine.JobContext) string {
	if job.Explicit() {
		return job.ServiceName
	}
	if job.Source == nil {
		return ""
	}
	if remotes := job.Source.Remotes(); len(remotes) > 0 {
		return remotes[0]
	}
	return job.Source.Kind()
}
