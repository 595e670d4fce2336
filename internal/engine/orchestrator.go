package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultPollInterval is the fixed delay between status polls
const DefaultPollInterval = 5 * time.Second

// Waiter blocks for d or until ctx is done, returning ctx.Err() in the latter case
type Waiter func(ctx context.Context, d time.Duration) error

// Sleep is the production Waiter
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Orchestrator runs one resolve, trigger, poll and classify cycle per call.
// It holds no per-invocation state and may be reused sequentially.
type Orchestrator struct {
	api      RemoteAPI
	resolver *Resolver
	interval time.Duration
	wait     Waiter
	log      *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPollInterval overrides DefaultPollInterval
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.interval = d }
}

// WithWaiter replaces the blocking wait between polls
func WithWaiter(w Waiter) Option {
	return func(o *Orchestrator) { o.wait = w }
}

// WithLogger sets the logger used for progress lines
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates an orchestrator driving the given remote API
func NewOrchestrator(api RemoteAPI, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:      api,
		interval: DefaultPollInterval,
		wait:     Sleep,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.resolver = NewResolver(api, o.log)
	return o
}

// Run triggers a build for the job and blocks until it reaches a terminal status.
//
// Resolution, connection and interruption failures return a non-nil error and an
// Outcome without a badge. A terminal status always returns a nil error; the
// verdict is in Outcome.Passed.
func (o *Orchestrator) Run(ctx context.Context, job JobContext) (*Outcome, error) {
	out := &Outcome{}

	res, err := o.resolver.Resolve(ctx, job)
	if err != nil {
		return o.fail(ctx, out, err)
	}
	out.ServiceID = res.ServiceID
	out.Branch = res.Branch

	o.log.Info("Triggering Codefresh build", "service", res.Target, "service_id", res.ServiceID, "branch", res.Branch)

	build, err := o.api.StartBuild(ctx, res.ServiceID, res.Branch)
	if err != nil {
		return o.fail(ctx, out, err)
	}
	out.BuildID = build

	progress, err := o.api.FetchProgressHandle(ctx, build)
	if err != nil {
		return o.fail(ctx, out, err)
	}
	out.ProgressID = progress

	status, err := o.api.FetchStatus(ctx, progress)
	if err != nil {
		return o.fail(ctx, out, err)
	}
	out.Polls = 1

	var url ProgressURL
	urlFetched := false
	progressURL := func() (ProgressURL, error) {
		if urlFetched {
			return url, nil
		}
		u, err := o.api.FetchProgressURL(ctx, progress)
		if err != nil {
			return "", err
		}
		url, urlFetched = u, true
		return url, nil
	}

	for !status.Terminal() {
		if err := ctx.Err(); err != nil {
			return o.fail(ctx, out, err)
		}

		u, err := progressURL()
		if err != nil {
			return o.fail(ctx, out, err)
		}
		o.log.Info("Codefresh build running", "url", u, "wait", o.interval.String(), "polls", out.Polls)

		if err := o.wait(ctx, o.interval); err != nil {
			return o.fail(ctx, out, err)
		}

		status, err = o.api.FetchStatus(ctx, progress)
		if err != nil {
			return o.fail(ctx, out, err)
		}
		out.Polls++
	}

	u, err := progressURL()
	if err != nil {
		return o.fail(ctx, out, err)
	}

	verdict := Classify(status)
	out.Status = status.Raw
	out.Passed = verdict.Passed
	out.Badge = NewBadge(u, status)
	out.Message = verdict.Message

	if verdict.Passed {
		o.log.Info(verdict.Message, "url", u, "build_id", build)
	} else {
		o.log.Warn(verdict.Message, "status", status.Raw, "url", u, "build_id", build)
	}
	return out, nil
}

// fail ends the invocation with a failed verdict and no badge. Any failure
// observed after the context is done is reported as an interruption.
func (o *Orchestrator) fail(ctx context.Context, out *Outcome, err error) (*Outcome, error) {
	var intErr *InterruptionError
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.As(err, &intErr) {
		err = &InterruptionError{Polls: out.Polls, Err: ctxErr}
	}
	out.Passed = false
	out.Badge = nil
	out.Message = err.Error()
	o.log.Error("Codefresh build invocation failed", "error", err, "service_id", out.ServiceID, "build_id", out.BuildID)
	return out, err
}
