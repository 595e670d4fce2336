package main

import (
	"errors"

	"cftrigger/internal/codefresh"
	"cftrigger/internal/config"
	"cftrigger/internal/engine"
	"cftrigger/internal/events"
	"cftrigger/internal/logger"
	"cftrigger/internal/storage"
	"cftrigger/internal/trigger"
)

// stack is the set of long-lived components shared by run and serve
type stack struct {
	client    *codefresh.Client
	store     *storage.Store // nil when history is disabled
	publisher events.Publisher
	runner    *trigger.Runner
}

func newStack(cfg *config.Config) (*stack, error) {
	s := &stack{client: codefresh.NewClient(cfg.Codefresh)}

	store, err := storage.Open(cfg.Database)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Debug("Invocation history disabled")
	case err != nil:
		return nil, err
	default:
		s.store = store
	}

	publisher, err := events.New(cfg.Events)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.publisher = publisher

	orchestrator := engine.NewOrchestrator(s.client, engine.WithLogger(logger.With("component", "orchestrator")))
	if s.store != nil {
		s.runner = trigger.NewRunner(orchestrator, s.store, s.publisher)
	} else {
		s.runner = trigger.NewRunner(orchestrator, nil, s.publisher)
	}
	return s, nil
}

// Close releases the database and broker connections
func (s *stack) Close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Error("Failed to close database connection", "error", err)
		}
	}
}
