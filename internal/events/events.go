// Package events publishes build outcomes to a Kafka-compatible broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"cftrigger/internal/config"
)

// Event describes one finished trigger-and-poll run
type Event struct {
	InvocationID string    `json:"invocation_id"`
	Source       string    `json:"source"`
	ServiceID    string    `json:"service_id,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	BuildID      string    `json:"build_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	Passed       bool      `json:"passed"`
	URL          string    `json:"url,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	Label        string    `json:"label,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Key partitions events by service so a service's outcomes stay ordered
func (e Event) Key() string {
	if e.ServiceID != "" {
		return e.ServiceID
	}
	return e.InvocationID
}

// Encode returns the wire form of the event
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers outcome events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured, otherwise a no-op
func New(cfg config.EventsConfig) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
