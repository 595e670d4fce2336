package models

import (
	"time"
)

// Invocation sources
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// Resolution modes
const (
	ModeExplicit = "explicit"
	ModeGit      = "git"
)

// Invocation is one recorded trigger-and-poll run
type Invocation struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Source     string    `json:"source"`
	APIKey     string    `json:"-"`
	Mode       string    `json:"mode"`
	Target     string    `json:"target"`
	ServiceID  string    `json:"service_id,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	BuildID    string    `json:"build_id,omitempty"`
	ProgressID string    `json:"progress_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Passed     bool      `json:"passed"`
	URL        string    `json:"url,omitempty"`
	Polls      int       `json:"polls"`
	Error      string    `json:"error,omitempty"`
}

// Duration is the wall time of the run
func (i Invocation) Duration() time.Duration {
	if i.FinishedAt.IsZero() {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}
