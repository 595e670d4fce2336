package engine

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrResolution  = errors.New("service resolution failed")
	ErrConnection  = errors.New("connection error")
	ErrInterrupted = errors.New("build wait interrupted")
)

// ResolutionReason tells why a service could not be resolved
type ResolutionReason string

const (
	ReasonUnsupportedSCM  ResolutionReason = "unsupported source control"
	ReasonServiceNotFound ResolutionReason = "service not found"
)

// ResolutionError is returned when no build can be started for the job
type ResolutionError struct {
	Reason ResolutionReason
	Target string // service name, repository path or SCM kind
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := string(e.Reason)
	if e.Target != "" {
		msg += ": " + e.Target
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// ConnectionError wraps any transport or HTTP failure of the remote API
type ConnectionError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %v (HTTP %d)", e.Op, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// Unauthorized reports whether the remote rejected the credential
func (e *ConnectionError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// InterruptionError is returned when the wait loop observes cancellation
type InterruptionError struct {
	Polls int
	Err   error
}

func (e *InterruptionError) Error() string {
	return fmt.Sprintf("build wait interrupted after %d polls: %v", e.Polls, e.Err)
}

func (e *InterruptionError) Unwrap() error { return e.Err }

func (e *InterruptionError) Is(target error) bool { return target == ErrInterrupted }

// Hint returns a short remediation for an invocation error, or "".
func Hint(err error) string {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		switch resErr.Reason {
		case ReasonUnsupportedSCM:
			return "Only jobs backed by a single git remote and branch can be resolved by path. Set an explicit service name, or pass the repository URL and branch (--git-url/--git-branch, or repository_url/git_branch). A detached checkout needs --git-branch."
		case ReasonServiceNotFound:
			return "Check that a Codefresh service exists for this repository or name and is visible to your token."
		}
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		if connErr.Unauthorized() {
			return "Check that your Codefresh API token is valid (CFTRIGGER_CODEFRESH_TOKEN)."
		}
		return "Check your internet connection and the codefresh.url setting."
	}
	return ""
}
