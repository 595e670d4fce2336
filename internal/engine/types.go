package engine

// ServiceID identifies a triggerable Codefresh service
type ServiceID string

// BuildHandle identifies one build execution returned by StartBuild
type BuildHandle string

// ProgressHandle identifies the pollable progress feed of a build
type ProgressHandle string

// ProgressURL points to the human-viewable build page
type ProgressURL string

// StatusKind is the classified form of a remote build status
type StatusKind int

const (
	// StatusUnclassified covers any status string the engine does not recognize
	StatusUnclassified StatusKind = iota
	StatusRunning
	StatusSuccess
	StatusError
)

// String returns the canonical name of the kind
func (k StatusKind) String() string {
	switch k {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unclassified"
	}
}

// BuildStatus is a status value reported by the remote service.
// Raw always holds the string the service returned.
type BuildStatus struct {
	Kind StatusKind
	Raw  string
}

// ParseStatus classifies a raw status string. Matching is exact.
func ParseStatus(raw string) BuildStatus {
	status := BuildStatus{Raw: raw}
	switch raw {
	case "running":
		status.Kind = StatusRunning
	case "success":
		status.Kind = StatusSuccess
	case "error":
		status.Kind = StatusError
	default:
		status.Kind = StatusUnclassified
	}
	return status
}

// Terminal reports whether polling should stop
func (s BuildStatus) Terminal() bool {
	return s.Kind != StatusRunning
}

func (s BuildStatus) String() string {
	return s.Raw
}

// Service is a service visible to the configured credential
type Service struct {
	ID        ServiceID `json:"id"`
	Name      string    `json:"name"`
	RepoOwner string    `json:"repo_owner,omitempty"`
	RepoName  string    `json:"repo_name,omitempty"`
}

// JobContext carries the identity of the calling job.
// A non-empty ServiceName selects name lookup and Source is ignored.
type JobContext struct {
	ServiceName string
	Branch      string
	Source      SourceControl
}

// Explicit reports whether the job names its service explicitly
func (j JobContext) Explicit() bool {
	return j.ServiceName != ""
}

// Outcome is the result of one trigger invocation
type Outcome struct {
	Passed     bool           `json:"passed"`
	Status     string         `json:"status,omitempty"`
	Badge      *Badge         `json:"badge,omitempty"`
	ServiceID  ServiceID      `json:"service_id,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	BuildID    BuildHandle    `json:"build_id,omitempty"`
	ProgressID ProgressHandle `json:"progress_id,omitempty"`
	Polls      int            `json:"polls"`
	Message    string         `json:"message"`
}
