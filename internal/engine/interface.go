package engine

import "context"

// GitKind is the only source-control kind the resolver understands
const GitKind = "git"

// ServiceLister enumerates services visible to a credential
type ServiceLister interface {
	ListServices(ctx context.Context) ([]Service, error)
}

// Authenticator validates a credential and reports its owner
type Authenticator interface {
	AuthenticateUser(ctx context.Context) (string, error)
}

// ServiceLookup maps a job identity to a service id. An empty id with a nil
// error means no service matched.
type ServiceLookup interface {
	ResolveServiceIDByPath(ctx context.Context, path string) (ServiceID, error)
	ResolveServiceIDByName(ctx context.Context, name string) (ServiceID, error)
}

// RemoteAPI is the remote build service surface the orchestrator drives.
// Implementations must not retry internally.
type RemoteAPI interface {
	ServiceLookup

	// StartBuild triggers a build; an empty branch means the service default
	StartBuild(ctx context.Context, id ServiceID, branch string) (BuildHandle, error)

	// FetchProgressHandle returns the progress feed of a build
	FetchProgressHandle(ctx context.Context, build BuildHandle) (ProgressHandle, error)

	// FetchStatus returns the current status of a progress feed
	FetchStatus(ctx context.Context, progress ProgressHandle) (BuildStatus, error)

	// FetchProgressURL returns the build page for a progress feed
	FetchProgressURL(ctx context.Context, progress ProgressHandle) (ProgressURL, error)
}

// SourceControl describes the repository backing a job
type SourceControl interface {
	// Kind names the source-control system, e.g. "git"
	Kind() string
	// Remotes returns the configured remote repository URLs
	Remotes() []string
	// Branches returns the configured branch specs, e.g. "*/main"
	Branches() []string
}
