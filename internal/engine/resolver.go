package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Resolution is the service a job maps to and the branch to build
type Resolution struct {
	ServiceID ServiceID
	Branch    string
	// Target is the service name or repository path used for the lookup
	Target string
}

// Resolver turns a JobContext into a ServiceID
type Resolver struct {
	lookup ServiceLookup
	log    *slog.Logger
}

// NewResolver creates a resolver backed by the given lookup
func NewResolver(lookup ServiceLookup, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{lookup: lookup, log: log}
}

// Resolve picks name or path lookup for the job and returns the service to build.
// Lookup failures are returned unchanged; an empty result is a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, job JobContext) (*Resolution, error) {
	if job.Explicit() {
		id, err := r.lookup.ResolveServiceIDByName(ctx, job.ServiceName)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, &ResolutionError{Reason: ReasonServiceNotFound, Target: job.ServiceName}
		}
		r.log.Debug("Resolved service by name", "service", job.ServiceName, "service_id", id)
		return &Resolution{ServiceID: id, Branch: job.Branch, Target: job.ServiceName}, nil
	}

	path, branch, err := gitIdentity(job.Source)
	if err != nil {
		return nil, err
	}

	id, err := r.lookup.ResolveServiceIDByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, &ResolutionError{Reason: ReasonServiceNotFound, Target: path}
	}
	r.log.Debug("Resolved service by repository path", "path", path, "service_id", id, "branch", branch)
	return &Resolution{ServiceID: id, Branch: branch, Target: path}, nil
}

// gitIdentity extracts the repository path and active branch without any remote call
func gitIdentity(src SourceControl) (string, string, error) {
	if src == nil {
		return "", "", &ResolutionError{Reason: ReasonUnsupportedSCM, Target: "none"}
	}
	if src.Kind() != GitKind {
		return "", "", &ResolutionError{Reason: ReasonUnsupportedSCM, Target: src.Kind()}
	}

	remotes := src.Remotes()
	if len(remotes) != 1 {
		return "", "", &ResolutionError{
			Reason: ReasonUnsupportedSCM,
			Target: GitKind,
			Err:    fmt.Errorf("expected exactly one remote, got %d", len(remotes)),
		}
	}
	branches := src.Branches()
	if len(branches) != 1 {
		return "", "", &ResolutionError{
			Reason: ReasonUnsupportedSCM,
			Target: GitKind,
			Err:    fmt.Errorf("expected exactly one branch, got %d", len(branches)),
		}
	}

	path, err := RemotePath(remotes[0])
	if err != nil {
		return "", "", &ResolutionError{Reason: ReasonUnsupportedSCM, Target: GitKind, Err: err}
	}
	return path, StripTrackingPrefix(branches[0]), nil
}

// StripTrackingPrefix removes one leading "*/" from a branch spec
func StripTrackingPrefix(branch string) string {
	return strings.TrimPrefix(branch, "*/")
}

// RemotePath returns the path component of a git remote URL, dropping
// protocol, credentials and host. Supported forms: scheme://host/path,
// scp-like user@host:path and plain filesystem paths.
func RemotePath(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", fmt.Errorf("empty remote url")
	}

	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("invalid remote url %q: %w", remote, err)
		}
		if u.Path == "" || u.Path == "/" {
			return "", fmt.Errorf("remote url %q has no path", remote)
		}
		return u.Path, nil
	}

	// scp-like syntax: the colon must come before any slash
	if i := strings.Index(remote, ":"); i > 0 && !strings.Contains(remote[:i], "/") {
		path := remote[i+1:]
		if path == "" {
			return "", fmt.Errorf("remote url %q has no path", remote)
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return path, nil
	}

	return remote, nil
}
