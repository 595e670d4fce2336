// Package scm provides source-control collaborators for job resolution.
package scm

import (
	"cftrigger/internal/engine"
)

// Static is a source-control description built from explicit values,
// e.g. command-line flags or an API request body
type Static struct {
	SCMKind     string
	RemoteURLs  []string
	BranchSpecs []string
}

// Git describes a git job with a single remote and branch.
// Empty values are left out so the resolver can report them.
func Git(remote, branch string) Static {
	s := Static{SCMKind: engine.GitKind}
	if remote != "" {
		s.RemoteURLs = []string{remote}
	}
	if branch != "" {
		s.BranchSpecs = []string{branch}
	}
	return s
}

func (s Static) Kind() string       { return s.SCMKind }
func (s Static) Remotes() []string  { return s.RemoteURLs }
func (s Static) Branches() []string { return s.BranchSpecs }

// Unsupported stands in for a job that is not backed by a recognized system
type Unsupported struct {
	Name string
}

func (u Unsupported) Kind() string {
	if u.Name == "" {
		return "none"
	}
	return u.Name
}

func (u Unsupported) Remotes() []string  { return nil }
func (u Unsupported) Branches() []string { return nil }
