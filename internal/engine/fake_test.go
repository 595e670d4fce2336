package engine

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// fakeAPI is a scripted RemoteAPI that records every call
type fakeAPI struct {
	byName map[string]ServiceID
	byPath map[string]ServiceID

	lookupErr   error
	startErr    error
	progressErr error
	statusErr   error
	urlErr      error

	statuses []string
	build    BuildHandle
	progress ProgressHandle
	url      ProgressURL

	nameCalls     []string
	pathCalls     []string
	startCalls    int
	startBranch   string
	progressCalls int
	statusCalls   []ProgressHandle
	urlCalls      int
}

func newFakeAPI(statuses ...string) *fakeAPI {
	return &fakeAPI{
		byName:   map[string]ServiceID{},
		byPath:   map[string]ServiceID{},
		statuses: statuses,
		build:    "b-1",
		progress: "p-1",
		url:      "https://g.codefresh.io/process/p-1",
	}
}

func (f *fakeAPI) ResolveServiceIDByName(ctx context.Context, name string) (ServiceID, error) {
	f.nameCalls = append(f.nameCalls, name)
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.byName[name], nil
}

func (f *fakeAPI) ResolveServiceIDByPath(ctx context.Context, path string) (ServiceID, error) {
	f.pathCalls = append(f.pathCalls, path)
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.byPath[path], nil
}

func (f *fakeAPI) StartBuild(ctx context.Context, id ServiceID, branch string) (BuildHandle, error) {
	f.startCalls++
	f.startBranch = branch
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.build, nil
}

func (f *fakeAPI) FetchProgressHandle(ctx context.Context, build BuildHandle) (ProgressHandle, error) {
	f.progressCalls++
	if f.progressErr != nil {
		return "", f.progressErr
	}
	return f.progress, nil
}

func (f *fakeAPI) FetchStatus(ctx context.Context, progress ProgressHandle) (BuildStatus, error) {
	f.statusCalls = append(f.statusCalls, progress)
	if f.statusErr != nil {
		return BuildStatus{}, f.statusErr
	}
	i := len(f.statusCalls) - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return ParseStatus(f.statuses[i]), nil
}

func (f *fakeAPI) FetchProgressURL(ctx context.Context, progress ProgressHandle) (ProgressURL, error) {
	f.urlCalls++
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return f.url, nil
}

// fakeSource is a SourceControl with fixed values
type fakeSource struct {
	kind     string
	remotes  []string
	branches []string
}

func (s fakeSource) Kind() string       { return s.kind }
func (s fakeSource) Remotes() []string  { return s.remotes }
func (s fakeSource) Branches() []string { return s.branches }

// countingWaiter records waits without sleeping
type countingWaiter struct {
	waits []time.Duration
}

func (w *countingWaiter) wait(ctx context.Context, d time.Duration) error {
	w.waits = append(w.waits, d)
	return ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
