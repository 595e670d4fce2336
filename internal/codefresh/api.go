package codefresh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cftrigger/internal/engine"
)

var (
	_ engine.RemoteAPI     = (*Client)(nil)
	_ engine.ServiceLister = (*Client)(nil)
	_ engine.Authenticator = (*Client)(nil)
)

// userResource is the body of GET /user
type userResource struct {
	UserName string `json:"userName"`
}

// serviceResource is one item of GET /services
type serviceResource struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	RepoOwner string `json:"repoOwner"`
	RepoName  string `json:"repoName"`
}

// startBuildRequest is the body of POST /builds/{serviceId}
type startBuildRequest struct {
	Branch string `json:"branch,omitempty"`
}

// buildResource is the body of GET /builds/{buildId}
type buildResource struct {
	ID         string `json:"id"`
	ProgressID string `json:"progress_id"`
}

// progressResource is the body of GET /progress/{progressId}
type progressResource struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	BuildURL string `json:"buildUrl"`
}

// AuthenticateUser validates the token and returns its owner's user name
func (c *Client) AuthenticateUser(ctx context.Context) (string, error) {
	var user userResource
	if err := c.doRequest(ctx, "authenticate user", http.MethodGet, "/user", nil, &user); err != nil {
		return "", err
	}
	return user.UserName, nil
}

// ListServices returns the services visible to the token
func (c *Client) ListServices(ctx context.Context) ([]engine.Service, error) {
	var resources []serviceResource
	if err := c.doRequest(ctx, "list services", http.MethodGet, "/services", nil, &resources); err != nil {
		return nil, err
	}

	services := make([]engine.Service, 0, len(resources))
	for _, r := range resources {
		services = append(services, engine.Service{
			ID:        engine.ServiceID(r.ID),
			Name:      r.Name,
			RepoOwner: r.RepoOwner,
			RepoName:  r.RepoName,
		})
	}
	return services, nil
}

// ResolveServiceIDByPath returns the service backed by the repository at path,
// e.g. "/org/repo.git", or "" when none matches
func (c *Client) ResolveServiceIDByPath(ctx context.Context, path string) (engine.ServiceID, error) {
	services, err := c.ListServices(ctx)
	if err != nil {
		return "", err
	}

	want := normalizeRepoPath(path)
	for _, svc := range services {
		if svc.RepoOwner == "" || svc.RepoName == "" {
			continue
		}
		if normalizeRepoPath(svc.RepoOwner+"/"+svc.RepoName) == want {
			return svc.ID, nil
		}
	}
	c.log.Debug("No service matches repository path", "path", path, "services", len(services))
	return "", nil
}

// ResolveServiceIDByName returns the service with the given name, or "" when none matches
func (c *Client) ResolveServiceIDByName(ctx context.Context, name string) (engine.ServiceID, error) {
	services, err := c.ListServices(ctx)
	if err != nil {
		return "", err
	}
	for _, svc := range services {
		if svc.Name == name {
			return svc.ID, nil
		}
	}
	c.log.Debug("No service matches name", "name", name, "services", len(services))
	return "", nil
}

// StartBuild triggers a build of the service on branch; an empty branch builds the default
func (c *Client) StartBuild(ctx context.Context, id engine.ServiceID, branch string) (engine.BuildHandle, error) {
	const op = "start build"

	var raw json.RawMessage
	path := "/builds/" + url.PathEscape(string(id))
	if err := c.doRequest(ctx, op, http.MethodPost, path, startBuildRequest{Branch: branch}, &raw); err != nil {
		return "", err
	}

	buildID, err := decodeBuildID(raw)
	if err != nil {
		return "", &engine.ConnectionError{Op: op, Err: err}
	}
	c.log.Debug("Build started", "service_id", id, "branch", branch, "build_id", buildID)
	return engine.BuildHandle(buildID), nil
}

// decodeBuildID accepts either a bare JSON string or an object with an id field
func decodeBuildID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		var build buildResource
		if err := json.Unmarshal(raw, &build); err != nil {
			return "", fmt.Errorf("unexpected start build response: %s", string(raw))
		}
		id = build.ID
	}
	if id = strings.TrimSpace(id); id == "" {
		return "", fmt.Errorf("empty build id in response")
	}
	return id, nil
}

// FetchProgressHandle returns the progress feed id of a build
func (c *Client) FetchProgressHandle(ctx context.Context, build engine.BuildHandle) (engine.ProgressHandle, error) {
	const op = "fetch progress handle"

	var resource buildResource
	if err := c.doRequest(ctx, op, http.MethodGet, "/builds/"+url.PathEscape(string(build)), nil, &resource); err != nil {
		return "", err
	}
	if resource.ProgressID == "" {
		return "", &engine.ConnectionError{Op: op, Err: fmt.Errorf("build %s has no progress id", build)}
	}
	return engine.ProgressHandle(resource.ProgressID), nil
}

// FetchStatus returns the current status of a progress feed
func (c *Client) FetchStatus(ctx context.Context, progress engine.ProgressHandle) (engine.BuildStatus, error) {
	resource, err := c.getProgress(ctx, "fetch status", progress)
	if err != nil {
		return engine.BuildStatus{}, err
	}
	return engine.ParseStatus(resource.Status), nil
}

// FetchProgressURL returns the build page of a progress feed
func (c *Client) FetchProgressURL(ctx context.Context, progress engine.ProgressHandle) (engine.ProgressURL, error) {
	resource, err := c.getProgress(ctx, "fetch progress url", progress)
	if err != nil {
		return "", err
	}
	if resource.BuildURL != "" {
		return engine.ProgressURL(resource.BuildURL), nil
	}
	return engine.ProgressURL(fmt.Sprintf("%s/process/%s", c.webURL, url.PathEscape(string(progress)))), nil
}

func (c *Client) getProgress(ctx context.Context, op string, progress engine.ProgressHandle) (*progressResource, error) {
	var resource progressResource
	if err := c.doRequest(ctx, op, http.MethodGet, "/progress/"+url.PathEscape(string(progress)), nil, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// normalizeRepoPath reduces a repository path to "owner/name" for comparison
func normalizeRepoPath(path string) string {
	path = strings.ToLower(strings.Trim(path, "/"))
	return strings.TrimSuffix(path, ".git")
}
