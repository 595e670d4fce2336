// Package codefresh is a client for the Codefresh REST API.
package codefresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"cftrigger/internal/config"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
)

// Client is a stateless, credential-scoped Codefresh API client.
// It is safe to reuse across sequential invocations.
type Client struct {
	url    string
	webURL string
	client *http.Client
	log    *slog.Logger
}

// NewClient creates a new Codefresh client instance
func NewClient(cfg config.CodefreshConfig) *Client {
	// Normalize URL: remove trailing slash to avoid double slashes in paths
	apiURL := strings.TrimSuffix(cfg.URL, "/")

	// The token is sent as a bearer credential on every request
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	client := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   http.DefaultTransport,
		},
	}

	return &Client{
		url:    apiURL,
		webURL: strings.TrimSuffix(apiURL, "/api"),
		client: client,
		log:    logger.With("component", "codefresh"),
	}
}

// doRequest sends a JSON request to the Codefresh API and decodes the response into out.
// Every failure is reported as *engine.ConnectionError tagged with op.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body, out any) error {
	url := c.url + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return &engine.ConnectionError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &engine.ConnectionError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &engine.ConnectionError{Op: op, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &engine.ConnectionError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("Codefresh API request failed", "op", op, "status", resp.Status, "body", string(respBody), "url", url)
		return &engine.ConnectionError{Op: op, StatusCode: resp.StatusCode, Err: formatCodefreshError(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &engine.ConnectionError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// formatCodefreshError formats Codefresh API errors into user-friendly messages
// without exposing response bodies
func formatCodefreshError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed: invalid token")
	case http.StatusForbidden:
		return fmt.Errorf("access denied: insufficient permissions")
	case http.StatusNotFound:
		return fmt.Errorf("resource not found")
	case http.StatusBadRequest:
		return fmt.Errorf("invalid request")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: please try again later")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("codefresh server error: please try again later")
	default:
		return fmt.Errorf("codefresh api request failed")
	}
}
