package codefresh

import "context"

// DoRequest exports doRequest for white-box tests
func (c *Client) DoRequest(ctx context.Context, method, path string, body, out any) error {
	return c.doRequest(ctx, "test", method, path, body, out)
}

// WebURL exposes the derived web root
func (c *Client) WebURL() string {
	return c.webURL
}
