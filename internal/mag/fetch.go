// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// evaluateEndpoint is the evaluate URL. Declared as a var so tests can
// substitute an httptest server.
var evaluateEndpoint = "https://api.labs.cognitive.microsoft.com/academic/v1.0/evaluate"

// Client performs single evaluate calls. It carries no pagination state;
// the paginator owns the loop.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// NewClient returns a Client backed by the given http.Client, or
// http.DefaultClient when nil.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient, UserAgent: userAgent}
}

// EvaluateResponse is the decoded body of one evaluate call. Entities stay
// as raw JSON so the export channel preserves them byte for byte.
type EvaluateResponse struct {
	Expr     string            `json:"expr"`
	Entities []json.RawMessage `json:"entities"`
}

// FetchPage performs one synchronous GET against the evaluate endpoint.
// Network errors, non-2xx statuses, and malformed bodies propagate to the
// caller uninterpreted; there is no retry at this layer.
func (c *Client) FetchPage(ctx context.Context, params url.Values) (*EvaluateResponse, error) {
	reqURL := evaluateEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evaluate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("evaluate endpoint returned HTTP %d", resp.StatusCode)
	}

	var er EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing evaluate response: %w", err)
	}
	return &er, nil
}
