// Package upstream talks to the shop's REST backend: settings, coupons, carts,
// orders, payment QR and the product catalog.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

const (
	headerRequestID = "X-Request-Id"
	errBodyLimit    = 512
)

// ErrBadSegment is a path parameter that cannot name a resource.
var ErrBadSegment = errors.New("invalid path segment")

// segment escapes s for use as one path element. Dot segments are refused since
// URL resolution would collapse them into a different endpoint.
func segment(s string) (string, error) {
	switch s {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", ErrBadSegment, s)
	}
	return url.PathEscape(s), nil
}

// StatusError is an unexpected HTTP status from the backend.
type StatusError struct {
	Service string
	Path    string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Service, e.Path, e.Code, e.Body)
}

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(name, baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url %q: %w", name, baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Name: name, BaseURL: u, HTTP: httpClient}, nil
}

// Do sends in as JSON (when non-nil) and returns the raw response. The caller
// closes the body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%s: bad path %q: %w", c.Name, path, err)
	}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	u := c.BaseURL.ResolveReference(rel)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.Name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := logging.RequestID(ctx); rid != "" {
		req.Header.Set(headerRequestID, rid)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", c.Name, method, path, err)
	}
	return resp, nil
}

// call performs a JSON round trip and decodes a 2xx body into out. Any other
// status becomes a *StatusError.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.Do(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", c.Name, path, err)
	}
	return nil
}

func (c *Client) statusError(path string, resp *http.Response) *StatusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	return &StatusError{Service: c.Name, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
}

// backendMessage pulls the human-readable message the backend puts in error bodies.
func backendMessage(body string) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}
