package draftstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Draft is one stored draft: the canonical node array plus the store's
// revision tag.
type Draft struct {
	ID    string
	Nodes []byte
	ETag  string
}

// Client communicates with the draft-store HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the store at baseURL. The api key may
// be empty for unauthenticated local stores.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch retrieves a draft by id.
func (c *Client) Fetch(ctx context.Context, id string) (Draft, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.draftURL(id), nil)
	if err != nil {
		return Draft{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Draft{}, &TransientError{Err: fmt.Errorf("fetch draft: %w", err)}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Draft{}, fmt.Errorf("fetch draft %s: %w", id, ErrNotFound)
	case resp.StatusCode >= 500:
		return Draft{}, &TransientError{Err: statusError("fetch draft", id, resp)}
	case resp.StatusCode != http.StatusOK:
		return Draft{}, statusError("fetch draft", id, resp)
	}

	nodes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Draft{}, &TransientError{Err: fmt.Errorf("read draft %s: %w", id, err)}
	}
	return Draft{ID: id, Nodes: nodes, ETag: resp.Header.Get("ETag")}, nil
}

// Store writes a draft and returns the store's new revision tag. The
// draft's ETag is sent as If-Match so a concurrent change comes back as
// ErrConflict; an empty ETag writes unconditionally.
func (c *Client) Store(ctx context.Context, d Draft) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.draftURL(d.ID), bytes.NewReader(d.Nodes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")
	if d.ETag != "" {
		httpReq.Header.Set("If-Match", d.ETag)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("store draft: %w", err)}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return resp.Header.Get("ETag"), nil
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("store draft %s: %w", d.ID, ErrNotFound)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return "", fmt.Errorf("store draft %s: %w", d.ID, ErrConflict)
	case resp.StatusCode >= 500:
		return "", &TransientError{Err: statusError("store draft", d.ID, resp)}
	default:
		return "", statusError("store draft", d.ID, resp)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) draftURL(id string) string {
	return c.baseURL + "/v1/drafts/" + url.PathEscape(id)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func statusError(op, id string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s %s: status %d: %s", op, id, resp.StatusCode, string(body))
}
