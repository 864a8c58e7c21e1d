// Package graph provides the HTTP client for the remote graph-memory
// service — the relationship-aware secondary index for keepsake memories.
//
// The graph service is best-effort: it may be down, slow, or unreachable,
// and no write here is load-bearing. Every call carries a bounded timeout
// and transport failures surface as ErrUnavailable so the coordinator can
// degrade to local-only instead of failing the operation.
//
// Payloads are always third-person restatements; the graph never sees the
// user's first-person phrasing.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every graph service request.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the graph client.
type Config struct {
	// URL is the graph service base URL (e.g. "http://localhost:8765").
	URL string

	// Timeout bounds each request. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// Client talks to the graph-memory service's document endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a graph client. The service is not contacted until the
// first call; availability is a per-call concern.
func NewClient(c Config, logger *zap.Logger) (*Client, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("graph service URL is required")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: c.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Document is the graph service's wire representation of a memory.
type Document struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	Topics    []string  `json:"topics,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchResult is one hit from a graph search.
type SearchResult struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Put stores (or replaces) a document. The text must already be restated
// in the third person.
func (c *Client) Put(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/documents", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.expectStatus(resp, http.StatusOK, http.StatusCreated)
}

// Delete removes a document by id. Deleting an absent document is not an
// error; the graph is an index, not the system of record.
func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/api/v1/documents/" + url.PathEscape(id)

	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}

	return c.expectStatus(resp, http.StatusOK, http.StatusNoContent)
}

// DeleteOwner bulk-deletes every document belonging to an owner and
// returns the number removed, when the service reports it.
func (c *Client) DeleteOwner(ctx context.Context, ownerID string) (int, error) {
	path := "/api/v1/owners/" + url.PathEscape(ownerID) + "/documents"

	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.expectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return 0, err
	}

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Count is informational; some deployments return an empty body.
		return 0, nil
	}

	return out.Deleted, nil
}

// Search queries the owner's documents for text relevant to query.
func (c *Client) Search(ctx context.Context, ownerID, query string, limit int) ([]SearchResult, error) {
	body, err := json.Marshal(map[string]any{
		"owner_id": ownerID,
		"query":    query,
		"limit":    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/search", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.expectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var out struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	return out.Results, nil
}

// EntityCount returns the number of documents the graph holds for an
// owner. The coordinator compares it against the local count for
// sync-status reporting.
func (c *Client) EntityCount(ctx context.Context, ownerID string) (int, error) {
	path := "/api/v1/owners/" + url.PathEscape(ownerID) + "/documents/count"

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.expectStatus(resp, http.StatusOK); err != nil {
		return 0, err
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}

	return out.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("graph service unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}

	return resp, nil
}

// expectStatus drains unexpected responses into an error. 5xx means the
// service is unhealthy and maps to ErrUnavailable; anything else
// unexpected is a plain error.
func (c *Client) expectStatus(resp *http.Response, accept ...int) error {
	for _, code := range accept {
		if resp.StatusCode == code {
			return nil
		}
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, detail)
	}

	return fmt.Errorf("graph service returned status %d: %s", resp.StatusCode, detail)
}
