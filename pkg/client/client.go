// Package client provides a Go client for the planktosim HTTP server.
// It covers the full server surface: creating and deleting simulations,
// stepping them manually or on a timer, and reading back agents,
// snapshots and population counts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/planktosim/planktosim/internal/plankton"
)

// Client talks to a planktosim-server instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to set timeouts
// or inject a test transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SimInfo is the server's summary of one simulation.
type SimInfo struct {
	ID     plankton.SimulationID    `json:"id"`
	Step   int                      `json:"step"`
	Counts map[plankton.Species]int `json:"counts"`
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, nil, nil, "healthz")
}

// CreateSimulation creates a simulation under simID. A nil cfg lets the
// server apply its defaults.
func (c *Client) CreateSimulation(ctx context.Context, simID string, cfg *plankton.SimConfig) error {
	if cfg == nil {
		return c.do(ctx, http.MethodPost, nil, nil, "sim", simID)
	}
	return c.do(ctx, http.MethodPost, cfg, nil, "sim", simID)
}

// DeleteSimulation stops and removes a simulation.
func (c *Client) DeleteSimulation(ctx context.Context, simID string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, "sim", simID)
}

// ListSimulations returns the ids of all simulations on the server.
func (c *Client) ListSimulations(ctx context.Context) ([]plankton.SimulationID, error) {
	var ids []plankton.SimulationID
	if err := c.do(ctx, http.MethodGet, nil, &ids, "sims"); err != nil {
		return nil, err
	}
	return ids, nil
}

// Info returns the current step index and population counts.
func (c *Client) Info(ctx context.Context, simID string) (SimInfo, error) {
	var info SimInfo
	if err := c.do(ctx, http.MethodGet, nil, &info, "sim", simID); err != nil {
		return SimInfo{}, err
	}
	return info, nil
}

// Step advances the simulation by n steps (n < 1 is treated as 1) and
// returns the resulting summary.
func (c *Client) Step(ctx context.Context, simID string, n int) (SimInfo, error) {
	if n < 1 {
		n = 1
	}
	u, err := url.JoinPath(c.baseURL, "sim", simID, "step")
	if err != nil {
		return SimInfo{}, fmt.Errorf("failed to build URL: %w", err)
	}
	u += "?n=" + strconv.Itoa(n)

	var info SimInfo
	if err := c.doURL(ctx, http.MethodPost, u, nil, &info); err != nil {
		return SimInfo{}, err
	}
	return info, nil
}

// Run starts background stepping on the server at the given interval.
func (c *Client) Run(ctx context.Context, simID string, interval time.Duration) error {
	body := map[string]int{"interval_ms": int(interval.Milliseconds())}
	return c.do(ctx, http.MethodPost, body, nil, "sim", simID, "run")
}

// Stop halts background stepping.
func (c *Client) Stop(ctx context.Context, simID string) error {
	return c.do(ctx, http.MethodPost, nil, nil, "sim", simID, "stop")
}

// Agents returns the current agent records.
func (c *Client) Agents(ctx context.Context, simID string) ([]plankton.AgentRecord, error) {
	var agents []plankton.AgentRecord
	if err := c.do(ctx, http.MethodGet, nil, &agents, "sim", simID, "agents"); err != nil {
		return nil, err
	}
	return agents, nil
}

// Snapshot returns the current full snapshot.
func (c *Client) Snapshot(ctx context.Context, simID string) (plankton.Snapshot, error) {
	var snap plankton.Snapshot
	if err := c.do(ctx, http.MethodGet, nil, &snap, "sim", simID, "snapshot"); err != nil {
		return plankton.Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot asks the server to persist the current snapshot and
// returns the path it was written to.
func (c *Client) SaveSnapshot(ctx context.Context, simID string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, nil, &resp, "sim", simID, "snapshot"); err != nil {
		return "", err
	}
	return resp["path"], nil
}

// Counts returns the live population per species.
func (c *Client) Counts(ctx context.Context, simID string) (map[plankton.Species]int, error) {
	var counts map[plankton.Species]int
	if err := c.do(ctx, http.MethodGet, nil, &counts, "sim", simID, "counts"); err != nil {
		return nil, err
	}
	return counts, nil
}

// do joins the path elements onto the base URL and performs a JSON
// request/response round trip. A nil body sends no payload; a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method string, body, out any, elem ...string) error {
	u, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	return c.doURL(ctx, method, u, body, out)
}

func (c *Client) doURL(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
