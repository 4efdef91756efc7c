// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client consumes the paper-finder server's streaming answer
// endpoint. It is both the terminal client behind the ask command and
// a reference for what a browser-side consumer has to do: read
// newline-delimited JSON records as they arrive, grow the answer text,
// and swap in citation lists.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paper-finder/internal/stream"
)

const defaultTimeout = 5 * time.Minute

// Client talks to a running paper-finder server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	session stream.Session
}

// New returns a Client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Ask streams the answer for query, invoking onUpdate with the
// accumulated state after every record. Starting a new Ask on the same
// Client supersedes any Ask still in flight: its request context is
// cancelled and updates it may still emit are dropped.
func (c *Client) Ask(ctx context.Context, query string, onUpdate stream.UpdateFunc) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search query is required")
	}

	ctx, epoch := c.session.Begin(ctx)
	onUpdate = c.session.Guard(epoch, onUpdate)

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/answer", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling answer endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("answer endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(excerpt))
	}

	consumer := stream.NewConsumer(onUpdate)
	return consumer.Run(resp.Body)
}

// Close cancels any Ask still in flight.
func (c *Client) Close() {
	c.session.Close()
}
