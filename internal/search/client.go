// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search implements the client for the Exa-compatible search
// provider: paper search, similar-paper lookup, and the streaming
// answer endpoint. All ranking, retrieval, and summarization happens
// provider-side; this package only shapes requests and decodes
// responses.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// apiBase is the provider endpoint root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.exa.ai"

// Fixed provider parameters for the research-paper demo.
const (
	defaultNumResults   = 10
	defaultCategory     = "research paper"
	defaultSearchType   = "auto"
	defaultSummaryQuery = "Give me a one/two lines summary about this research paper in simple english."
)

// Client calls the search provider. The zero HTTPClient falls back to
// http.DefaultClient; deadlines come from the request context, not the
// client, because the answer endpoint streams indefinitely.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
}

// NewClient returns a Client authenticated with apiKey.
func NewClient(apiKey string) *Client {
	return &Client{HTTPClient: &http.Client{}, APIKey: apiKey}
}

// searchRequest is the provider request body shared by /search and
// /findSimilar.
type searchRequest struct {
	Query      string        `json:"query,omitempty"`
	URL        string        `json:"url,omitempty"`
	Type       string        `json:"type,omitempty"`
	Category   string        `json:"category,omitempty"`
	NumResults int           `json:"numResults,omitempty"`
	Contents   *contentsSpec `json:"contents,omitempty"`
}

type contentsSpec struct {
	Text    bool         `json:"text,omitempty"`
	Summary *summarySpec `json:"summary,omitempty"`
}

type summarySpec struct {
	Query string `json:"query,omitempty"`
}

type searchResponse struct {
	Results []types.ResearchPaper `json:"results"`
}

// Search queries the provider for papers matching query, with full text
// and a short per-result summary included. Results are returned in
// provider order, verbatim.
func (c *Client) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.ResearchPaper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	body := searchRequest{
		Query:      query,
		Type:       defaultSearchType,
		Category:   category(cfg),
		NumResults: numResults(cfg),
		Contents: &contentsSpec{
			Text:    true,
			Summary: &summarySpec{Query: summaryQuery(cfg)},
		},
	}
	return c.post(ctx, "/search", body, cfg)
}

// FindSimilar queries the provider for papers similar to the paper at
// paperURL. Same response shape as Search, different provider endpoint.
func (c *Client) FindSimilar(ctx context.Context, paperURL string, cfg types.SearchConfig) ([]types.ResearchPaper, error) {
	if strings.TrimSpace(paperURL) == "" {
		return nil, fmt.Errorf("paper url is required")
	}

	body := searchRequest{
		URL:        paperURL,
		Category:   category(cfg),
		NumResults: numResults(cfg),
		Contents: &contentsSpec{
			Text:    true,
			Summary: &summarySpec{Query: summaryQuery(cfg)},
		},
	}
	return c.post(ctx, "/findSimilar", body, cfg)
}

func (c *Client) post(ctx context.Context, path string, body searchRequest, cfg types.SearchConfig) ([]types.ResearchPaper, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing provider response: %w", err)
	}
	return sr.Results, nil
}

func (c *Client) setHeaders(req *http.Request, userAgent string) {
	req.Header.Set("Content-Type", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func numResults(cfg types.SearchConfig) int {
	if cfg.NumResults > 0 {
		return cfg.NumResults
	}
	return defaultNumResults
}

func category(cfg types.SearchConfig) string {
	if cfg.Category != "" {
		return cfg.Category
	}
	return defaultCategory
}

func summaryQuery(cfg types.SearchConfig) string {
	if cfg.SummaryQuery != "" {
		return cfg.SummaryQuery
	}
	return defaultSummaryQuery
}
