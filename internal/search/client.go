// Package search talks to the external search collaborator used for
// source discovery, and labels hits by URL heuristics.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veridoc/citepipe/internal/model"
)

// Client queries the configured search endpoint. The endpoint contract
// is a GET with q/limit parameters returning {"results": [{url, title,
// authors?, date?}]}.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a search client. An empty baseURL yields a client
// whose Search always returns nothing; callers treat discovery as
// disabled.
func NewClient(cfg model.SearchConfig, timeout time.Duration) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a search endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type searchResponse struct {
	Results []model.SearchHit `json:"results"`
}

// Search runs one query and returns raw hits. Transient failures are
// returned as errors for the caller to log and drop; discovery failure
// is never fatal to the pipeline.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	if !c.Enabled() {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), c.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.Results, nil
}

// paperHosts and docMarkers drive source-type labeling. Classification
// is a reporting aid only; it never gates correctness.
var paperHosts = []string{
	"arxiv.org",
	"doi.org",
	"ssrn.com",
	"ieee.org",
	"acm.org",
	"nature.com",
	"sciencedirect.com",
	"springer.com",
	"aclanthology.org",
}

var docMarkers = []string{
	"docs.",
	"documentation",
	"readthedocs",
	"pkg.go.dev",
	"developer.",
	"/docs/",
	"/reference/",
}

// ClassifyURL labels a hit as paper, documentation, or website.
func ClassifyURL(rawURL string) model.SourceType {
	lower := strings.ToLower(rawURL)

	parsed, err := url.Parse(lower)
	host := ""
	if err == nil {
		host = parsed.Host
	}

	for _, h := range paperHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return model.SourceTypePaper
		}
	}
	if strings.HasSuffix(lower, ".pdf") {
		return model.SourceTypePaper
	}
	for _, marker := range docMarkers {
		if strings.Contains(lower, marker) {
			return model.SourceTypeDocumentation
		}
	}
	return model.SourceTypeWebsite
}
