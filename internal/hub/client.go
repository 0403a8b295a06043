// Package hub provides a minimal client for a Hugging Face compatible hub
// backend: paginated Space listings and raw README retrieval.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the public hub backend.
const DefaultEndpoint = "https://huggingface.co"

const (
	userAgent          = "spacedupes/0.1.0"
	defaultPageSize    = 500
	defaultListTimeout = 30 * time.Second
	defaultRawTimeout  = 10 * time.Second

	// Oversized READMEs are truncated; the frontmatter sits at the top.
	maxReadmeBytes = 2 << 20
)

// Space is one entry in the hub's Space listing. The backend emits both
// camelCase and snake_case spellings for the creation time and the card
// metadata depending on its version, so both are decoded.
type Space struct {
	ID           string         `json:"id"`
	CreatedAt    string         `json:"createdAt"`
	CreatedAtAlt string         `json:"created_at"`
	CardData     map[string]any `json:"cardData"`
	CardDataAlt  map[string]any `json:"card_data"`
}

// Created returns the raw creation timestamp, preferring the camelCase
// spelling. Empty when the listing omitted it.
func (s Space) Created() string {
	if s.CreatedAt != "" {
		return s.CreatedAt
	}
	return s.CreatedAtAlt
}

// Card returns the owner-supplied card metadata, or nil when the listing
// carried none.
func (s Space) Card() map[string]any {
	if s.CardData != nil {
		return s.CardData
	}
	return s.CardDataAlt
}

// Options configures a Client. Zero fields fall back to defaults.
type Options struct {
	Endpoint    string        // base URL of the hub backend
	Token       string        // optional bearer token, sent on every request
	PageSize    int           // listing page size
	ListTimeout time.Duration // per-page timeout for listing requests
	RawTimeout  time.Duration // timeout for raw README fetches
}

// Client talks to the hub's HTTP API. Listing and README requests use
// separate HTTP clients so a slow README fetch cannot inherit the longer
// listing timeout.
type Client struct {
	endpoint string
	token    string
	pageSize int
	list     *http.Client
	raw      *http.Client
}

// NewClient creates a hub client from the given options.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = defaultListTimeout
	}
	if opts.RawTimeout <= 0 {
		opts.RawTimeout = defaultRawTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		token:    opts.Token,
		pageSize: opts.PageSize,
		list:     &http.Client{Timeout: opts.ListTimeout},
		raw:      &http.Client{Timeout: opts.RawTimeout},
	}
}

// Endpoint returns the normalized base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ReadmeRaw fetches the raw README document of a Space. The caller decides
// whether a fetch failure is fatal; a missing or private README surfaces as
// a plain error.
func (c *Client) ReadmeRaw(ctx context.Context, id string) (string, error) {
	u := fmt.Sprintf("%s/spaces/%s/raw/README.md", c.endpoint, id)
	resp, err := c.get(ctx, c.raw, u)
	if err != nil {
		return "", fmt.Errorf("fetch readme for %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("readme for %s: unexpected status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeBytes))
	if err != nil {
		return "", fmt.Errorf("read readme for %s: %w", id, err)
	}
	return string(body), nil
}

// listURL builds the first-page listing URL, optionally requesting a
// newest-first sort.
func (c *Client) listURL(withSort bool) string {
	q := url.Values{}
	q.Set("full", "true")
	q.Set("limit", strconv.Itoa(c.pageSize))
	if withSort {
		q.Set("sort", "createdAt")
		q.Set("direction", "-1")
	}
	return c.endpoint + "/api/spaces?" + q.Encode()
}

func (c *Client) get(ctx context.Context, hc *http.Client, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return hc.Do(req)
}
