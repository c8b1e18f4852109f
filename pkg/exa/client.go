// Package exa provides a client for the Exa neural search API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.exa.ai"

// Client defines the Exa operations used by the enrichment pipeline.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query              string   `json:"query"`
	Type               string   `json:"type,omitempty"` // keyword, neural, fast, auto
	Category           string   `json:"category,omitempty"`
	NumResults         int      `json:"numResults,omitempty"`
	IncludeDomains     []string `json:"includeDomains,omitempty"`
	ExcludeDomains     []string `json:"excludeDomains,omitempty"`
	StartCrawlDate     string   `json:"startCrawlDate,omitempty"`
	EndCrawlDate       string   `json:"endCrawlDate,omitempty"`
	StartPublishedDate string   `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string   `json:"endPublishedDate,omitempty"`
	IncludeText        []string `json:"includeText,omitempty"`
	ExcludeText        []string `json:"excludeText,omitempty"`
	Context            *bool    `json:"context,omitempty"`
	Moderation         *bool    `json:"moderation,omitempty"`
}

// SearchResponse is the parsed response of POST /search.
type SearchResponse struct {
	RequestID          string       `json:"requestId"`
	ResolvedSearchType string       `json:"resolvedSearchType"`
	SearchType         string       `json:"searchType"`
	Results            []Result     `json:"results"`
	Context            string       `json:"context"`
	CostDollars        *CostDollars `json:"costDollars"`
}

// TotalCost returns costDollars.total or 0 when absent.
func (r *SearchResponse) TotalCost() float64 {
	if r.CostDollars == nil || r.CostDollars.Total == nil {
		return 0
	}
	return *r.CostDollars.Total
}

// Result is a single search hit.
type Result struct {
	ID              string          `json:"id"`
	URL             string          `json:"url"`
	Title           string          `json:"title"`
	Text            string          `json:"text"`
	PublishedDate   string          `json:"publishedDate"`
	Author          string          `json:"author"`
	Highlights      []string        `json:"highlights"`
	HighlightScores []float64       `json:"highlightScores"`
	Summary         string          `json:"summary"`
	Image           string          `json:"image"`
	Favicon         string          `json:"favicon"`
	Extras          json.RawMessage `json:"extras,omitempty"`
}

// CostDollars reports what the request cost.
type CostDollars struct {
	Total     *float64          `json:"total"`
	BreakDown []json.RawMessage `json:"breakDown"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return fmt.Sprintf("exa: authentication failed, check the API key (status %d)", e.StatusCode)
	case e.StatusCode == http.StatusForbidden:
		return fmt.Sprintf("exa: access forbidden, the API key may lack permissions (status %d)", e.StatusCode)
	case e.StatusCode == http.StatusTooManyRequests:
		return fmt.Sprintf("exa: rate limit exceeded (status %d)", e.StatusCode)
	case e.StatusCode == http.StatusBadRequest:
		return fmt.Sprintf("exa: bad request, check the query format (status %d): %s", e.StatusCode, e.Body)
	case e.StatusCode >= 500:
		return fmt.Sprintf("exa: server error, try again later (status %d)", e.StatusCode)
	default:
		return fmt.Sprintf("exa: search failed (status %d): %s", e.StatusCode, e.Body)
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Exa API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "exa: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "exa: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "exa: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "exa: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "exa: unmarshal response")
	}
	return &result, nil
}
