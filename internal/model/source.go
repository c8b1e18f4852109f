package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// SearchResult is one hit returned by the search provider.
type SearchResult struct {
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	Text          string         `json:"text,omitempty"`
	PublishedDate string         `json:"published_date,omitempty"`
	Author        string         `json:"author,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// RankedSource is a search result with an LLM-assigned relevance score.
type RankedSource struct {
	Result    SearchResult `json:"result"`
	Score     float64      `json:"score"`
	Reasoning string       `json:"reasoning,omitempty"`
}

// Method is an extraction method an instruction can request.
type Method string

const (
	MethodRegex       Method = "regex"
	MethodCSSSelector Method = "css_selector"
	MethodMetaTag     Method = "meta_tag"
	MethodTextSearch  Method = "text_search"
	MethodXPath       Method = "xpath"
)

// ParseMethod converts a free-form method name into a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodRegex, MethodCSSSelector, MethodMetaTag, MethodTextSearch, MethodXPath:
		return m, nil
	}
	return "", eris.Errorf("model: unknown extraction method %q", s)
}

// ScrapingInstruction tells the extractor how to pull one field out of a page.
// Lower Priority runs first.
type ScrapingInstruction struct {
	Field     Field  `json:"field"`
	Method    Method `json:"method"`
	Pattern   string `json:"pattern"`
	Priority  int    `json:"priority"`
	Reasoning string `json:"reasoning,omitempty"`
}

// CrawledPage is a fetched source page.
type CrawledPage struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	HTML       string `json:"html"`
	StatusCode int    `json:"status_code"`
	Source     string `json:"source,omitempty"` // scraper that produced it
	Tokens     int    `json:"tokens,omitempty"`
	Credits    int    `json:"credits,omitempty"`
}
