package scrape

import (
	"context"
	"strings"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/pkg/firecrawl"
)

// FirecrawlAdapter fetches raw page HTML through Firecrawl's scrape API.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports returns true; Firecrawl is the last resort for any URL.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches a single URL via Firecrawl.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*model.CrawledPage, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"rawHtml"},
	})
	if err != nil {
		return nil, &FetchError{URL: targetURL, Scraper: f.Name(), Err: err}
	}
	if !resp.Success {
		return nil, &FetchError{URL: targetURL, Scraper: f.Name(), Reason: "scrape not successful"}
	}
	html := resp.Data.RawHTML
	if html == "" {
		html = resp.Data.HTML
	}
	if strings.TrimSpace(html) == "" {
		return nil, &FetchError{URL: targetURL, Scraper: f.Name(), StatusCode: resp.Data.StatusCode, Reason: "empty body"}
	}

	pageURL := resp.Data.URL
	if pageURL == "" {
		pageURL = targetURL
	}
	return &model.CrawledPage{
		URL:        pageURL,
		Title:      resp.Data.Title,
		HTML:       html,
		StatusCode: resp.Data.StatusCode,
		Source:     f.Name(),
		Credits:    resp.Data.Metadata.CreditsUsed,
	}, nil
}
