// Package scrape fetches raw HTML for candidate venue sources, falling back
// from a direct HTTP fetch to hosted readers.
package scrape

import (
	"context"
	"fmt"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// Scraper fetches a single URL and returns its markup.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.CrawledPage, error)
	Name() string
	Supports(url string) bool
}

// FetchError reports a page that could not be fetched or had no usable body.
type FetchError struct {
	URL        string
	Scraper    string
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: fetch %s", e.Scraper, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }
