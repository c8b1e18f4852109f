package search

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/resilience"
	"github.com/sells-group/venue-enrichment/pkg/exa"
)

// Exa searches with the Exa neural search API.
type Exa struct {
	client     exa.Client
	numResults int
}

// NewExa creates an Exa-backed provider.
func NewExa(client exa.Client, numResults int) *Exa {
	if numResults <= 0 {
		numResults = DefaultNumResults
	}
	return &Exa{client: client, numResults: numResults}
}

// Name implements Provider.
func (e *Exa) Name() string { return "exa" }

// Search implements Provider.
func (e *Exa) Search(ctx context.Context, input model.VenueInput) (*Response, error) {
	yes := true
	resp, err := e.client.Search(ctx, exa.SearchRequest{
		Query:      Query(input),
		Type:       "neural",
		Category:   "company",
		NumResults: e.numResults,
		Context:    &yes,
		Moderation: &yes,
	})
	if err != nil {
		wrapped := eris.Wrap(err, "exa search")
		var apiErr *exa.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.FromStatus(wrapped, apiErr.StatusCode)
		}
		return nil, wrapped
	}

	out := &Response{RequestID: resp.RequestID, CostUSD: resp.TotalCost()}
	for _, r := range resp.Results {
		if clean(r.URL) == "" {
			continue
		}
		meta := map[string]any{"id": r.ID}
		if r.Summary != "" {
			meta["summary"] = r.Summary
		}
		if len(r.Highlights) > 0 {
			meta["highlights"] = r.Highlights
			meta["highlight_scores"] = r.HighlightScores
		}
		if r.Image != "" {
			meta["image"] = r.Image
		}
		if r.Favicon != "" {
			meta["favicon"] = r.Favicon
		}
		out.Results = append(out.Results, model.SearchResult{
			URL:           clean(r.URL),
			Title:         clean(r.Title),
			Text:          r.Text,
			PublishedDate: r.PublishedDate,
			Author:        r.Author,
			Metadata:      meta,
		})
	}
	return out, nil
}
