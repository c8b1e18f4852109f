package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/pkg/jina"
)

// Jina searches with Jina AI Search (s.jina.ai).
type Jina struct {
	client     jina.Client
	numResults int
}

// NewJina creates a Jina-backed provider.
func NewJina(client jina.Client, numResults int) *Jina {
	if numResults <= 0 {
		numResults = DefaultNumResults
	}
	return &Jina{client: client, numResults: numResults}
}

// Name implements Provider.
func (j *Jina) Name() string { return "jina" }

// Search implements Provider.
func (j *Jina) Search(ctx context.Context, input model.VenueInput) (*Response, error) {
	resp, err := j.client.Search(ctx, Query(input), jina.WithCount(j.numResults))
	if err != nil {
		return nil, eris.Wrap(err, "jina search")
	}

	out := &Response{}
	for _, r := range resp.Data {
		if clean(r.URL) == "" {
			continue
		}
		text := r.Content
		if text == "" {
			text = r.Description
		}
		var meta map[string]any
		if r.Description != "" {
			meta = map[string]any{"description": r.Description}
		}
		out.Results = append(out.Results, model.SearchResult{
			URL:      clean(r.URL),
			Title:    clean(r.Title),
			Text:     text,
			Metadata: meta,
		})
		if len(out.Results) == j.numResults {
			break
		}
	}
	return out, nil
}
