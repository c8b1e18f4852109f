// Package search finds candidate web sources for a venue.
package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/resilience"
)

// DefaultNumResults is how many results a provider asks for.
const DefaultNumResults = 10

// Provider searches the web for a venue.
type Provider interface {
	Name() string
	Search(ctx context.Context, input model.VenueInput) (*Response, error)
}

// Response is the normalized result of one search call.
type Response struct {
	Results   []model.SearchResult
	RequestID string
	CostUSD   float64
}

// Query builds the provider query for a venue. The name is quoted as is;
// quotes inside it are not escaped.
func Query(input model.VenueInput) string {
	return `music venue concert hall "` + input.Query() + `" contact information`
}

// Guarded wraps a provider with a circuit breaker and, optionally, retries
// of transient failures. An exhausted retry counts as one breaker failure.
type Guarded struct {
	next  Provider
	cb    *resilience.CircuitBreaker
	retry *resilience.RetryConfig
}

// NewGuarded returns a provider whose calls go through cb.
func NewGuarded(next Provider, cb *resilience.CircuitBreaker) *Guarded {
	return &Guarded{next: next, cb: cb}
}

// WithRetry enables retries of transient errors inside the breaker.
func (g *Guarded) WithRetry(cfg resilience.RetryConfig) *Guarded {
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(g.next.Name(), "search")
	}
	g.retry = &cfg
	return g
}

// Name implements Provider.
func (g *Guarded) Name() string { return g.next.Name() }

// Search implements Provider.
func (g *Guarded) Search(ctx context.Context, input model.VenueInput) (*Response, error) {
	call := func(ctx context.Context) (*Response, error) {
		return g.next.Search(ctx, input)
	}
	resp, err := resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (*Response, error) {
		if g.retry == nil {
			return call(ctx)
		}
		return resilience.DoVal(ctx, *g.retry, call)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "search: %s", g.next.Name())
	}
	zap.L().Debug("search: complete",
		zap.String("provider", g.next.Name()),
		zap.String("venue", input.Name),
		zap.Int("results", len(resp.Results)),
	)
	return resp, nil
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
