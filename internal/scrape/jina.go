package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/resilience"
	"github.com/sells-group/venue-enrichment/pkg/jina"
)

// JinaAdapter fetches page HTML through Jina Reader. Its breaker skips Jina
// for a while after consecutive failures.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter creates a JinaAdapter. Three consecutive failures open the
// circuit for 60s.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{
		client: client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     60 * time.Second,
			OnStateChange:    resilience.BreakerLogger("jina_reader"),
		}),
	}
}

// WithBreaker replaces the adapter's own breaker with cb, typically one
// handed out by a resilience.ServiceBreakers registry.
func (j *JinaAdapter) WithBreaker(cb *resilience.CircuitBreaker) *JinaAdapter {
	if cb != nil {
		j.breaker = cb
	}
	return j
}

func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a URL via Jina Reader in HTML mode.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*model.CrawledPage, error) {
	resp, err := resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL, jina.WithFormat("html"))
		if err != nil {
			return nil, err
		}
		if reason := unusable(resp); reason != "" {
			return nil, &FetchError{URL: targetURL, Scraper: j.Name(), StatusCode: resp.Code, Reason: reason}
		}
		return resp, nil
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{URL: targetURL, Scraper: j.Name(), Err: err}
	}

	pageURL := resp.Data.URL
	if pageURL == "" {
		pageURL = targetURL
	}
	return &model.CrawledPage{
		URL:        pageURL,
		Title:      resp.Data.Title,
		HTML:       resp.Data.Content,
		StatusCode: 200,
		Source:     j.Name(),
		Tokens:     resp.Data.Usage.Tokens,
	}, nil
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// unusable returns why a Jina response cannot be used, or "" if it can.
func unusable(resp *jina.ReadResponse) string {
	if resp == nil {
		return "no response"
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "reader error"
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < 100 {
		return "empty body"
	}

	if len(content) < 1000 {
		lower := strings.ToLower(content)
		for _, sig := range challengeSignatures {
			if strings.Contains(lower, sig) {
				return "blocked (" + sig + ")"
			}
		}
	}
	return ""
}
