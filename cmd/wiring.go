package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/config"
	"github.com/sells-group/venue-enrichment/internal/llm"
	"github.com/sells-group/venue-enrichment/internal/pipeline"
	"github.com/sells-group/venue-enrichment/internal/prompt"
	"github.com/sells-group/venue-enrichment/internal/resilience"
	"github.com/sells-group/venue-enrichment/internal/scrape"
	"github.com/sells-group/venue-enrichment/internal/search"
	"github.com/sells-group/venue-enrichment/internal/store"
	"github.com/sells-group/venue-enrichment/pkg/exa"
	"github.com/sells-group/venue-enrichment/pkg/firecrawl"
	"github.com/sells-group/venue-enrichment/pkg/jina"
)

// buildPipeline wires the live clients for c into a Pipeline.
func buildPipeline(_ context.Context, c *config.Config, st store.Store) (*pipeline.Pipeline, error) {
	breakers := resilience.NewServiceBreakers(
		resilience.FromCircuitConfig(c.Search.CircuitFailureThreshold, c.Search.CircuitResetSecs),
	)

	provider, err := buildSearch(c)
	if err != nil {
		return nil, err
	}
	guarded := search.NewGuarded(provider, breakers.Get(provider.Name())).
		WithRetry(resilience.FromRetryConfig(c.Search.RetryAttempts, 1))

	client, err := buildLLM(c)
	if err != nil {
		return nil, err
	}

	engine, err := prompt.NewDefaultEngine()
	if err != nil {
		return nil, eris.Wrap(err, "load prompt templates")
	}

	p, err := pipeline.New(c, st, guarded, buildScraper(c, breakers), client, engine)
	if err != nil {
		return nil, err
	}
	return p.WithBreakers(breakers), nil
}

func buildSearch(c *config.Config) (search.Provider, error) {
	switch strings.ToLower(c.Search.Provider) {
	case "", "exa":
		var opts []exa.Option
		if c.Exa.BaseURL != "" {
			opts = append(opts, exa.WithBaseURL(c.Exa.BaseURL))
		}
		return search.NewExa(exa.NewClient(c.Exa.Key, opts...), c.Search.NumResults), nil
	case "jina":
		return search.NewJina(newJinaClient(c), c.Search.NumResults), nil
	default:
		return nil, eris.Errorf("unknown search provider %q", c.Search.Provider)
	}
}

func buildLLM(c *config.Config) (llm.Client, error) {
	pc := c.LLMProvider()
	client, err := llm.New(llm.Settings{
		Provider:    c.LLM.Provider,
		APIKey:      pc.Key,
		BaseURL:     pc.BaseURL,
		Model:       pc.Model,
		Temperature: &c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init llm client")
	}
	return llm.NewRetrying(client, resilience.FromRetryConfig(c.LLM.RetryAttempts, c.LLM.RetryDelaySeconds)), nil
}

// buildScraper chains the direct fetcher with whichever hosted readers have
// credentials. Direct fetches are paced per host.
func buildScraper(c *config.Config, breakers *resilience.ServiceBreakers) *scrape.Chain {
	local := scrape.NewLocalScraper(
		time.Duration(c.Scrape.TimeoutSecs)*time.Second,
		scrape.WithUserAgents(c.Scrape.UserAgents),
		scrape.WithRateLimiter(scrape.NewHostLimiter(c.RateLimit.RequestsPerSecond, c.RateLimit.BurstSize)),
		scrape.WithProxy(c.Scrape.ProxyURL),
	)

	scrapers := []scrape.Scraper{local}
	if c.Jina.Key != "" {
		reader := scrape.NewJinaAdapter(newJinaClient(c))
		if breakers != nil {
			reader.WithBreaker(breakers.Get("jina_reader"))
		}
		scrapers = append(scrapers, reader)
	}
	if c.Firecrawl.Key != "" {
		var opts []firecrawl.Option
		if c.Firecrawl.BaseURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(c.Firecrawl.BaseURL))
		}
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(firecrawl.NewClient(c.Firecrawl.Key, opts...)))
	}

	chain := scrape.NewChain(scrapers...)
	zap.L().Debug("scraper chain ready", zap.Strings("scrapers", chain.Names()))
	return chain
}

func newJinaClient(c *config.Config) jina.Client {
	var opts []jina.Option
	if c.Jina.BaseURL != "" {
		opts = append(opts, jina.WithBaseURL(c.Jina.BaseURL))
	}
	if c.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	opts = append(opts, jina.WithRetry(c.Jina.RetryAttempts, time.Duration(c.Jina.RetryBackoffMs)*time.Millisecond))
	return jina.NewClient(c.Jina.Key, opts...)
}
