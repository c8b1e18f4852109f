// Package cost prices provider usage in USD.
package cost

import "strings"

// Rates holds per-provider pricing configuration.
type Rates struct {
	OpenAI     map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaRate             `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
	Firecrawl  FirecrawlRate        `yaml:"firecrawl" mapstructure:"firecrawl"`
	Exa        ExaRate              `yaml:"exa" mapstructure:"exa"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// JinaRate holds Jina Reader pricing.
type JinaRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityRate holds Perplexity pricing.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// FirecrawlRate holds Firecrawl pricing.
type FirecrawlRate struct {
	PlanMonthly     float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	CreditsIncluded float64 `yaml:"credits_included" mapstructure:"credits_included"`
}

// ExaRate is the fallback price of one search when the response carries no
// cost breakdown.
type ExaRate struct {
	PerSearch float64 `yaml:"per_search" mapstructure:"per_search"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion prices one LLM call by provider name. Unknown models cost 0.
func (c *Calculator) Completion(provider, model string, input, output int) float64 {
	switch strings.ToLower(provider) {
	case "anthropic":
		return tokenCost(c.rates.Anthropic, model, input, output)
	case "perplexity":
		return c.PerplexityQuery()
	default:
		return tokenCost(c.rates.OpenAI, model, input, output)
	}
}

// OpenAI computes the cost for an OpenAI-compatible chat completion.
func (c *Calculator) OpenAI(model string, input, output int) float64 {
	return tokenCost(c.rates.OpenAI, model, input, output)
}

// Anthropic computes the cost for a Claude message.
func (c *Calculator) Anthropic(model string, input, output int) float64 {
	return tokenCost(c.rates.Anthropic, model, input, output)
}

// Jina computes the cost for Jina Reader token usage.
func (c *Calculator) Jina(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.rates.Jina.PerMTok
}

// PerplexityQuery returns the flat cost per Perplexity query.
func (c *Calculator) PerplexityQuery() float64 {
	return c.rates.Perplexity.PerQuery
}

// ExaSearch returns the flat cost of one Exa search.
func (c *Calculator) ExaSearch() float64 {
	return c.rates.Exa.PerSearch
}

// FirecrawlCredits prices credits at the plan's effective per-credit rate.
func (c *Calculator) FirecrawlCredits(credits int) float64 {
	if c.rates.Firecrawl.CreditsIncluded <= 0 {
		return 0
	}
	return float64(credits) * c.rates.Firecrawl.PlanMonthly / c.rates.Firecrawl.CreditsIncluded
}

// lookup finds the rate for model. Providers report dated snapshots
// (gpt-4o-mini-2024-07-18), so the longest key that prefixes model wins.
func lookup(rates map[string]ModelRate, model string) (ModelRate, bool) {
	if r, ok := rates[model]; ok {
		return r, true
	}
	var (
		best    ModelRate
		bestLen int
	)
	for name, r := range rates {
		if len(name) > bestLen && strings.HasPrefix(model, name) {
			best, bestLen = r, len(name)
		}
	}
	return best, bestLen > 0
}

func tokenCost(rates map[string]ModelRate, model string, input, output int) float64 {
	rate, ok := lookup(rates, model)
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		OpenAI: map[string]ModelRate{
			"gpt-3.5-turbo": {Input: 0.50, Output: 1.50},
			"gpt-4o":        {Input: 2.50, Output: 10.00},
			"gpt-4o-mini":   {Input: 0.15, Output: 0.60},
			"gpt-4.1":       {Input: 2.00, Output: 8.00},
			"gpt-4.1-mini":  {Input: 0.40, Output: 1.60},
		},
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005},
		Firecrawl:  FirecrawlRate{PlanMonthly: 19.00, CreditsIncluded: 3000},
		Exa:        ExaRate{PerSearch: 0.005},
	}
}
