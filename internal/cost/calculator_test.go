package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		OpenAI: map[string]ModelRate{
			"gpt-4o":      {Input: 2.50, Output: 10.00},
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
		},
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5": {Input: 0.80, Output: 4.00},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005},
		Firecrawl:  FirecrawlRate{PlanMonthly: 19.00, CreditsIncluded: 3000},
		Exa:        ExaRate{PerSearch: 0.005},
	}
}

func TestOpenAI(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name  string
		model string
		want  float64
	}{
		{"exact", "gpt-4o-mini", 0.15 + 0.06},
		{"dated snapshot", "gpt-4o-mini-2024-07-18", 0.15 + 0.06},
		{"longest prefix wins", "gpt-4o-2024-08-06", 2.50 + 1.00},
		{"unknown", "o3", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.OpenAI(tt.model, 1000000, 100000), 0.0001)
		})
	}
}

func TestAnthropic(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.80+0.40, calc.Anthropic("claude-haiku-4-5-20251001", 1000000, 100000), 0.0001)
	assert.InDelta(t, 2000.0/1e6*0.80+500.0/1e6*4.00, calc.Anthropic("claude-haiku-4-5", 2000, 500), 0.000001)
	assert.Zero(t, calc.Anthropic("claude-opus-4", 1000000, 1000000))
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		model    string
		want     float64
	}{
		{"openai", "openai", "gpt-4o-mini", 0.15 + 0.06},
		{"empty provider is openai", "", "gpt-4o-mini", 0.15 + 0.06},
		{"anthropic", "Anthropic", "claude-haiku-4-5-20251001", 0.80 + 0.40},
		{"perplexity flat", "perplexity", "sonar", 0.005},
		{"unpriced model", "openai", "local-llama", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Completion(tt.provider, tt.model, 1000000, 100000), 0.0001)
		})
	}
}

func TestJina(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		tokens int
		want   float64
	}{
		{"1M tokens", 1000000, 0.02},
		{"500K tokens", 500000, 0.01},
		{"zero tokens", 0, 0},
		{"small", 2150, 2150.0 / 1e6 * 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Jina(tt.tokens), 0.0001)
		})
	}
}

func TestFlatRates(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	assert.InDelta(t, 0.005, calc.PerplexityQuery(), 0.0001)
	assert.InDelta(t, 0.005, calc.ExaSearch(), 0.0001)
}

func TestFirecrawlCredits(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	assert.InDelta(t, 19.0/3000*2, calc.FirecrawlCredits(2), 0.00001)
	assert.Zero(t, NewCalculator(Rates{}).FirecrawlCredits(5))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	assert.Positive(t, calc.OpenAI("gpt-4o-mini-2024-07-18", 1000, 100))
	assert.Positive(t, calc.Anthropic("claude-haiku-4-5-20251001", 1000, 100))
	assert.Positive(t, calc.Jina(1000))
	assert.Positive(t, calc.FirecrawlCredits(1))
}
