package llm

import (
	"context"
	"errors"

	"github.com/sells-group/venue-enrichment/pkg/perplexity"
)

// Perplexity adapts the Perplexity chat API to Client.
type Perplexity struct {
	client      perplexity.Client
	temperature float64
	maxTokens   int
}

// NewPerplexity creates a Perplexity-backed client.
func NewPerplexity(s Settings) *Perplexity {
	var opts []perplexity.Option
	if s.BaseURL != "" {
		opts = append(opts, perplexity.WithBaseURL(s.BaseURL))
	}
	if s.Model != "" {
		opts = append(opts, perplexity.WithModel(s.Model))
	}
	return newPerplexityWith(perplexity.NewClient(s.APIKey, opts...), s)
}

func newPerplexityWith(client perplexity.Client, s Settings) *Perplexity {
	return &Perplexity{
		client:      client,
		temperature: s.temperature(),
		maxTokens:   s.maxTokens(),
	}
}

// Complete performs one chat completion request.
func (p *Perplexity) Complete(ctx context.Context, prompt string) (*Completion, error) {
	temp := p.temperature
	resp, err := p.client.Chat(ctx, perplexity.ChatRequest{
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: &temp,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		var apiErr *perplexity.APIError
		if errors.As(err, &apiErr) {
			return nil, &TransportError{Provider: "perplexity", StatusCode: apiErr.StatusCode, Err: err}
		}
		var decErr *perplexity.DecodeError
		if errors.As(err, &decErr) {
			return nil, &ResponseParseError{Provider: "perplexity", Err: err}
		}
		return nil, &TransportError{Provider: "perplexity", Err: err}
	}
	return &Completion{
		Text:     resp.Content,
		Model:    resp.Model,
		Provider: "perplexity",
		Usage: Usage{
			InputTokens:  resp.PromptTokens,
			OutputTokens: resp.CompletionTokens,
		},
	}, nil
}
