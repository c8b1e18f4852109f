package llm

import (
	"context"

	"github.com/sells-group/venue-enrichment/pkg/anthropic"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic adapts the Messages API to Client.
type Anthropic struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAnthropic creates an Anthropic-backed client.
func NewAnthropic(s Settings) *Anthropic {
	var opts []anthropic.Option
	if s.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(s.BaseURL))
	}
	return newAnthropicWith(anthropic.NewClient(s.APIKey, opts...), s)
}

func newAnthropicWith(c anthropic.Client, s Settings) *Anthropic {
	model := s.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		client:      c,
		model:       model,
		temperature: s.temperature(),
		maxTokens:   int64(s.maxTokens()),
	}
}

// Complete performs one Messages API call.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (*Completion, error) {
	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      SystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		if isDecodeError(err) {
			return nil, &ResponseParseError{Provider: "anthropic", Err: err}
		}
		return nil, &TransportError{Provider: "anthropic", StatusCode: anthropic.StatusCode(err), Err: err}
	}
	if len(resp.Content) == 0 {
		return nil, &ResponseParseError{Provider: "anthropic", Err: errNoChoices}
	}
	return &Completion{
		Text:     resp.Text(),
		Model:    resp.Model,
		Provider: "anthropic",
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
