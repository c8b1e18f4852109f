// Package llm sends prompts to a chat-completion provider and classifies
// failures so callers can decide what is worth retrying.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// SystemPrompt is sent ahead of every user prompt.
const SystemPrompt = "You are a helpful AI assistant that always responds with valid XML when requested. Be precise and accurate in your analysis."

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 2000
)

// Client produces a single completion for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Completion is the text of the first choice plus accounting data.
type Completion struct {
	Text     string
	Model    string
	Provider string
	Usage    Usage
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// TransportError covers network failures and non-success HTTP statuses.
// StatusCode is 0 when no response was received.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("llm: %s transport failure: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("llm: %s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseParseError means the provider answered successfully but the body
// could not be decoded or carried no choices.
type ResponseParseError struct {
	Provider string
	Err      error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("llm: %s response unusable: %v", e.Provider, e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

var errNoChoices = eris.New("no choices in response")

// Settings selects and configures a provider.
type Settings struct {
	Provider    string // openai, anthropic or perplexity
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil uses the default; zero is honored
	MaxTokens   int
}

func (s Settings) temperature() float64 {
	if s.Temperature == nil || *s.Temperature < 0 {
		return defaultTemperature
	}
	return *s.Temperature
}

func (s Settings) maxTokens() int {
	if s.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return s.MaxTokens
}

// New builds a single-attempt client for the configured provider.
func New(s Settings) (Client, error) {
	if s.APIKey == "" {
		return nil, eris.Errorf("llm: api key required for provider %q", s.Provider)
	}
	switch strings.ToLower(s.Provider) {
	case "", "openai":
		return NewOpenAI(s), nil
	case "anthropic":
		return NewAnthropic(s), nil
	case "perplexity":
		return NewPerplexity(s), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", s.Provider)
	}
}
