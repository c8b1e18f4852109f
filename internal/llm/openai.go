package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAI creates an OpenAI-compatible client. An empty BaseURL uses the
// public OpenAI endpoint.
func NewOpenAI(s Settings) *OpenAI {
	cfg := openai.DefaultConfig(s.APIKey)
	cfg.BaseURL = defaultOpenAIBaseURL
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	temp := float32(s.temperature())
	if temp == 0 {
		// go-openai drops a zero temperature from the request body.
		temp = math.SmallestNonzeroFloat32
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temp,
		maxTokens:   s.maxTokens(),
	}
}

// Complete performs one chat completion request.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ResponseParseError{Provider: "openai", Err: errNoChoices}
	}
	return &Completion{
		Text:     resp.Choices[0].Message.Content,
		Model:    resp.Model,
		Provider: "openai",
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &TransportError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	if isDecodeError(err) {
		return &ResponseParseError{Provider: "openai", Err: err}
	}
	return &TransportError{Provider: "openai", Err: err}
}

// isDecodeError reports whether err came from decoding a response body
// rather than from the network. A body cut short decodes to
// io.ErrUnexpectedEOF.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
