package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/venue-enrichment/pkg/anthropic"
	"github.com/sells-group/venue-enrichment/pkg/perplexity"
)

type mockClient struct{ mock.Mock }

func (m *mockClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	args := m.Called(ctx, prompt)
	if c := args.Get(0); c != nil {
		return c.(*Completion), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnthropic struct{ mock.Mock }

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPerplexity struct{ mock.Mock }

func (m *mockPerplexity) Chat(ctx context.Context, req perplexity.ChatRequest) (*perplexity.ChatResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*perplexity.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
