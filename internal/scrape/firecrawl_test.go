package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/pkg/firecrawl"
)

func TestFirecrawlAdapter_Scrape_Success(t *testing.T) {
	t.Parallel()
	client := &mockFirecrawl{}
	client.On("Scrape", mock.Anything, firecrawl.ScrapeRequest{URL: "https://bluenote.net", Formats: []string{"rawHtml"}}).
		Return(&firecrawl.ScrapeResponse{
			Success: true,
			Data:    firecrawl.PageData{URL: "https://bluenote.net", Title: "Blue Note", RawHTML: "<html>raw</html>", StatusCode: 200},
		}, nil)

	adapter := NewFirecrawlAdapter(client)
	assert.Equal(t, "firecrawl", adapter.Name())
	assert.True(t, adapter.Supports("anything"))

	page, err := adapter.Scrape(context.Background(), "https://bluenote.net")
	require.NoError(t, err)
	assert.Equal(t, "<html>raw</html>", page.HTML)
	assert.Equal(t, "firecrawl", page.Source)
	assert.Equal(t, 200, page.StatusCode)
	client.AssertExpectations(t)
}

func TestFirecrawlAdapter_Scrape_FallsBackToHTML(t *testing.T) {
	t.Parallel()
	client := &mockFirecrawl{}
	client.On("Scrape", mock.Anything, mock.Anything).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data:    firecrawl.PageData{HTML: "<main>cleaned</main>"},
	}, nil)

	page, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://bluenote.net")
	require.NoError(t, err)
	assert.Equal(t, "<main>cleaned</main>", page.HTML)
	assert.Equal(t, "https://bluenote.net", page.URL)
}

func TestFirecrawlAdapter_Scrape_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resp   *firecrawl.ScrapeResponse
		err    error
		reason string
	}{
		{name: "client error", err: errors.New("api down")},
		{name: "not successful", resp: &firecrawl.ScrapeResponse{Success: false}, reason: "scrape not successful"},
		{name: "empty", resp: &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{RawHTML: "  "}}, reason: "empty body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := &mockFirecrawl{}
			if tt.err != nil {
				client.On("Scrape", mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				client.On("Scrape", mock.Anything, mock.Anything).Return(tt.resp, nil)
			}

			_, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://bluenote.net")
			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.reason, fe.Reason)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}
