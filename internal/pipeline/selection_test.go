package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/model"
)

func rankedN(n int) []model.RankedSource {
	out := make([]model.RankedSource, n)
	for i := range out {
		out[i] = model.RankedSource{
			Result: model.SearchResult{URL: fmt.Sprintf("https://source%d.example.com", i)},
			Score:  1 - float64(i)/10,
		}
	}
	return out
}

func TestSelectSources_PoolCappedAtFive(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	venue := model.NewVenue("Venue")
	venue.SetField(model.FieldEmail, "a@venue.example.com", "seed")

	deps.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, selectMarker) &&
			strings.Contains(p, "source4.example.com") &&
			!strings.Contains(p, "source5.example.com") &&
			strings.Contains(p, "No title") &&
			!strings.Contains(p, "email")
	})).Return(completion("<source>https://source2.example.com</source>\n<source> https://source0.example.com </source>\n<source>https://source2.example.com</source>"), nil).Once()

	var usage model.TokenUsage
	got, err := p.selectSources(context.Background(), venue, rankedN(7), &usage)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://source2.example.com", "https://source0.example.com"}, got)
	deps.llm.AssertExpectations(t)
}

func TestSelectSources_NoURLsIsError(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	deps.llm.On("Complete", mock.Anything, mock.Anything).Return(completion("I would scrape the first one."), nil)

	var usage model.TokenUsage
	_, err := p.selectSources(context.Background(), model.NewVenue("Venue"), rankedN(2), &usage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources selected from 2 candidates")
}

func TestSelectSources_WrappedOneLineReply(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	deps.llm.On("Complete", mock.Anything, mock.Anything).
		Return(completion("<sources><source>https://source1.example.com</source></sources>"), nil).Once()

	var usage model.TokenUsage
	got, err := p.selectSources(context.Background(), model.NewVenue("Venue"), rankedN(2), &usage)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://source1.example.com"}, got)
}

func TestSelectSources_TextPreviewTruncated(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	ranked := []model.RankedSource{{
		Result: model.SearchResult{URL: "https://a.example.com", Title: "A", Text: strings.Repeat("y", 300)},
		Score:  0.9,
	}}

	deps.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, strings.Repeat("y", 200)+"...") && !strings.Contains(p, strings.Repeat("y", 201))
	})).Return(completion("<source>https://a.example.com</source>"), nil).Once()

	var usage model.TokenUsage
	got, err := p.selectSources(context.Background(), model.NewVenue("Venue"), ranked, &usage)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com"}, got)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10, "..."))
	assert.Equal(t, "abc...", preview("abcdef", 3, "..."))
	assert.Equal(t, "héé", preview("hééllo", 3, ""))
	assert.Equal(t, "", preview("", 3, "..."))
}
