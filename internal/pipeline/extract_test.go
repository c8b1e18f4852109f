package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/extract"
	"github.com/sells-group/venue-enrichment/internal/model"
)

func testPage(html string) *model.CrawledPage {
	return &model.CrawledPage{URL: "https://venue.example.com/about", HTML: html, StatusCode: 200}
}

func TestExtractFields_HeuristicsCoverEverything(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>Booking: shows@venue.example.com or 415 555 0199</p>`)

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, []model.Field{model.FieldEmail, model.FieldPhone}, &usage)

	assert.Equal(t, "shows@venue.example.com", got[model.FieldEmail])
	assert.Equal(t, "415 555 0199", got[model.FieldPhone])
	deps.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	assert.Zero(t, usage.InputTokens)
}

func TestExtractFields_FewMissingSkipsStructured(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>shows@venue.example.com</p><a class="home" href="https://venue.example.com">Home</a>`)

	deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion(`<instruction>
<field>website</field>
<method>css_selector</method>
<pattern>a.home@href</pattern>
</instruction>`), nil).Once()

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, []model.Field{model.FieldEmail, model.FieldWebsite}, &usage)

	assert.Equal(t, "shows@venue.example.com", got[model.FieldEmail])
	assert.Equal(t, "https://venue.example.com", got[model.FieldWebsite])
	deps.llm.AssertNumberOfCalls(t, "Complete", 1)
	assert.Equal(t, 1000, usage.InputTokens)
}

func TestExtractFields_InstructionsTargetOnlyStillMissing(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>shows@venue.example.com</p>`)

	deps.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, instructionsMarker) &&
			strings.Contains(p, "Fields to extract: website") &&
			!strings.Contains(p, "email")
	})).Return(completion(""), nil).Once()

	var usage model.TokenUsage
	p.extractFields(context.Background(), "Venue", page, []model.Field{model.FieldEmail, model.FieldWebsite}, &usage)
	deps.llm.AssertExpectations(t)
}

func TestExtractFields_EmptyCollectedTriggersStructured(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<div>No contact details here</div>`)

	deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion("nothing useful"), nil).Once()
	deps.llm.On("Complete", mock.Anything, promptWith(structuredMarker)).
		Return(completion("<venue_data>\n<website>venue.example.com</website>\n</venue_data>"), nil).Once()

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, []model.Field{model.FieldWebsite}, &usage)

	assert.Equal(t, map[model.Field]string{model.FieldWebsite: "https://venue.example.com"}, got)
	deps.llm.AssertExpectations(t)
	assert.Equal(t, 2000, usage.InputTokens)
}

func TestExtractFields_LLMFailuresTolerated(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>shows@venue.example.com</p>`)

	deps.llm.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("llm: status 503"))

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, model.AllFields(), &usage)

	assert.Equal(t, map[model.Field]string{model.FieldEmail: "shows@venue.example.com"}, got)
	deps.llm.AssertNumberOfCalls(t, "Complete", 2)
}

func TestExtractFields_BadPatternTolerated(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>Nothing</p>`)

	deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion(`<instruction>
<field>phone</field>
<method>regex</method>
<pattern>([0-9</pattern>
</instruction>`), nil).Once()
	deps.llm.On("Complete", mock.Anything, promptWith(structuredMarker)).
		Return(completion("<venue_data>\n<phone>+1 (415) 555-0199</phone>\n</venue_data>"), nil).Once()

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, []model.Field{model.FieldPhone}, &usage)
	assert.Equal(t, "+1 (415) 555-0199", got[model.FieldPhone])
}

func TestExtractFields_MergePolicies(t *testing.T) {
	html := `<meta name="description" content="A small room.">
<p>shows@venue.example.com 415 555 0199</p>`
	structured := `<venue_data>
<description>A long-running listening room for folk and jazz.</description>
<website>https://venue.example.com</website>
<twitter_url>https://twitter.com/venue</twitter_url>
<logo_url>/logo.png</logo_url>
</venue_data>`

	tests := []struct {
		policy          extract.MergePolicy
		wantEmail       bool
		wantDescription string
	}{
		{policy: extract.ReplaceIfLarger, wantEmail: false, wantDescription: "A long-running listening room for folk and jazz."},
		{policy: extract.MergeAlways, wantEmail: true, wantDescription: "A long-running listening room for folk and jazz."},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			p, deps := newTestPipeline(t, testConfig(), nil)
			p.policy = tt.policy
			deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion(""), nil)
			deps.llm.On("Complete", mock.Anything, promptWith(structuredMarker)).Return(completion(structured), nil)

			var usage model.TokenUsage
			got := p.extractFields(context.Background(), "Venue", testPage(html), model.AllFields(), &usage)

			_, hasEmail := got[model.FieldEmail]
			assert.Equal(t, tt.wantEmail, hasEmail)
			assert.Equal(t, tt.wantDescription, got[model.FieldDescription])
			assert.Equal(t, "https://venue.example.com/logo.png", got[model.FieldLogoURL])
		})
	}
}

func TestExtractFields_FiltersImplausibleValues(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage(`<p>Nothing</p>`)

	deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion(""), nil)
	deps.llm.On("Complete", mock.Anything, promptWith(structuredMarker)).Return(completion(`<venue_data>
<email>bad</email>
<phone>12345</phone>
<website>ftp://venue.example.com</website>
<description>   </description>
<instagram_url>//instagram.com/venue</instagram_url>
</venue_data>`), nil)

	var usage model.TokenUsage
	got := p.extractFields(context.Background(), "Venue", page, model.AllFields(), &usage)
	assert.Equal(t, map[model.Field]string{model.FieldInstagramURL: "https://instagram.com/venue"}, got)
}

func TestExtractFields_TruncatesHTMLPreview(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	page := testPage("<p>" + strings.Repeat("x", 6000) + "TAIL</p>")

	deps.llm.On("Complete", mock.Anything, promptWith(instructionsMarker)).Return(completion(""), nil)
	deps.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, structuredMarker) &&
			strings.Contains(p, truncatedSuffix) &&
			!strings.Contains(p, "TAIL")
	})).Return(completion(""), nil).Once()

	var usage model.TokenUsage
	p.extractFields(context.Background(), "Venue", page, model.AllFields(), &usage)
	deps.llm.AssertExpectations(t)
}

func TestScrapeSource_SkipsCompleteVenue(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	venue := model.NewVenue("Full House")
	for _, f := range model.AllFields() {
		venue.SetField(f, "https://full.example.com", "seed")
	}

	var usage model.TokenUsage
	applied := p.scrapeSource(context.Background(), venue.Name, venue, "https://full.example.com", &usage)
	assert.Zero(t, applied)
	deps.scraper.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
}

func TestScrapeSource_NeverOverwrites(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	venue := model.NewVenue("Venue")
	venue.SetField(model.FieldEmail, "first@venue.example.com", "https://first.example.com")

	deps.scraper.On("Scrape", mock.Anything, "https://second.example.com").Return(&model.CrawledPage{
		URL:     "https://second.example.com",
		HTML:    `<p>second@venue.example.com</p><meta name="description" content="Second source.">`,
		Tokens:  2000,
		Credits: 0,
	}, nil)
	deps.llm.On("Complete", mock.Anything, mock.Anything).Return(completion(""), nil)

	var usage model.TokenUsage
	applied := p.scrapeSource(context.Background(), venue.Name, venue, "https://second.example.com", &usage)

	assert.Equal(t, 1, applied)
	email, _ := venue.Get(model.FieldEmail)
	assert.Equal(t, "first@venue.example.com", email)
	assert.Equal(t, "https://first.example.com", venue.Provenance[string(model.FieldEmail)])
	assert.Equal(t, "https://second.example.com", venue.Provenance[string(model.FieldDescription)])
	assert.Greater(t, usage.Cost, 0.0)
}

func TestScrapeSource_FetchErrorContributesNothing(t *testing.T) {
	p, deps := newTestPipeline(t, testConfig(), nil)
	venue := model.NewVenue("Venue")
	deps.scraper.On("Scrape", mock.Anything, mock.Anything).Return(nil, errors.New("status 404"))

	var usage model.TokenUsage
	applied := p.scrapeSource(context.Background(), venue.Name, venue, "https://gone.example.com", &usage)
	assert.Zero(t, applied)
	assert.Zero(t, venue.FieldCount())
}

func TestParseInstructions(t *testing.T) {
	text := `<instruction>
<field>Email</field>
<method>REGEX</method>
<pattern>([a-z]+@[a-z.]+)</pattern>
<reasoning>contact block</reasoning>
</instruction>
<instruction>
<field>phone</field>
<method>css_selector</method>
<pattern>.tel</pattern>
<priority>3</priority>
</instruction>
<instruction>
<field>website</field>
<method>css_selector</method>
<pattern>a</pattern>
</instruction>
<instruction>
<field>email</field>
<method>screenshot</method>
<pattern>x</pattern>
</instruction>
<instruction>
<field>phone</field>
<method>text_search</method>
<pattern>Tel</pattern>
<priority>soon</priority>
</instruction>
<instruction>
<field>phone</field>
<pattern>missing method</pattern>
</instruction>`

	got := parseInstructions(text, []model.Field{model.FieldEmail, model.FieldPhone})
	require.Len(t, got, 3)

	assert.Equal(t, model.ScrapingInstruction{
		Field:     model.FieldEmail,
		Method:    model.MethodRegex,
		Pattern:   "([a-z]+@[a-z.]+)",
		Priority:  1,
		Reasoning: "contact block",
	}, got[0])
	assert.Equal(t, 3, got[1].Priority)
	assert.Equal(t, model.MethodTextSearch, got[2].Method)
	assert.Equal(t, 1, got[2].Priority)
}
