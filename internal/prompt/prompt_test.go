package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine_RegistersAll(t *testing.T) {
	t.Parallel()

	e, err := NewDefaultEngine()
	require.NoError(t, err)
	for _, name := range []string{RankSources, BestSources, ScrapingInstructions, StructuredExtraction} {
		tmpl, ok := e.Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, tmpl.Source)
		assert.NotEmpty(t, tmpl.Schema)
	}
}

func TestRender_RankSources(t *testing.T) {
	t.Parallel()

	e, err := NewDefaultEngine()
	require.NoError(t, err)

	out, err := e.Render(RankSources, map[string]any{
		"venue_name":     "The Blue Note",
		"search_results": `[{"url":"https://bluenote.net"}]`,
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"The Blue Note"`)
	assert.Contains(t, out, `https://bluenote.net`)
	assert.Contains(t, out, "<source>")
}

func TestRender_ScrapingInstructions(t *testing.T) {
	t.Parallel()

	e, err := NewDefaultEngine()
	require.NoError(t, err)

	type ctx struct {
		VenueName      string   `json:"venue_name"`
		MissingFields  []string `json:"missing_fields"`
		SourceURL      string   `json:"source_url"`
		ContentPreview *string  `json:"content_preview"`
	}

	out, err := e.Render(ScrapingInstructions, ctx{
		VenueName:     "Blue Note",
		MissingFields: []string{"email", "phone"},
		SourceURL:     "https://bluenote.net/contact",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Fields to extract: email, phone")
	assert.Contains(t, out, "No content preview available.")

	preview := "<html><title>Blue Note</title>"
	out, err = e.Render(ScrapingInstructions, ctx{
		VenueName:      "Blue Note",
		MissingFields:  []string{"email"},
		SourceURL:      "https://bluenote.net",
		ContentPreview: &preview,
	})
	require.NoError(t, err)
	assert.Contains(t, out, preview)
}

func TestRender_SchemaViolations(t *testing.T) {
	t.Parallel()

	e, err := NewDefaultEngine()
	require.NoError(t, err)

	tests := []struct {
		name     string
		template string
		data     map[string]any
	}{
		{"missing required key", RankSources, map[string]any{"venue_name": "x"}},
		{"empty venue name", RankSources, map[string]any{"venue_name": "", "search_results": "[]"}},
		{"empty target fields", StructuredExtraction, map[string]any{
			"venue_name": "x", "source_url": "https://x.com", "html_preview": "<p>", "target_fields": []string{},
		}},
		{"wrong type", BestSources, map[string]any{"venue_name": "x", "sources_info": 5, "missing_fields": []string{}}},
		{"url not a uri", ScrapingInstructions, map[string]any{
			"venue_name": "x", "missing_fields": []string{"email"}, "source_url": "not a url",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Render(tt.template, tt.data)
			var rerr *RenderError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.template, rerr.Template)
		})
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := NewEngine().Render("nope", map[string]any{})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	schema := `{"type":"object","properties":{"name":{"type":"string","minLength":1}},"required":["name"]}`
	require.NoError(t, e.Register("greeting", "Hello {{.name}}!", schema))

	out, err := e.Render("greeting", map[string]any{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", out)

	_, err = e.Render("greeting", map[string]any{})
	assert.Error(t, err)

	assert.Error(t, e.Register("bad", "{{.name", schema))
	assert.Error(t, e.Register("bad", "ok", `{"type": 12}`))
	_, ok := e.Lookup("bad")
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a, b", join([]any{"a", "b"}, ", "))
	assert.Equal(t, "a|b", join([]string{"a", "b"}, "|"))
	assert.Equal(t, "", join(nil, ","))
}
