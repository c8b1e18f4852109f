package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/prompt"
	"github.com/sells-group/venue-enrichment/internal/tagparse"
)

const textPreviewLen = 200

type sourceInfo struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	TextPreview string  `json:"text_preview"`
}

// selectSources asks the LLM which of the top ranked sources to scrape for
// the venue's missing fields. URLs come back in the LLM's order, without
// duplicates.
func (p *Pipeline) selectSources(ctx context.Context, venue *model.Venue, ranked []model.RankedSource, usage *model.TokenUsage) ([]string, error) {
	pool := ranked
	if len(pool) > p.poolSize {
		pool = pool[:p.poolSize]
	}

	infos := make([]sourceInfo, len(pool))
	for i, rs := range pool {
		title := rs.Result.Title
		if title == "" {
			title = "No title"
		}
		infos[i] = sourceInfo{
			URL:         rs.Result.URL,
			Title:       title,
			Score:       rs.Score,
			TextPreview: preview(rs.Result.Text, textPreviewLen, "..."),
		}
	}
	infoJSON, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal sources")
	}

	text, err := p.renderAndComplete(ctx, prompt.BestSources, map[string]any{
		"venue_name":     venue.Name,
		"sources_info":   string(infoJSON),
		"missing_fields": model.FieldStrings(venue.MissingFields()),
	}, usage)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	for _, u := range tagparse.ParseList(text, "source") {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, eris.Errorf("pipeline: no sources selected from %d candidates", len(pool))
	}
	return urls, nil
}

// preview truncates s to n runes, appending suffix only when it was cut.
func preview(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}
