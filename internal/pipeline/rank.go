package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/prompt"
	"github.com/sells-group/venue-enrichment/internal/tagparse"
)

var rankSpec = tagparse.BlockSpec{
	Tag:      "source",
	Required: []string{"url", "score"},
	Optional: []string{"reasoning"},
}

// rankSources drops blocklisted results, asks the LLM to score the rest and
// returns the scored results ordered by score, highest first. Ties keep the
// order the LLM listed them in. An empty filtered set returns nil without an
// LLM call.
func (p *Pipeline) rankSources(ctx context.Context, venueName string, results []model.SearchResult, usage *model.TokenUsage) ([]model.RankedSource, error) {
	filtered := p.blocklist.Filter(results)
	if dropped := len(results) - len(filtered); dropped > 0 {
		zap.L().Debug("pipeline: blocklisted results dropped",
			zap.String("venue", venueName),
			zap.Int("dropped", dropped),
		)
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	resultsJSON, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal search results")
	}
	text, err := p.renderAndComplete(ctx, prompt.RankSources, map[string]any{
		"venue_name":     venueName,
		"search_results": string(resultsJSON),
	}, usage)
	if err != nil {
		return nil, err
	}

	return parseRanking(text, filtered), nil
}

// parseRanking matches scored blocks back to the filtered results. Blocks
// with an unparseable score or a url outside the filtered set are dropped.
func parseRanking(text string, filtered []model.SearchResult) []model.RankedSource {
	byURL := make(map[string]model.SearchResult, len(filtered))
	for _, r := range filtered {
		if _, ok := byURL[r.URL]; !ok {
			byURL[r.URL] = r
		}
	}

	var ranked []model.RankedSource
	for _, b := range tagparse.ParseBlocks(text, rankSpec) {
		result, ok := byURL[strings.TrimSpace(b["url"])]
		if !ok {
			zap.L().Debug("pipeline: ranked url not in search results", zap.String("url", b["url"]))
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(b["score"]), 64)
		if err != nil {
			zap.L().Debug("pipeline: unparseable score", zap.String("url", b["url"]), zap.String("score", b["score"]))
			continue
		}
		ranked = append(ranked, model.RankedSource{
			Result:    result,
			Score:     score,
			Reasoning: b["reasoning"],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// renderAndComplete renders a named prompt and sends it to the LLM.
func (p *Pipeline) renderAndComplete(ctx context.Context, name string, data map[string]any, usage *model.TokenUsage) (string, error) {
	rendered, err := p.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	return p.complete(ctx, rendered, usage)
}
