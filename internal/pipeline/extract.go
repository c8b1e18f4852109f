package pipeline

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/extract"
	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/prompt"
	"github.com/sells-group/venue-enrichment/internal/tagparse"
)

const (
	contentPreviewLen    = 1000
	htmlPreviewLen       = 5000
	structuredMinGap     = 2
	truncatedSuffix      = "...[truncated]"
	structuredDataTag    = "venue_data"
	defaultInstrPriority = 1
)

var instructionSpec = tagparse.BlockSpec{
	Tag:      "instruction",
	Required: []string{"field", "method", "pattern"},
	Optional: []string{"priority", "reasoning"},
}

// scrapeSource fetches one selected source and applies whatever it yields to
// venue. Failures are logged and contribute nothing. Returns the number of
// fields newly set.
func (p *Pipeline) scrapeSource(ctx context.Context, venueName string, venue *model.Venue, sourceURL string, usage *model.TokenUsage) int {
	log := zap.L().With(zap.String("venue", venueName), zap.String("url", sourceURL))

	missing := venue.MissingFields()
	if len(missing) == 0 {
		log.Debug("pipeline: venue complete, skipping source")
		return 0
	}

	page, err := p.scraper.Scrape(ctx, sourceURL)
	if err != nil {
		log.Warn("pipeline: scrape failed", zap.Error(err))
		return 0
	}
	usage.Add(model.TokenUsage{
		Cost: p.costCalc.Jina(page.Tokens) + p.costCalc.FirecrawlCredits(page.Credits),
	})

	values := p.extractFields(ctx, venueName, page, missing, usage)

	applied := 0
	for _, f := range model.AllFields() {
		v, ok := values[f]
		if !ok {
			continue
		}
		if venue.SetField(f, v, page.URL) {
			applied++
		}
	}
	log.Info("pipeline: source extracted",
		zap.String("scraper", page.Source),
		zap.Int("values", len(values)),
		zap.Int("applied", applied),
	)
	return applied
}

// extractFields runs heuristics, then LLM-written instructions for whatever
// is still missing, then a full structured extraction when too little was
// found. The result is filtered and URL-normalized against the page URL.
func (p *Pipeline) extractFields(ctx context.Context, venueName string, page *model.CrawledPage, missing []model.Field, usage *model.TokenUsage) map[model.Field]string {
	log := zap.L().With(zap.String("venue", venueName), zap.String("url", page.URL))

	collected := extract.Heuristic(page.HTML)
	stillMissing := slices.DeleteFunc(slices.Clone(missing), func(f model.Field) bool {
		_, ok := collected[f]
		return ok
	})
	if len(stillMissing) == 0 {
		return extract.FilterValues(collected, page.URL)
	}

	instructions, err := p.requestInstructions(ctx, venueName, page, stillMissing, usage)
	if err != nil {
		log.Warn("pipeline: scraping instructions failed", zap.Error(err))
	} else if len(instructions) > 0 {
		found, execErr := extract.Execute(page.HTML, instructions)
		if execErr != nil {
			log.Warn("pipeline: instruction extraction failed", zap.Error(execErr))
		} else {
			maps.Copy(collected, found)
		}
	}

	if len(collected) == 0 || len(stillMissing) > structuredMinGap {
		ai, aiErr := p.requestStructured(ctx, venueName, page, stillMissing, usage)
		if aiErr != nil {
			log.Warn("pipeline: structured extraction failed", zap.Error(aiErr))
		} else {
			collected = extract.Merge(collected, ai, p.policy)
		}
	}

	return extract.FilterValues(collected, page.URL)
}

// requestInstructions asks the LLM for extraction rules targeting fields.
// Blocks naming an unknown field or method, or a field that is not being
// targeted, are dropped.
func (p *Pipeline) requestInstructions(ctx context.Context, venueName string, page *model.CrawledPage, fields []model.Field, usage *model.TokenUsage) ([]model.ScrapingInstruction, error) {
	var contentPreview any
	if page.HTML != "" {
		contentPreview = preview(page.HTML, contentPreviewLen, "")
	}
	text, err := p.renderAndComplete(ctx, prompt.ScrapingInstructions, map[string]any{
		"venue_name":      venueName,
		"missing_fields":  model.FieldStrings(fields),
		"source_url":      page.URL,
		"content_preview": contentPreview,
	}, usage)
	if err != nil {
		return nil, err
	}
	return parseInstructions(text, fields), nil
}

func parseInstructions(text string, targets []model.Field) []model.ScrapingInstruction {
	var out []model.ScrapingInstruction
	for _, b := range tagparse.ParseBlocks(text, instructionSpec) {
		field, err := model.ParseField(b["field"])
		if err != nil || !slices.Contains(targets, field) {
			zap.L().Debug("pipeline: instruction field ignored", zap.String("field", b["field"]))
			continue
		}
		method, err := model.ParseMethod(b["method"])
		if err != nil {
			zap.L().Debug("pipeline: instruction method ignored", zap.String("method", b["method"]))
			continue
		}
		priority := defaultInstrPriority
		if raw := strings.TrimSpace(b["priority"]); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				priority = n
			}
		}
		out = append(out, model.ScrapingInstruction{
			Field:     field,
			Method:    method,
			Pattern:   b["pattern"],
			Priority:  priority,
			Reasoning: b["reasoning"],
		})
	}
	return out
}

// requestStructured asks the LLM to read fields straight out of the page.
// Unknown field names in the reply are dropped.
func (p *Pipeline) requestStructured(ctx context.Context, venueName string, page *model.CrawledPage, fields []model.Field, usage *model.TokenUsage) (map[model.Field]string, error) {
	text, err := p.renderAndComplete(ctx, prompt.StructuredExtraction, map[string]any{
		"venue_name":    venueName,
		"source_url":    page.URL,
		"html_preview":  preview(page.HTML, htmlPreviewLen, truncatedSuffix),
		"target_fields": model.FieldStrings(fields),
	}, usage)
	if err != nil {
		return nil, err
	}

	out := make(map[model.Field]string)
	for name, value := range tagparse.ParseFieldMap(text, structuredDataTag) {
		field, parseErr := model.ParseField(name)
		if parseErr != nil {
			continue
		}
		out[field] = value
	}
	return out, nil
}
