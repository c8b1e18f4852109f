package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/config"
	"github.com/sells-group/venue-enrichment/internal/cost"
	"github.com/sells-group/venue-enrichment/internal/extract"
	"github.com/sells-group/venue-enrichment/internal/llm"
	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/resilience"
	"github.com/sells-group/venue-enrichment/internal/scrape"
	"github.com/sells-group/venue-enrichment/internal/search"
	"github.com/sells-group/venue-enrichment/internal/store"
)

const (
	defaultMaxSources  = 3
	defaultPoolSize    = 5
	defaultSourceDelay = 500 * time.Millisecond
)

// Renderer renders a named prompt template.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// Pipeline enriches one venue at a time: search, rank, select, scrape,
// extract and validate.
type Pipeline struct {
	cfg         *config.Config
	store       store.Store
	search      search.Provider
	scraper     scrape.Scraper
	llm         llm.Client
	prompts     Renderer
	blocklist   *Blocklist
	costCalc    *cost.Calculator
	policy      extract.MergePolicy
	breakers    *resilience.ServiceBreakers
	sourceDelay time.Duration
	maxSources  int
	poolSize    int
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	searchProvider search.Provider,
	scraper scrape.Scraper,
	llmClient llm.Client,
	prompts Renderer,
) (*Pipeline, error) {
	policy, err := extract.ParseMergePolicy(cfg.Pipeline.MergePolicy)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: merge policy")
	}

	p := &Pipeline{
		cfg:         cfg,
		store:       st,
		search:      searchProvider,
		scraper:     scraper,
		llm:         llmClient,
		prompts:     prompts,
		blocklist:   NewBlocklist(cfg.Blocklist.Domains),
		costCalc:    cost.NewCalculator(cost.DefaultRates()),
		policy:      policy,
		sourceDelay: defaultSourceDelay,
		maxSources:  defaultMaxSources,
		poolSize:    defaultPoolSize,
	}
	if cfg.RateLimit.DelayBetweenRequestsMs > 0 {
		p.sourceDelay = time.Duration(cfg.RateLimit.DelayBetweenRequestsMs) * time.Millisecond
	}
	if cfg.Scrape.MaxSources > 0 {
		p.maxSources = cfg.Scrape.MaxSources
	}
	if cfg.Pipeline.SelectionPoolSize > 0 {
		p.poolSize = cfg.Pipeline.SelectionPoolSize
	}
	return p, nil
}

// WithBreakers registers the circuit breakers guarding the pipeline's
// clients. They are closed again before every venue.
func (p *Pipeline) WithBreakers(sb *resilience.ServiceBreakers) *Pipeline {
	p.breakers = sb
	return p
}

// Result is the outcome of enriching one venue.
type Result struct {
	RunID   string
	Venue   *model.Venue
	State   model.VenueState
	Usage   model.TokenUsage
	CostUSD float64
}

// Run enriches a single venue. Skipped venues are returned with a nil error.
// A StageError is returned when search, ranking or selection fail, or when
// ctx is cancelled; the Result is still populated with the failed state.
func (p *Pipeline) Run(ctx context.Context, input model.VenueInput) (*Result, error) {
	log := zap.L().With(zap.String("venue", input.Name))
	log.Info("pipeline: starting enrichment")
	if p.breakers != nil {
		p.breakers.ResetAll()
	}

	venue := model.NewVenue(input.Name)
	result := &Result{Venue: venue, State: model.StateInit}

	run, err := p.store.CreateRun(ctx, input)
	if err != nil {
		log.Warn("pipeline: failed to create run", zap.Error(err))
	} else {
		result.RunID = run.ID
	}

	setState := func(state model.VenueState) {
		result.State = state
		if run == nil {
			return
		}
		if stateErr := p.store.UpdateRunState(ctx, run.ID, state); stateErr != nil {
			log.Warn("pipeline: failed to update state", zap.String("state", string(state)), zap.Error(stateErr))
		}
	}

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		var phase *model.RunPhase
		if run != nil {
			var phaseErr error
			phase, phaseErr = p.store.CreatePhase(ctx, run.ID, name)
			if phaseErr != nil {
				log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
			}
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		switch {
		case fnErr != nil:
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		case phaseResult.Status == model.PhaseStatusSkipped:
			log.Warn("pipeline: phase skipped", zap.String("phase", name), zap.Int64("duration_ms", duration))
		default:
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		result.Usage.Add(phaseResult.TokenUsage)
		if phase != nil {
			if completeErr := p.store.CompletePhase(ctx, phase.ID, phaseResult); completeErr != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(completeErr))
			}
		}
		return fnErr
	}

	finish := func(state model.VenueState, cause error) (*Result, error) {
		result.State = state
		result.CostUSD = result.Usage.Cost
		outcome := &model.RunOutcome{State: state, Venue: venue, CostUSD: result.CostUSD}
		if cause != nil {
			outcome.Error = cause.Error()
		}
		if run != nil {
			if completeErr := p.store.CompleteRun(ctx, run.ID, outcome); completeErr != nil {
				log.Warn("pipeline: failed to complete run", zap.Error(completeErr))
			}
		}
		log.Info("pipeline: enrichment finished",
			zap.String("state", string(state)),
			zap.Int("fields_found", venue.FieldCount()),
			zap.Float64("cost_usd", result.CostUSD),
		)
		if p.breakers != nil {
			for service, st := range p.breakers.States() {
				if st != resilience.CircuitClosed {
					log.Warn("pipeline: breaker not closed at venue end",
						zap.String("service", service),
						zap.Stringer("state", st),
					)
				}
			}
		}
		return result, cause
	}

	fail := func(stage string, err error) (*Result, error) {
		return finish(model.StateFailed, &StageError{Stage: stage, Venue: input.Name, Err: err})
	}

	// ===== Search =====
	var results []model.SearchResult
	err = trackPhase(StageSearch, func() (*model.PhaseResult, error) {
		resp, searchErr := p.search.Search(ctx, input)
		if searchErr != nil {
			return nil, searchErr
		}
		results = resp.Results
		searchCost := resp.CostUSD
		if searchCost == 0 && p.search.Name() == "exa" {
			searchCost = p.costCalc.ExaSearch()
		}
		pr := &model.PhaseResult{
			TokenUsage: model.TokenUsage{Cost: searchCost},
			Metadata: map[string]any{
				"provider":   p.search.Name(),
				"results":    len(resp.Results),
				"request_id": resp.RequestID,
			},
		}
		if len(results) == 0 {
			pr.Status = model.PhaseStatusSkipped
		}
		return pr, nil
	})
	if err != nil {
		return fail(StageSearch, err)
	}
	if len(results) == 0 {
		log.Warn("pipeline: no search results, skipping enrichment")
		return finish(model.StateSkipped, nil)
	}
	setState(model.StateSearched)

	// ===== Rank =====
	var ranked []model.RankedSource
	err = trackPhase(StageRank, func() (*model.PhaseResult, error) {
		var usage model.TokenUsage
		r, rankErr := p.rankSources(ctx, input.Name, results, &usage)
		if rankErr != nil {
			return &model.PhaseResult{TokenUsage: usage}, rankErr
		}
		ranked = r
		pr := &model.PhaseResult{
			TokenUsage: usage,
			Metadata:   map[string]any{"ranked": len(r)},
		}
		if len(r) == 0 {
			pr.Status = model.PhaseStatusSkipped
		}
		return pr, nil
	})
	if err != nil {
		return fail(StageRank, err)
	}
	if len(ranked) == 0 {
		log.Warn("pipeline: all sources filtered out, skipping enrichment")
		return finish(model.StateSkipped, nil)
	}
	setState(model.StateRanked)

	// ===== Select =====
	var selected []string
	err = trackPhase(StageSelect, func() (*model.PhaseResult, error) {
		var usage model.TokenUsage
		urls, selErr := p.selectSources(ctx, venue, ranked, &usage)
		if selErr != nil {
			return &model.PhaseResult{TokenUsage: usage}, selErr
		}
		selected = urls
		return &model.PhaseResult{
			TokenUsage: usage,
			Metadata:   map[string]any{"selected": urls},
		}, nil
	})
	if err != nil {
		return fail(StageSelect, err)
	}
	setState(model.StateSourcesSelected)

	// ===== Scrape + extract =====
	if len(selected) > p.maxSources {
		selected = selected[:p.maxSources]
	}
	setState(model.StateScraping)
	err = trackPhase(StageScrape, func() (*model.PhaseResult, error) {
		var usage model.TokenUsage
		applied := 0
		for i, sourceURL := range selected {
			applied += p.scrapeSource(ctx, input.Name, venue, sourceURL, &usage)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &model.PhaseResult{TokenUsage: usage}, eris.Wrap(ctxErr, "pipeline: scrape cancelled")
			}
			log.Debug("pipeline: source attempt finished", zap.Int("attempt", i+1), zap.String("url", sourceURL))
			if sleepErr := resilience.Sleep(ctx, p.sourceDelay); sleepErr != nil {
				return &model.PhaseResult{TokenUsage: usage}, eris.Wrap(sleepErr, "pipeline: scrape cancelled")
			}
		}
		return &model.PhaseResult{
			TokenUsage: usage,
			Metadata: map[string]any{
				"sources":        len(selected),
				"fields_applied": applied,
			},
		}, nil
	})
	if err != nil {
		return fail(StageScrape, err)
	}
	setState(model.StateExtracted)

	// ===== Validate =====
	_ = trackPhase(StageValidate, func() (*model.PhaseResult, error) {
		pr := &model.PhaseResult{Metadata: map[string]any{"fields_found": venue.FieldCount()}}
		if verr := venue.Validate(); verr != nil {
			log.Warn("pipeline: venue validation failed", zap.Error(verr))
			pr.Metadata["warning"] = verr.Error()
		}
		return pr, nil
	})
	setState(model.StateValidated)

	return finish(model.StateDone, nil)
}

// complete sends prompt to the LLM and adds the call's tokens and cost to usage.
func (p *Pipeline) complete(ctx context.Context, prompt string, usage *model.TokenUsage) (string, error) {
	c, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	usage.Add(model.TokenUsage{
		InputTokens:  c.Usage.InputTokens,
		OutputTokens: c.Usage.OutputTokens,
		Cost:         p.costCalc.Completion(c.Provider, c.Model, c.Usage.InputTokens, c.Usage.OutputTokens),
	})
	return c.Text, nil
}
