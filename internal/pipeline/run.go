package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/resilience"
)

// Processor enriches one venue.
type Processor interface {
	Run(ctx context.Context, input model.VenueInput) (*Result, error)
}

// DryRun is a Processor that makes no external calls. Every venue gets a
// placeholder description.
type DryRun struct{}

// Run returns a done venue with a mock description.
func (DryRun) Run(_ context.Context, input model.VenueInput) (*Result, error) {
	zap.L().Info("pipeline: dry run, would process venue", zap.String("venue", input.Name))
	venue := model.NewVenue(input.Name)
	venue.SetField(model.FieldDescription, "Mock description", "dry_run")
	return &Result{Venue: venue, State: model.StateDone}, nil
}

// Summary reports the totals of a batch.
type Summary struct {
	Attempted   int     `json:"attempted"`
	Processed   int     `json:"processed"`
	Complete    int     `json:"complete"`
	Skipped     int     `json:"skipped"`
	Failed      int     `json:"failed"`
	TotalFields int     `json:"total_fields"`
	AvgFields   float64 `json:"avg_fields"`
	CostUSD     float64 `json:"cost_usd"`
}

func (s *Summary) add(r *Result) {
	s.Processed++
	s.TotalFields += r.Venue.FieldCount()
	if r.Venue.IsComplete() {
		s.Complete++
	}
	if r.State == model.StateSkipped {
		s.Skipped++
	}
}

// Log writes the summary to the global logger.
func (s *Summary) Log() {
	zap.L().Info("pipeline: enrichment summary",
		zap.Int("attempted", s.Attempted),
		zap.Int("processed", s.Processed),
		zap.Int("complete", s.Complete),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", s.Failed),
		zap.Int("total_fields", s.TotalFields),
		zap.Float64("avg_fields", s.AvgFields),
		zap.Float64("cost_usd", s.CostUSD),
	)
}

// RunAll processes inputs one at a time, in order, pausing delay between
// venues. Venues that fail are logged and left out of the returned slice;
// skipped venues are kept. When ctx is cancelled the venues finished so far
// are returned along with the context error.
func RunAll(ctx context.Context, proc Processor, inputs []model.VenueInput, delay time.Duration) ([]*model.Venue, *Summary, error) {
	summary := &Summary{}
	var venues []*model.Venue

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return venues, summary.finish(), eris.Wrap(err, "pipeline: run cancelled")
		}

		log := zap.L().With(zap.String("venue", input.Name))
		log.Info("pipeline: processing venue",
			zap.Int("index", i+1),
			zap.Int("total", len(inputs)),
		)
		summary.Attempted++

		result, err := proc.Run(ctx, input)
		if result != nil {
			summary.CostUSD += result.CostUSD
		}
		switch {
		case err != nil:
			summary.Failed++
			log.Error("pipeline: venue failed", zap.Error(err))
		case result == nil || result.Venue == nil:
			summary.Failed++
			log.Error("pipeline: venue produced no result")
		default:
			summary.add(result)
			venues = append(venues, result.Venue)
			log.Info("pipeline: venue completed",
				zap.String("state", string(result.State)),
				zap.Int("fields", result.Venue.FieldCount()),
			)
		}

		if i < len(inputs)-1 {
			if err := resilience.Sleep(ctx, delay); err != nil {
				return venues, summary.finish(), eris.Wrap(err, "pipeline: run cancelled")
			}
		}
	}

	zap.L().Info("pipeline: batch finished",
		zap.Int("succeeded", len(venues)),
		zap.Int("total", len(inputs)),
	)
	return venues, summary.finish(), nil
}

func (s *Summary) finish() *Summary {
	if s.Processed > 0 {
		s.AvgFields = float64(s.TotalFields) / float64(s.Processed)
	}
	return s
}
