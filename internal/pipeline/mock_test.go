package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/config"
	"github.com/sells-group/venue-enrichment/internal/llm"
	"github.com/sells-group/venue-enrichment/internal/model"
	"github.com/sells-group/venue-enrichment/internal/prompt"
	"github.com/sells-group/venue-enrichment/internal/search"
	"github.com/sells-group/venue-enrichment/internal/store"
)

// Markers that identify each rendered prompt.
const (
	rankMarker         = "You are ranking web search results"
	selectMarker       = "Candidate sources:"
	instructionsMarker = "You are writing extraction rules"
	structuredMarker   = "Extract information about the music venue"
)

// --- Search Mock ---

type mockSearch struct{ mock.Mock }

func (m *mockSearch) Name() string { return "mock" }

func (m *mockSearch) Search(ctx context.Context, input model.VenueInput) (*search.Response, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Response), args.Error(1)
}

// --- Scraper Mock ---

type mockScraper struct{ mock.Mock }

func (m *mockScraper) Name() string           { return "mock" }
func (m *mockScraper) Supports(_ string) bool { return true }

func (m *mockScraper) Scrape(ctx context.Context, url string) (*model.CrawledPage, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CrawledPage), args.Error(1)
}

// --- LLM Mock ---

type mockLLM struct{ mock.Mock }

func (m *mockLLM) Complete(ctx context.Context, p string) (*llm.Completion, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

// promptWith matches a rendered prompt containing marker.
func promptWith(marker string) any {
	return mock.MatchedBy(func(p string) bool { return strings.Contains(p, marker) })
}

func completion(text string) *llm.Completion {
	return &llm.Completion{
		Text:     text,
		Model:    "gpt-4o-mini",
		Provider: "openai",
		Usage:    llm.Usage{InputTokens: 1000, OutputTokens: 100},
	}
}

// --- Store Mock ---

type mockStore struct{ mock.Mock }

func (m *mockStore) CreateRun(ctx context.Context, input model.VenueInput) (*model.Run, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunState(ctx context.Context, runID string, state model.VenueState) error {
	return m.Called(ctx, runID, state).Error(0)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, outcome *model.RunOutcome) error {
	return m.Called(ctx, runID, outcome).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	args := m.Called(ctx, runID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunPhase), args.Error(1)
}

func (m *mockStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	return m.Called(ctx, phaseID, result).Error(0)
}

func (m *mockStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RunPhase), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return m.Called().Error(0) }

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Blocklist: config.BlocklistConfig{Domains: []string{"facebook.com", "yelp.com"}},
		Pipeline:  config.PipelineConfig{MergePolicy: "replace_if_larger"},
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

type testDeps struct {
	store   store.Store
	search  *mockSearch
	scraper *mockScraper
	llm     *mockLLM
}

func newTestPipeline(t *testing.T, cfg *config.Config, st store.Store) (*Pipeline, *testDeps) {
	t.Helper()
	if st == nil {
		st = newTestStore(t)
	}
	engine, err := prompt.NewDefaultEngine()
	require.NoError(t, err)

	deps := &testDeps{
		store:   st,
		search:  &mockSearch{},
		scraper: &mockScraper{},
		llm:     &mockLLM{},
	}
	p, err := New(cfg, st, deps.search, deps.scraper, deps.llm, engine)
	require.NoError(t, err)
	p.sourceDelay = 0
	return p, deps
}
