package model

import "time"

// VenueState is the position of a venue in the enrichment state machine.
type VenueState string

const (
	StateInit            VenueState = "init"
	StateSearched        VenueState = "searched"
	StateRanked          VenueState = "ranked"
	StateSourcesSelected VenueState = "sources_selected"
	StateScraping        VenueState = "scraping"
	StateExtracted       VenueState = "extracted"
	StateValidated       VenueState = "validated"
	StateDone            VenueState = "done"
	StateSkipped         VenueState = "skipped"
	StateFailed          VenueState = "failed"
)

// Terminal reports whether no further transitions follow.
func (s VenueState) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}

// Run is the persisted record of one venue's enrichment.
type Run struct {
	ID          string     `json:"id"`
	Input       VenueInput `json:"input"`
	State       VenueState `json:"state"`
	Venue       *Venue     `json:"venue,omitempty"`
	Error       string     `json:"error,omitempty"`
	FieldsFound int        `json:"fields_found"`
	CostUSD     float64    `json:"cost_usd"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RunOutcome is what a finished venue reports back to its run record.
type RunOutcome struct {
	State   VenueState
	Venue   *Venue
	Error   string
	CostUSD float64
}

// FieldsFound counts the populated fields of the outcome's venue.
func (o *RunOutcome) FieldsFound() int {
	if o == nil || o.Venue == nil {
		return 0
	}
	return o.Venue.FieldCount()
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	State     VenueState
	VenueName string
	Limit     int
	Offset    int
}

// PhaseStatus represents the outcome of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// RunPhase is one stage within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	TokenUsage TokenUsage     `json:"token_usage"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks token consumption and spend.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.Cost += other.Cost
}
