package pipeline

import "fmt"

// Stage names, also used as run phase names.
const (
	StageSearch   = "search"
	StageRank     = "rank"
	StageSelect   = "select"
	StageScrape   = "scrape"
	StageValidate = "validate"
)

// StageError is an unrecoverable failure of one pipeline stage for one venue.
type StageError struct {
	Stage string
	Venue string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed for %q: %v", e.Stage, e.Venue, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
