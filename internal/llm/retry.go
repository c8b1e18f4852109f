package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-enrichment/internal/resilience"
)

// Retrying retries transport failures of the wrapped client with exponential
// backoff. Response parse errors are returned on first sight.
type Retrying struct {
	next Client
	cfg  resilience.RetryConfig
}

// NewRetrying wraps next with cfg. ShouldRetry is always replaced so only
// TransportError is retried.
func NewRetrying(next Client, cfg resilience.RetryConfig) *Retrying {
	cfg.ShouldRetry = IsRetryable
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("llm", "complete")
	}
	return &Retrying{next: next, cfg: cfg}
}

// IsRetryable reports whether err is a TransportError.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Complete calls the wrapped client until it succeeds, fails with a
// non-transport error, or runs out of attempts.
func (r *Retrying) Complete(ctx context.Context, prompt string) (*Completion, error) {
	attempts := 0
	c, err := resilience.DoVal(ctx, r.cfg, func(ctx context.Context) (*Completion, error) {
		attempts++
		return r.next.Complete(ctx, prompt)
	})
	if err == nil {
		return c, nil
	}
	if !IsRetryable(err) {
		return nil, err
	}
	return nil, eris.Wrapf(err, "llm: completion failed after %d attempts", attempts)
}
