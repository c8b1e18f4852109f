package resilience

import (
	"time"
)

// FromRetryConfig builds a RetryConfig from the llm config section: attempts
// and the base delay in seconds. The delay doubles after each failure.
func FromRetryConfig(attempts, delaySecs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	if delaySecs > 0 {
		cfg.InitialBackoff = time.Duration(delaySecs) * time.Second
	}
	return cfg
}

// FromCircuitConfig converts config values to a CircuitBreakerConfig.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
