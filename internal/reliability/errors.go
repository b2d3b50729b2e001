package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCircuitOpen is matched by a CircuitBreakerError raised while the
	// circuit is open or out of half-open probes
	ErrCircuitOpen = errors.New("circuit breaker: circuit is open")
)

// CircuitBreakerError reports a call rejected by the breaker
type CircuitBreakerError struct {
	Name      string
	State     State
	Failures  int
	NextRetry time.Time
}

func (e *CircuitBreakerError) Error() string {
	if e.State == StateOpen {
		return fmt.Sprintf("circuit breaker %s open after %d failures, retry at %s",
			e.Name, e.Failures, e.NextRetry.Format(time.RFC3339))
	}
	return fmt.Sprintf("circuit breaker %s %s: probe limit reached", e.Name, e.State)
}

func (e *CircuitBreakerError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// RetryError represents a retry operation error
type RetryError struct {
	Op          string
	Attempts    int
	MaxAttempts int
	LastError   error
	Duration    time.Duration
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry failed: %s after %d/%d attempts over %v: %v",
		e.Op, e.Attempts, e.MaxAttempts, e.Duration.Round(time.Millisecond), e.LastError)
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}
