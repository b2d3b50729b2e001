package reliability

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// StateChangeFunc is called after every state transition, outside the
// breaker lock
type StateChangeFunc func(name string, from, to State)

// CircuitBreaker stops calls to a broker that keeps failing and lets a few
// probe calls through once the open timeout has passed
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time

	failureThreshold int
	successThreshold int
	halfOpenRequests int
	timeout          time.Duration
	name             string
	now              func() time.Time
	onStateChange    StateChangeFunc

	totalRequests int64
	totalFailures int64
}

// CircuitBreakerOption configures the circuit breaker
type CircuitBreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets the consecutive failures that open the circuit
func WithFailureThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.failureThreshold = threshold
	}
}

// WithSuccessThreshold sets the probe successes that close the circuit
func WithSuccessThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.successThreshold = threshold
	}
}

// WithTimeout sets how long the circuit stays open
func WithTimeout(timeout time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.timeout = timeout
	}
}

// WithHalfOpenRequests sets the max concurrent probes in half-open state
func WithHalfOpenRequests(requests int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.halfOpenRequests = requests
	}
}

// WithName sets the circuit breaker name for identification
func WithName(name string) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.name = name
	}
}

// WithStateChange registers a transition callback
func WithStateChange(fn StateChangeFunc) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(options ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		halfOpenRequests: 3,
		timeout:          30 * time.Second,
		name:             "default",
		now:              time.Now,
	}
	for _, opt := range options {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.acquire(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns the lifetime number of calls and failed calls
func (cb *CircuitBreaker) Counts() (requests, failures int64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalRequests, cb.totalFailures
}

// Reset closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures, cb.successes, cb.probes = 0, 0, 0
	cb.mu.Unlock()

	cb.notify(from, StateClosed)
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()

	from := cb.state
	if cb.state == StateOpen {
		nextRetry := cb.openedAt.Add(cb.timeout)
		if cb.now().Before(nextRetry) {
			err := &CircuitBreakerError{
				Name:      cb.name,
				State:     StateOpen,
				Failures:  cb.failures,
				NextRetry: nextRetry,
			}
			cb.mu.Unlock()
			return err
		}
		cb.state = StateHalfOpen
		cb.successes, cb.probes = 0, 0
	}

	if cb.state == StateHalfOpen {
		if cb.probes >= cb.halfOpenRequests {
			cb.mu.Unlock()
			return &CircuitBreakerError{Name: cb.name, State: StateHalfOpen, Failures: cb.failures}
		}
		cb.probes++
	}
	cb.totalRequests++
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()

	from := cb.state
	if cb.state == StateHalfOpen {
		cb.probes--
	}

	if err != nil {
		cb.totalFailures++
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	} else {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.successThreshold {
				cb.state = StateClosed
				cb.failures, cb.successes = 0, 0
			}
		}
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}
