package reliability

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy decides whether a failed attempt is repeated and after how long
type RetryPolicy interface {
	// ShouldRetry is called with the zero-based number of the failed attempt
	ShouldRetry(attempt int, err error) (bool, time.Duration)
	// MaxRetries returns the maximum number of retries
	MaxRetries() int
}

// ExponentialBackoff multiplies the delay after every failed attempt
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
	Jitter          bool
	// Retryable classifies errors; nil treats every error as retryable
	Retryable func(error) bool
}

// NewExponentialBackoff creates a new exponential backoff policy
func NewExponentialBackoff(initial, max time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
		MaxAttempts:     maxRetries,
		Jitter:          true,
	}
}

// ShouldRetry implements RetryPolicy
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= e.MaxAttempts || !retryable(e.Retryable, err) {
		return false, 0
	}
	return true, e.NextDelay(attempt)
}

// MaxRetries implements RetryPolicy
func (e *ExponentialBackoff) MaxRetries() int {
	return e.MaxAttempts
}

// NextDelay returns the wait after the given failed attempt, capped at
// MaxInterval. Jitter spreads it by up to 15% either way.
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.InitialInterval) * math.Pow(e.Multiplier, float64(attempt))
	if delay > float64(e.MaxInterval) {
		delay = float64(e.MaxInterval)
	}
	if e.Jitter {
		delay += (rand.Float64()*0.3 - 0.15) * delay
	}
	return time.Duration(delay)
}

// FixedDelay waits the same time between attempts
type FixedDelay struct {
	Delay       time.Duration
	MaxAttempts int
	Retryable   func(error) bool
}

// NewFixedDelay creates a new fixed delay policy
func NewFixedDelay(delay time.Duration, maxRetries int) *FixedDelay {
	return &FixedDelay{
		Delay:       delay,
		MaxAttempts: maxRetries,
	}
}

// ShouldRetry implements RetryPolicy
func (f *FixedDelay) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= f.MaxAttempts || !retryable(f.Retryable, err) {
		return false, 0
	}
	return true, f.Delay
}

// MaxRetries implements RetryPolicy
func (f *FixedDelay) MaxRetries() int {
	return f.MaxAttempts
}

func retryable(classify func(error) bool, err error) bool {
	if classify == nil {
		return true
	}
	return classify(err)
}

// Retry runs fn until it succeeds, the policy gives up or ctx is done. Every
// failure is reported as a *RetryError carrying the attempt count.
func Retry(ctx context.Context, op string, policy RetryPolicy, fn func() error) error {
	start := time.Now()
	fail := func(attempts int, err error) error {
		return &RetryError{
			Op:          op,
			Attempts:    attempts,
			MaxAttempts: policy.MaxRetries() + 1,
			LastError:   err,
			Duration:    time.Since(start),
		}
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fail(attempt, err)
		}

		err := fn()
		if err == nil {
			return nil
		}

		again, delay := policy.ShouldRetry(attempt, err)
		if !again {
			return fail(attempt+1, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fail(attempt+1, ctx.Err())
		}
	}
}
