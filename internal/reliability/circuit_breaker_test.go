package reliability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := NewCircuitBreaker(opts...)
	cb.now = clock.Now
	return cb
}

func TestCircuitBreaker(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("down")
	fail := func() error { return errDown }
	ok := func() error { return nil }

	t.Run("defaults", func(t *testing.T) {
		cb := NewCircuitBreaker()
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, 5, cb.failureThreshold)
		assert.Equal(t, 3, cb.successThreshold)
		assert.Equal(t, 30*time.Second, cb.timeout)
		assert.Equal(t, "default", cb.name)
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		cb := newTestBreaker(clock, WithFailureThreshold(3), WithName("broker"))

		for i := 0; i < 3; i++ {
			assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
		}
		assert.Equal(t, StateOpen, cb.State())

		called := false
		err := cb.Execute(ctx, func() error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.ErrorIs(t, err, ErrCircuitOpen)

		var cbErr *CircuitBreakerError
		require.ErrorAs(t, err, &cbErr)
		assert.Equal(t, "broker", cbErr.Name)
		assert.Equal(t, 3, cbErr.Failures)
		assert.Equal(t, clock.Now().Add(30*time.Second), cbErr.NextRetry)
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(2))
		_ = cb.Execute(ctx, fail)
		require.NoError(t, cb.Execute(ctx, ok))
		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half-open probes close the circuit", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		cb := newTestBreaker(clock,
			WithFailureThreshold(1),
			WithSuccessThreshold(2),
			WithTimeout(time.Minute),
		)

		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateOpen, cb.State())

		clock.Advance(time.Minute)
		require.NoError(t, cb.Execute(ctx, ok))
		assert.Equal(t, StateHalfOpen, cb.State())
		require.NoError(t, cb.Execute(ctx, ok))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		cb := newTestBreaker(clock, WithFailureThreshold(1), WithTimeout(time.Second))

		_ = cb.Execute(ctx, fail)
		clock.Advance(time.Second)
		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)
	})

	t.Run("limits concurrent probes", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		cb := newTestBreaker(clock, WithFailureThreshold(1), WithHalfOpenRequests(1), WithTimeout(time.Second))

		_ = cb.Execute(ctx, fail)
		clock.Advance(time.Second)

		inProbe := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error)
		go func() {
			done <- cb.Execute(ctx, func() error {
				close(inProbe)
				<-release
				return nil
			})
		}()
		<-inProbe

		err := cb.Execute(ctx, ok)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		var cbErr *CircuitBreakerError
		require.ErrorAs(t, err, &cbErr)
		assert.Equal(t, StateHalfOpen, cbErr.State)

		close(release)
		assert.NoError(t, <-done)
	})

	t.Run("reports transitions", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		var transitions []string
		cb := newTestBreaker(clock,
			WithFailureThreshold(1),
			WithSuccessThreshold(1),
			WithTimeout(time.Second),
			WithStateChange(func(name string, from, to State) {
				transitions = append(transitions, from.String()+"->"+to.String())
			}),
		)

		_ = cb.Execute(ctx, fail)
		clock.Advance(time.Second)
		_ = cb.Execute(ctx, ok)

		assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
	})

	t.Run("reset and counts", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(1))
		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateOpen, cb.State())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
		require.NoError(t, cb.Execute(ctx, ok))

		requests, failures := cb.Counts()
		assert.EqualValues(t, 2, requests)
		assert.EqualValues(t, 1, failures)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		cb := NewCircuitBreaker()
		assert.ErrorIs(t, cb.Execute(cctx, ok), context.Canceled)
	})

	t.Run("state names", func(t *testing.T) {
		assert.Equal(t, "closed", StateClosed.String())
		assert.Equal(t, "open", StateOpen.String())
		assert.Equal(t, "half-open", StateHalfOpen.String())
		assert.Equal(t, "unknown", State(42).String())
	})
}
