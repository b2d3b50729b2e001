package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPermanent = errors.New("permanent")

func TestExponentialBackoff(t *testing.T) {
	t.Run("creates with correct defaults", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2.0, 3)

		assert.Equal(t, 100*time.Millisecond, eb.InitialInterval)
		assert.Equal(t, 5*time.Second, eb.MaxInterval)
		assert.Equal(t, 2.0, eb.Multiplier)
		assert.Equal(t, 3, eb.MaxRetries())
		assert.True(t, eb.Jitter)
	})

	t.Run("ShouldRetry respects max retries", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, time.Second, 2.0, 3)

		for i := 0; i < 3; i++ {
			again, delay := eb.ShouldRetry(i, errors.New("test"))
			assert.True(t, again)
			assert.Greater(t, delay, time.Duration(0))
		}

		again, delay := eb.ShouldRetry(3, errors.New("test"))
		assert.False(t, again)
		assert.Zero(t, delay)
	})

	t.Run("NextDelay grows and caps", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 10*time.Second, 2.0, 5)
		eb.Jitter = false

		tests := []struct {
			attempt  int
			expected time.Duration
		}{
			{0, 100 * time.Millisecond},
			{1, 200 * time.Millisecond},
			{3, 800 * time.Millisecond},
			{10, 10 * time.Second},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.expected, eb.NextDelay(tt.attempt))
		}
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		eb := NewExponentialBackoff(time.Second, time.Minute, 2.0, 5)
		for i := 0; i < 50; i++ {
			d := eb.NextDelay(0)
			assert.GreaterOrEqual(t, d, 850*time.Millisecond)
			assert.LessOrEqual(t, d, 1150*time.Millisecond)
		}
	})

	t.Run("classifier stops retries", func(t *testing.T) {
		eb := NewExponentialBackoff(time.Millisecond, time.Second, 2.0, 3)
		eb.Retryable = func(err error) bool { return !errors.Is(err, errPermanent) }

		again, _ := eb.ShouldRetry(0, errPermanent)
		assert.False(t, again)
		again, _ = eb.ShouldRetry(0, errors.New("transient"))
		assert.True(t, again)
	})
}

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(50*time.Millisecond, 2)

	again, delay := fd.ShouldRetry(1, errors.New("x"))
	assert.True(t, again)
	assert.Equal(t, 50*time.Millisecond, delay)

	again, _ = fd.ShouldRetry(2, errors.New("x"))
	assert.False(t, again)
	assert.Equal(t, 2, fd.MaxRetries())
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), "op", NewFixedDelay(time.Millisecond, 3), func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("reports attempts when giving up", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), "publish", NewFixedDelay(time.Millisecond, 2), func() error {
			calls++
			return errors.New("down")
		})

		var rErr *RetryError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, rErr.Attempts)
		assert.Equal(t, 3, rErr.MaxAttempts)
		assert.Equal(t, "publish", rErr.Op)
		assert.EqualError(t, rErr.LastError, "down")
	})

	t.Run("non-retryable errors stop immediately", func(t *testing.T) {
		policy := NewFixedDelay(time.Millisecond, 5)
		policy.Retryable = func(err error) bool { return !errors.Is(err, errPermanent) }

		calls := 0
		err := Retry(context.Background(), "op", policy, func() error {
			calls++
			return errPermanent
		})
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("context ends the wait", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		calls := 0
		err := Retry(ctx, "op", NewFixedDelay(time.Second, 5), func() error {
			calls++
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled before the first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Retry(ctx, "op", NewFixedDelay(time.Millisecond, 1), func() error {
			t.Fatal("must not run")
			return nil
		})
		var rErr *RetryError
		require.ErrorAs(t, err, &rErr)
		assert.Zero(t, rErr.Attempts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
