// Package reliability provides the retry policies and circuit breaker used
// when publishing transformed messages.
//
// Example usage:
//
//	cb := NewCircuitBreaker(
//	    WithFailureThreshold(5),
//	    WithTimeout(30 * time.Second),
//	)
//	policy := NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2.0, 3)
//
//	err := Retry(ctx, "publish", policy, func() error {
//	    return cb.Execute(ctx, publish)
//	})
package reliability
