package connector

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/transformer"
)

// Failure classes reported in StatsSnapshot.FailuresByClass
const (
	FailureMalformed   = "malformed"
	FailureUnsupported = "unsupported"
	FailureOther       = "other"
)

// Stats tracks transformations performed by a connector
type Stats struct {
	inbound  atomic.Int64
	outbound atomic.Int64

	mu              sync.RWMutex
	failures        int64
	failuresByClass map[string]int64
	lastFailure     time.Time
}

func newStats() *Stats {
	return &Stats{failuresByClass: make(map[string]int64)}
}

func (s *Stats) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	s.failuresByClass[classify(err)]++
	s.lastFailure = time.Now()
}

// Snapshot returns a point-in-time copy of the counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byClass := make(map[string]int64, len(s.failuresByClass))
	for k, v := range s.failuresByClass {
		byClass[k] = v
	}

	return StatsSnapshot{
		Inbound:         s.inbound.Load(),
		Outbound:        s.outbound.Load(),
		Failures:        s.failures,
		FailuresByClass: byClass,
		LastFailure:     s.lastFailure,
	}
}

// StatsSnapshot is a point-in-time view of connector counters
type StatsSnapshot struct {
	Inbound         int64
	Outbound        int64
	Failures        int64
	FailuresByClass map[string]int64
	LastFailure     time.Time
}

func classify(err error) string {
	switch {
	case errors.Is(err, amqpenv.ErrMalformed):
		return FailureMalformed
	case errors.Is(err, transformer.ErrUnsupportedMapping):
		return FailureUnsupported
	default:
		return FailureOther
	}
}
