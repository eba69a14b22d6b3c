package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketing-payment-core/internal/metrics"

	"ticketing-payment-core/pkg/apperror"
)

// BreakerState is the circuit state for one named dependency.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerSettings configure one circuit breaker.
type BreakerSettings struct {
	FailureRatio float64       // open when failures/total exceeds this
	Window       time.Duration // rolling window for the ratio
	MinRequests  int           // ratio only applies at or above this volume
	ResetTimeout time.Duration // open -> half-open delay
	CallTimeout  time.Duration // per-call bound; a timeout counts as failure
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.5
	}
	if s.Window <= 0 {
		s.Window = 60 * time.Second
	}
	if s.MinRequests <= 0 {
		s.MinRequests = 10
	}
	if s.ResetTimeout <= 0 {
		s.ResetTimeout = 30 * time.Second
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = 2500 * time.Millisecond
	}
	return s
}

const bucketCount = 10

type bucket struct {
	start    time.Time
	total    int
	failures int
}

// CircuitBreaker wraps a single external call path. Counters are
// process-local: each instance converges on its own view of provider health
// and errs toward availability, not global consistency.
type CircuitBreaker struct {
	name     string
	settings BreakerSettings
	metrics  *metrics.Metrics

	mu        sync.Mutex
	state     BreakerState
	openedAt  time.Time
	probing   bool
	buckets   [bucketCount]bucket
	bucketDur time.Duration

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker for one named dependency.
func NewCircuitBreaker(name string, settings BreakerSettings, m *metrics.Metrics) *CircuitBreaker {
	settings = settings.withDefaults()
	return &CircuitBreaker{
		name:      name,
		settings:  settings,
		metrics:   m,
		bucketDur: settings.Window / bucketCount,
		now:       time.Now,
	}
}

// Name returns the dependency name this breaker guards.
func (b *CircuitBreaker) Name() string { return b.name }

// State returns the current state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs fn bounded by the per-call timeout. While open it fails fast
// with a breaker-open error; after ResetTimeout a single probe call decides
// whether to close again.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.settings.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil && callCtx.Err() != nil {
		err = fmt.Errorf("call to %s timed out: %w", b.name, callCtx.Err())
	}

	b.record(err == nil)
	return err
}

// admit decides whether a call may pass, claiming the half-open probe slot
// when eligible.
func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.settings.ResetTimeout {
			return apperror.ErrBreakerOpen(b.name)
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return apperror.ErrBreakerOpen(b.name)
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *CircuitBreaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
		if success {
			b.reset()
			b.setState(StateClosed)
		} else {
			b.trip()
		}
		return
	}

	cur := b.currentBucket()
	cur.total++
	if !success {
		cur.failures++
	}

	total, failures := b.windowCounts()
	if total >= b.settings.MinRequests && float64(failures)/float64(total) >= b.settings.FailureRatio {
		b.trip()
	}
}

func (b *CircuitBreaker) trip() {
	b.openedAt = b.now()
	b.reset()
	b.setState(StateOpen)
	b.metrics.BreakerOpens.WithLabelValues(b.name).Inc()
}

func (b *CircuitBreaker) setState(s BreakerState) {
	b.state = s
	b.metrics.BreakerState.WithLabelValues(b.name).Set(float64(s))
}

func (b *CircuitBreaker) reset() {
	for i := range b.buckets {
		b.buckets[i] = bucket{}
	}
}

// currentBucket returns the bucket covering now, recycling expired slots.
func (b *CircuitBreaker) currentBucket() *bucket {
	now := b.now()
	idx := int(now.UnixNano()/int64(b.bucketDur)) % bucketCount
	cur := &b.buckets[idx]
	if now.Sub(cur.start) >= b.bucketDur {
		*cur = bucket{start: now.Truncate(b.bucketDur)}
	}
	return cur
}

func (b *CircuitBreaker) windowCounts() (total, failures int) {
	now := b.now()
	for i := range b.buckets {
		if now.Sub(b.buckets[i].start) < b.settings.Window {
			total += b.buckets[i].total
			failures += b.buckets[i].failures
		}
	}
	return total, failures
}
