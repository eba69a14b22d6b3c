package resilience

import (
	"sync"

	"ticketing-payment-core/internal/metrics"
)

// Registry owns one breaker per named dependency/operation pair. It lives at
// the application's dependency-injection root and is passed by reference, so
// tests construct isolated instances instead of sharing module-level state.
type Registry struct {
	settings BreakerSettings
	metrics  *metrics.Metrics

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty registry; breakers are created on first use.
func NewRegistry(settings BreakerSettings, m *metrics.Metrics) *Registry {
	return &Registry{
		settings: settings,
		metrics:  m,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it if needed. One breaker per
// operation keeps a failing provider path from opening unrelated paths.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewCircuitBreaker(name, r.settings, r.metrics)
	r.breakers[name] = b
	return b
}

// States snapshots every breaker's state for health reporting.
func (r *Registry) States() map[string]BreakerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]BreakerState, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
