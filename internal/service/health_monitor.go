package service

import (
	"context"
	"sync"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/metrics"

	"github.com/rs/zerolog"
)

// HealthMonitor probes registered dependencies on an interval and tracks
// consecutive failures. One failure degrades a target; reaching the
// unhealthy threshold marks it unhealthy. A single success restores it.
type HealthMonitor struct {
	targets []ports.HealthChecker
	cfg     config.HealthConfig
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu    sync.RWMutex
	state map[string]domain.ProviderHealth

	// now is swapped in tests
	now func() time.Time
}

// NewHealthMonitor creates a monitor over the given targets.
func NewHealthMonitor(targets []ports.HealthChecker, cfg config.HealthConfig, m *metrics.Metrics, log zerolog.Logger) *HealthMonitor {
	hm := &HealthMonitor{
		targets: targets,
		cfg:     cfg,
		metrics: m,
		log:     log,
		state:   make(map[string]domain.ProviderHealth, len(targets)),
		now:     time.Now,
	}
	for _, t := range targets {
		hm.state[t.Name()] = domain.ProviderHealth{
			Provider: t.Name(),
			Status:   domain.ProviderHealthy,
		}
	}
	return hm
}

// Run probes all targets on the configured interval until ctx is cancelled.
// The first probe runs immediately.
func (hm *HealthMonitor) Run(ctx context.Context) {
	hm.ProbeAll(ctx)

	ticker := time.NewTicker(hm.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hm.log.Info().Msg("health monitor stopped")
			return
		case <-ticker.C:
			hm.ProbeAll(ctx)
		}
	}
}

// ProbeAll pings every target once and updates its state.
func (hm *HealthMonitor) ProbeAll(ctx context.Context) {
	for _, t := range hm.targets {
		hm.probe(ctx, t)
	}
}

func (hm *HealthMonitor) probe(ctx context.Context, target ports.HealthChecker) {
	err := target.Ping(ctx)
	now := hm.now().UTC()

	hm.mu.Lock()
	defer hm.mu.Unlock()

	h := hm.state[target.Name()]
	h.Provider = target.Name()
	h.LastChecked = now

	if err == nil {
		if h.Status != domain.ProviderHealthy {
			hm.log.Info().Str("provider", h.Provider).Msg("dependency recovered")
		}
		h.Status = domain.ProviderHealthy
		h.ConsecutiveFailures = 0
		h.LastSuccessful = &now
		h.LastError = nil
	} else {
		h.ConsecutiveFailures++
		msg := err.Error()
		h.LastError = &msg
		if h.ConsecutiveFailures >= hm.cfg.UnhealthyThreshold {
			h.Status = domain.ProviderUnhealthy
		} else {
			h.Status = domain.ProviderDegraded
		}
		hm.log.Warn().
			Str("provider", h.Provider).
			Int("consecutive_failures", h.ConsecutiveFailures).
			Str("status", string(h.Status)).
			Err(err).
			Msg("dependency probe failed")
	}

	hm.state[target.Name()] = h
	hm.metrics.ProviderHealth.WithLabelValues(h.Provider).Set(statusGaugeValue(h.Status))
}

// IsAvailable reports whether the named dependency should receive traffic.
// Unknown names are treated as available.
func (hm *HealthMonitor) IsAvailable(name string) bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.state[name]
	if !ok {
		return true
	}
	return h.Available()
}

// Status returns a snapshot of one dependency's health.
func (hm *HealthMonitor) Status(name string) (domain.ProviderHealth, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.state[name]
	return h, ok
}

// Snapshot returns the health of every monitored dependency.
func (hm *HealthMonitor) Snapshot() []domain.ProviderHealth {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	out := make([]domain.ProviderHealth, 0, len(hm.state))
	for _, h := range hm.state {
		out = append(out, h)
	}
	return out
}

// Overall is the worst status across all dependencies.
func (hm *HealthMonitor) Overall() domain.ProviderStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	status := domain.ProviderHealthy
	for _, h := range hm.state {
		status = domain.WorstOf(status, h.Status)
	}
	return status
}

func statusGaugeValue(s domain.ProviderStatus) float64 {
	switch s {
	case domain.ProviderDegraded:
		return 1
	case domain.ProviderUnhealthy:
		return 2
	default:
		return 0
	}
}
