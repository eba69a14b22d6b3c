package domain

import "time"

// ProviderStatus classifies a monitored provider dependency.
type ProviderStatus string

const (
	ProviderHealthy   ProviderStatus = "healthy"
	ProviderDegraded  ProviderStatus = "degraded"
	ProviderUnhealthy ProviderStatus = "unhealthy"
)

// ProviderHealth is the monitor's per-provider state.
type ProviderHealth struct {
	Provider            string         `json:"provider"`
	Status              ProviderStatus `json:"status"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastChecked         time.Time      `json:"last_checked"`
	LastSuccessful      *time.Time     `json:"last_successful,omitempty"`
	LastError           *string        `json:"last_error,omitempty"`
}

// Available reports whether callers should still admit traffic to the
// provider. Degraded providers remain usable but flagged.
func (h ProviderHealth) Available() bool {
	return h.Status == ProviderHealthy || h.Status == ProviderDegraded
}

// WorstOf returns the more severe of two statuses.
func WorstOf(a, b ProviderStatus) ProviderStatus {
	rank := map[ProviderStatus]int{ProviderHealthy: 0, ProviderDegraded: 1, ProviderUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
