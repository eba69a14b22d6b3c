package ports

import "context"

// HealthChecker is a pingable dependency (database, cache, provider).
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
