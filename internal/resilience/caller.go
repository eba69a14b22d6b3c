package resilience

import (
	"context"

	"ticketing-payment-core/internal/metrics"

	"github.com/rs/zerolog"
)

// Caller composes the retry policy around a named circuit breaker. It is the
// only path through which the ledger and inbox reach the payment provider.
type Caller struct {
	registry *Registry
	retry    *RetryPolicy
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewCaller wires retries over breakers.
func NewCaller(registry *Registry, retry *RetryPolicy, m *metrics.Metrics, log zerolog.Logger) *Caller {
	return &Caller{registry: registry, retry: retry, metrics: m, log: log}
}

// Call executes fn under the breaker named after the operation, retrying per
// the classifier's verdict. On exhaustion it fails with a *ClassifiedError;
// while the breaker is open it fails fast without invoking fn.
func (c *Caller) Call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	breaker := c.registry.Get(operation)

	err := c.retry.Execute(ctx, operation, func(ctx context.Context) error {
		return breaker.Execute(ctx, fn)
	})
	if err != nil {
		c.metrics.ProviderCalls.WithLabelValues(operation, "failure").Inc()
		return err
	}
	c.metrics.ProviderCalls.WithLabelValues(operation, "success").Inc()
	return nil
}
