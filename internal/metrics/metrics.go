package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus collectors. It is constructed once at the
// DI root with an explicit registry so tests can build isolated instances.
type Metrics struct {
	ProviderCalls     *prometheus.CounterVec
	RetryAttempts     *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
	BreakerOpens      *prometheus.CounterVec
	OutboxPublished   prometheus.Counter
	OutboxFailures    prometheus.Counter
	WebhookDuplicates prometheus.Counter
	WebhookProcessed  *prometheus.CounterVec
	ProviderHealth    *prometheus.GaugeVec
	DLQDepth          prometheus.Gauge
	RecoveryRuns      *prometheus.CounterVec
}

// New registers all collectors with reg and returns the handle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_provider_calls_total",
			Help: "Provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		RetryAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_retry_attempts_total",
			Help: "Failed attempts observed by the retry policy, by error category.",
		}, []string{"operation", "category"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "payment_breaker_state",
			Help: "Circuit breaker state per dependency (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		BreakerOpens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_breaker_opens_total",
			Help: "Times a breaker transitioned to open.",
		}, []string{"name"}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_outbox_published_total",
			Help: "Outbox events acknowledged by the broker.",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_outbox_publish_failures_total",
			Help: "Outbox publish attempts that failed.",
		}),
		WebhookDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "payment_webhook_duplicates_total",
			Help: "Inbound webhooks dropped by inbox dedup.",
		}),
		WebhookProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhook_processed_total",
			Help: "Inbox webhooks by terminal processing status.",
		}, []string{"status"}),
		ProviderHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "payment_provider_health",
			Help: "Monitored provider health (0 healthy, 1 degraded, 2 unhealthy).",
		}, []string{"provider"}),
		DLQDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "payment_dlq_depth",
			Help: "Messages currently waiting in the dead-letter queue.",
		}),
		RecoveryRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_recovery_runs_total",
			Help: "Recovery passes by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// NewForTest builds Metrics on a throwaway registry.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
