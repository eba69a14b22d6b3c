package resilience

import (
	"context"
	"fmt"
	"time"

	"ticketing-payment-core/internal/metrics"

	"github.com/rs/zerolog"
)

// RetrySettings bound the retry loop.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ClassifiedError carries the last classification out of an exhausted or
// non-retryable call so callers can branch on category.
type ClassifiedError struct {
	Classification Classification
	Operation      string
	Err            error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s (%s/%s): %v", e.Operation, e.Classification.Category, e.Classification.Severity, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// RetryPolicy re-invokes an operation according to the classifier's verdict,
// with exponential backoff and a hard attempt cap.
type RetryPolicy struct {
	classifier *Classifier
	settings   RetrySettings
	metrics    *metrics.Metrics
	log        zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a policy. Zero-valued settings fall back to
// 3 attempts, 1s base delay, 60s cap.
func NewRetryPolicy(classifier *Classifier, settings RetrySettings, m *metrics.Metrics, log zerolog.Logger) *RetryPolicy {
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 3
	}
	if settings.BaseDelay <= 0 {
		settings.BaseDelay = time.Second
	}
	if settings.MaxDelay <= 0 {
		settings.MaxDelay = 60 * time.Second
	}
	return &RetryPolicy{
		classifier: classifier,
		settings:   settings,
		metrics:    m,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Execute runs fn up to MaxAttempts times. A non-retryable or
// CRITICAL-severity classification stops immediately; otherwise each failure
// waits retryAfter (when the classifier provides one) or exponential backoff
// before the next attempt. The returned error is always a *ClassifiedError.
func (p *RetryPolicy) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error
	var lastCls Classification

	for attempt := 1; attempt <= p.settings.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		lastCls = p.classifier.Classify(err)

		p.metrics.RetryAttempts.WithLabelValues(operation, string(lastCls.Category)).Inc()
		p.log.Warn().
			Err(err).
			Str("operation", operation).
			Str("category", string(lastCls.Category)).
			Str("severity", string(lastCls.Severity)).
			Int("attempt", attempt).
			Msg("operation attempt failed")

		// CRITICAL failures alert and never retry, even if a caller forced
		// retryable on the classification.
		if !lastCls.Retryable || lastCls.Severity == SeverityCritical {
			break
		}
		if attempt == p.settings.MaxAttempts {
			break
		}

		if err := p.sleep(ctx, p.backoff(attempt, lastCls)); err != nil {
			return &ClassifiedError{Classification: lastCls, Operation: operation, Err: err}
		}
	}

	return &ClassifiedError{Classification: lastCls, Operation: operation, Err: lastErr}
}

// backoff returns the delay before the attempt following `attempt`
// (1-indexed). An explicit retry-after takes precedence.
func (p *RetryPolicy) backoff(attempt int, cls Classification) time.Duration {
	if cls.RetryAfter > 0 {
		return cls.RetryAfter
	}
	d := p.settings.BaseDelay << uint(attempt)
	if d > p.settings.MaxDelay || d <= 0 {
		d = p.settings.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
