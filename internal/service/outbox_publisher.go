package service

import (
	"context"
	"fmt"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/metrics"

	"github.com/rs/zerolog"
)

// OutboxPublisher drains unpublished outbox rows to the event bus. Claiming
// uses row locks with SKIP LOCKED, so multiple instances can run safely; a
// row is marked published only after broker acknowledgment, giving
// at-least-once delivery.
type OutboxPublisher struct {
	outboxRepo ports.OutboxRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	cfg        config.OutboxConfig
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewOutboxPublisher creates a new OutboxPublisher.
func NewOutboxPublisher(
	outboxRepo ports.OutboxRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	cfg config.OutboxConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *OutboxPublisher {
	return &OutboxPublisher{
		outboxRepo: outboxRepo,
		transactor: transactor,
		publisher:  publisher,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.log.Info().
		Dur("poll_interval", p.cfg.PollInterval).
		Int("batch_size", p.cfg.BatchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("outbox publisher stopped")
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.log.Error().Err(err).Msg("outbox publish pass failed")
			}
		}
	}
}

// PublishBatch claims one batch and delivers it. A failed delivery bumps the
// row's attempt counter and leaves it unpublished for the next pass.
func (p *OutboxPublisher) PublishBatch(ctx context.Context) (int, error) {
	dbTx, err := p.transactor.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	events, err := p.outboxRepo.ClaimUnpublished(ctx, dbTx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(events) == 0 {
		return 0, dbTx.Commit(ctx)
	}

	published := 0
	for _, event := range events {
		if err := p.publisher.Publish(ctx, event); err != nil {
			p.metrics.OutboxFailures.Inc()
			p.log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Int("attempts", event.Attempts+1).
				Msg("outbox publish failed")
			if err := p.outboxRepo.IncrementAttempts(ctx, dbTx, event.ID); err != nil {
				return published, fmt.Errorf("increment attempts: %w", err)
			}
			continue
		}

		if err := p.outboxRepo.MarkPublished(ctx, dbTx, event.ID, time.Now().UTC()); err != nil {
			return published, fmt.Errorf("mark published: %w", err)
		}
		p.metrics.OutboxPublished.Inc()
		published++
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	if published > 0 {
		p.log.Debug().Int("published", published).Int("claimed", len(events)).Msg("outbox batch published")
	}
	return published, nil
}
