package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const staleRecoveryReason = "operation timed out and was recovered"

// dlqHandler replays one dead-letter message.
type dlqHandler func(ctx context.Context, msg *domain.DeadLetterMessage) error

// RecoveryServiceImpl implements ports.RecoveryService. It replays the
// dead-letter queue, force-fails stale async operations, and prunes expired
// idempotency records and delivered outbox rows.
type RecoveryServiceImpl struct {
	dlq        ports.DeadLetterQueue
	opsRepo    ports.RecoveryOperationRepository
	auditRepo  ports.AuditRepository
	idempRepo  ports.IdempotencyRepository
	outboxRepo ports.OutboxRepository
	transactor ports.DBTransactor
	inbox      ports.WebhookInbox
	cfg        config.RecoveryConfig
	retention  time.Duration
	metrics    *metrics.Metrics
	log        zerolog.Logger

	handlers map[domain.QueueKind]dlqHandler
}

// NewRecoveryService creates a new RecoveryServiceImpl. outboxRetention
// bounds how long delivered outbox rows are kept.
func NewRecoveryService(
	dlq ports.DeadLetterQueue,
	opsRepo ports.RecoveryOperationRepository,
	auditRepo ports.AuditRepository,
	idempRepo ports.IdempotencyRepository,
	outboxRepo ports.OutboxRepository,
	transactor ports.DBTransactor,
	inbox ports.WebhookInbox,
	cfg config.RecoveryConfig,
	outboxRetention time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) *RecoveryServiceImpl {
	s := &RecoveryServiceImpl{
		dlq:        dlq,
		opsRepo:    opsRepo,
		auditRepo:  auditRepo,
		idempRepo:  idempRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		inbox:      inbox,
		cfg:        cfg,
		retention:  outboxRetention,
		metrics:    m,
		log:        log,
	}
	s.handlers = map[domain.QueueKind]dlqHandler{
		domain.QueueWebhook:      s.replayWebhook,
		domain.QueueSync:         s.replaySync,
		domain.QueueNotification: s.replayNotification,
	}
	return s
}

// Run executes recovery passes until ctx is cancelled.
func (s *RecoveryServiceImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.cfg.Interval).Msg("recovery service started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("recovery service stopped")
			return
		case <-ticker.C:
			if _, err := s.ProcessDeadLetterQueue(ctx); err != nil {
				s.log.Error().Err(err).Msg("dead letter pass failed")
			}
			if _, err := s.RecoverStaleOperations(ctx); err != nil {
				s.log.Error().Err(err).Msg("stale operation pass failed")
			}
			s.prune(ctx)
		}
	}
}

// ProcessDeadLetterQueue replays queued messages through their kind handler.
// A message that keeps failing is dropped once it exhausts its retries.
func (s *RecoveryServiceImpl) ProcessDeadLetterQueue(ctx context.Context) (*ports.RecoveryReport, error) {
	report := &ports.RecoveryReport{}

	for i := 0; i < s.cfg.DLQBatchSize; i++ {
		msg, err := s.dlq.Pop(ctx)
		if err != nil {
			return report, fmt.Errorf("pop dead letter: %w", err)
		}
		if msg == nil {
			break
		}
		report.Processed++

		if msg.RetryCount >= s.cfg.DLQMaxRetries {
			report.Failed++
			s.audit(ctx, "drop_dead_letter", string(msg.Queue), msg.ID,
				fmt.Sprintf("dropped after %d retries: %s", msg.RetryCount, msg.LastError))
			s.log.Warn().
				Str("queue", string(msg.Queue)).
				Str("msg_id", msg.ID.String()).
				Int("retries", msg.RetryCount).
				Msg("dead letter dropped after max retries")
			continue
		}

		handler, ok := s.handlers[msg.Queue]
		if !ok {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("no handler for queue %s", msg.Queue))
			continue
		}

		if err := handler(ctx, msg); err != nil {
			msg.RetryCount++
			msg.LastError = err.Error()
			if pushErr := s.dlq.Push(ctx, *msg); pushErr != nil {
				s.log.Error().Err(pushErr).Str("msg_id", msg.ID.String()).Msg("failed to requeue dead letter")
			}
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			continue
		}

		report.Recovered++
		s.audit(ctx, "replay_dead_letter", string(msg.Queue), msg.ID, "replayed successfully")
	}

	if depth, err := s.dlq.Len(ctx); err == nil {
		s.metrics.DLQDepth.Set(float64(depth))
	}
	s.metrics.RecoveryRuns.WithLabelValues("dlq", outcome(report)).Inc()

	if report.Processed > 0 {
		s.log.Info().
			Int("processed", report.Processed).
			Int("recovered", report.Recovered).
			Int("failed", report.Failed).
			Msg("dead letter pass complete")
	}
	return report, nil
}

// RecoverStaleOperations force-fails async operations that have gone silent
// past the staleness threshold, leaving an audit trail.
func (s *RecoveryServiceImpl) RecoverStaleOperations(ctx context.Context) (*ports.RecoveryReport, error) {
	report := &ports.RecoveryReport{}
	cutoff := time.Now().UTC().Add(-s.cfg.StaleThreshold)

	ops, err := s.opsRepo.ListStale(ctx, cutoff, s.cfg.DLQBatchSize)
	if err != nil {
		return report, fmt.Errorf("list stale operations: %w", err)
	}

	for _, op := range ops {
		report.Processed++
		if err := s.opsRepo.MarkFailed(ctx, op.ID, staleRecoveryReason); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.Recovered++
		s.audit(ctx, "force_fail_stale_operation", "recovery_operation", op.ID, staleRecoveryReason)
		s.log.Warn().
			Str("operation_id", op.ID.String()).
			Str("type", op.Type).
			Time("last_updated_at", op.LastUpdatedAt).
			Msg("stale operation force-failed")
	}

	s.metrics.RecoveryRuns.WithLabelValues("stale", outcome(report)).Inc()
	return report, nil
}

func (s *RecoveryServiceImpl) replayWebhook(ctx context.Context, msg *domain.DeadLetterMessage) error {
	var payload domain.WebhookReplayPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("malformed webhook replay payload: %w", err)
	}
	return s.inbox.Reprocess(ctx, payload.WebhookEventID)
}

func (s *RecoveryServiceImpl) replaySync(ctx context.Context, msg *domain.DeadLetterMessage) error {
	var payload domain.SyncReplayPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("malformed sync replay payload: %w", err)
	}
	// Refresh the operation so the stale sweep gives its worker another
	// threshold window before force-failing it.
	if err := s.opsRepo.Touch(ctx, payload.OperationID); err != nil {
		return err
	}
	s.audit(ctx, "requeue_sync_operation", "recovery_operation", payload.OperationID, "sync operation requeued for retry")
	return nil
}

func (s *RecoveryServiceImpl) replayNotification(ctx context.Context, msg *domain.DeadLetterMessage) error {
	var payload domain.NotificationReplayPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("malformed notification replay payload: %w", err)
	}

	// Re-emit through the outbox so delivery keeps the usual at-least-once
	// guarantees.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	event := &domain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "payment_intent",
		AggregateID:   payload.AggregateID,
		EventType:     payload.EventType,
		Payload:       msg.Payload,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.outboxRepo.Append(ctx, dbTx, event); err != nil {
		return fmt.Errorf("append replay event: %w", err)
	}
	return dbTx.Commit(ctx)
}

// prune drops expired idempotency records and delivered outbox rows.
func (s *RecoveryServiceImpl) prune(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.idempRepo.DeleteExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("idempotency prune failed")
	} else if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("expired idempotency records pruned")
	}

	if n, err := s.outboxRepo.DeletePublishedBefore(ctx, now.Add(-s.retention)); err != nil {
		s.log.Error().Err(err).Msg("outbox prune failed")
	} else if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("delivered outbox rows pruned")
	}
}

func (s *RecoveryServiceImpl) audit(ctx context.Context, action, entityType string, entityID uuid.UUID, detail string) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}

func outcome(r *ports.RecoveryReport) string {
	if r.Failed > 0 {
		return "partial"
	}
	return "success"
}
