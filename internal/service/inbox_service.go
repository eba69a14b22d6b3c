package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/metrics"
	"ticketing-payment-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// webhookPayload is the subset of the provider's event body the inbox needs
// to route a ledger transition.
type webhookPayload struct {
	ProviderReferenceID string `json:"provider_reference_id"`
	ProviderRefundID    string `json:"provider_refund_id"`
	FailureReason       string `json:"failure_reason"`
}

// InboxService implements ports.WebhookInbox. The dedup insert commits on its
// own before processing starts, so a crashed processing attempt never loses
// the event: the row stays pending and Reprocess can replay it.
type InboxService struct {
	webhookRepo ports.WebhookEventRepository
	ledger      ports.LedgerService
	transactor  ports.DBTransactor
	dlq         ports.DeadLetterQueue
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewInboxService creates a new InboxService.
func NewInboxService(
	webhookRepo ports.WebhookEventRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	dlq ports.DeadLetterQueue,
	m *metrics.Metrics,
	log zerolog.Logger,
) *InboxService {
	return &InboxService{
		webhookRepo: webhookRepo,
		ledger:      ledger,
		transactor:  transactor,
		dlq:         dlq,
		metrics:     m,
		log:         log,
	}
}

// Ingest records and processes one inbound provider webhook. Replayed
// deliveries return alreadyProcessed=true without touching the ledger. A
// processing failure marks the row failed and queues it for recovery replay.
func (s *InboxService) Ingest(ctx context.Context, provider, providerEventID, eventType string, payload []byte) (bool, error) {
	if providerEventID == "" {
		return false, apperror.Validation("provider event id is required")
	}

	event := &domain.WebhookEvent{
		ID:              uuid.New(),
		Provider:        provider,
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Payload:         payload,
		Status:          domain.WebhookEventPending,
		ReceivedAt:      time.Now().UTC(),
	}

	inserted, err := s.webhookRepo.Insert(ctx, event)
	if err != nil {
		return false, apperror.ErrDatabaseError(err)
	}
	if !inserted {
		s.metrics.WebhookDuplicates.Inc()
		s.log.Debug().
			Str("provider", provider).
			Str("provider_event_id", providerEventID).
			Msg("duplicate webhook dropped")
		return true, nil
	}

	if err := s.process(ctx, event); err != nil {
		s.deadLetter(ctx, event, err)
		return false, err
	}
	return false, nil
}

// Reprocess replays a stored inbox event, typically from the dead-letter
// queue. Already-processed events are a no-op.
func (s *InboxService) Reprocess(ctx context.Context, eventID uuid.UUID) error {
	event, err := s.webhookRepo.GetByID(ctx, eventID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if event == nil {
		return apperror.ErrNotFound("webhook event")
	}
	if event.Status == domain.WebhookEventProcessed {
		return nil
	}
	return s.process(ctx, event)
}

// process dispatches the event to the matching ledger transition. The
// transition and the processed mark commit atomically; on failure the whole
// transaction rolls back and the row is marked failed outside it.
func (s *InboxService) process(ctx context.Context, event *domain.WebhookEvent) error {
	var body webhookPayload
	if err := json.Unmarshal(event.Payload, &body); err != nil {
		markErr := fmt.Errorf("malformed webhook payload: %w", err)
		s.markFailed(ctx, event.ID, markErr)
		return apperror.Validation(markErr.Error())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	switch event.EventType {
	case domain.WebhookTypePaymentSucceeded:
		err = s.ledger.ConfirmPaymentTx(ctx, dbTx, body.ProviderReferenceID)
	case domain.WebhookTypePaymentFailed:
		err = s.ledger.FailPaymentTx(ctx, dbTx, body.ProviderReferenceID, body.FailureReason)
	case domain.WebhookTypeRefundSucceeded:
		err = s.ledger.SettleRefundTx(ctx, dbTx, body.ProviderRefundID, true)
	case domain.WebhookTypeRefundFailed:
		err = s.ledger.SettleRefundTx(ctx, dbTx, body.ProviderRefundID, false)
	default:
		// Unknown event types are acknowledged and ignored.
		s.log.Debug().Str("event_type", event.EventType).Msg("ignoring unknown webhook event type")
	}
	if err != nil {
		s.markFailed(ctx, event.ID, err)
		return err
	}

	if err := s.webhookRepo.MarkProcessed(ctx, dbTx, event.ID, time.Now().UTC()); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.metrics.WebhookProcessed.WithLabelValues("processed").Inc()
	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Msg("webhook processed")
	return nil
}

func (s *InboxService) markFailed(ctx context.Context, eventID uuid.UUID, cause error) {
	s.metrics.WebhookProcessed.WithLabelValues("failed").Inc()
	if err := s.webhookRepo.MarkFailed(ctx, eventID, cause.Error()); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID.String()).Msg("failed to mark webhook failed")
	}
}

func (s *InboxService) deadLetter(ctx context.Context, event *domain.WebhookEvent, cause error) {
	payload, err := json.Marshal(domain.WebhookReplayPayload{WebhookEventID: event.ID})
	if err != nil {
		return
	}
	msg := domain.DeadLetterMessage{
		ID:         uuid.New(),
		Queue:      domain.QueueWebhook,
		Payload:    payload,
		LastError:  cause.Error(),
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.dlq.Push(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to enqueue webhook for recovery")
	}
}
