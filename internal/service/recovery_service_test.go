package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports/mocks"
	"ticketing-payment-core/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recoveryTestDeps struct {
	svc        *RecoveryServiceImpl
	dlq        *mocks.MockDeadLetterQueue
	opsRepo    *mocks.MockRecoveryOperationRepository
	auditRepo  *mocks.MockAuditRepository
	idempRepo  *mocks.MockIdempotencyRepository
	outboxRepo *mocks.MockOutboxRepository
	transactor *mocks.MockDBTransactor
	inbox      *mocks.MockWebhookInbox
	ctrl       *gomock.Controller
}

func setupRecovery(t *testing.T) *recoveryTestDeps {
	ctrl := gomock.NewController(t)
	d := &recoveryTestDeps{
		dlq:        mocks.NewMockDeadLetterQueue(ctrl),
		opsRepo:    mocks.NewMockRecoveryOperationRepository(ctrl),
		auditRepo:  mocks.NewMockAuditRepository(ctrl),
		idempRepo:  mocks.NewMockIdempotencyRepository(ctrl),
		outboxRepo: mocks.NewMockOutboxRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		inbox:      mocks.NewMockWebhookInbox(ctrl),
		ctrl:       ctrl,
	}
	cfg := config.RecoveryConfig{
		Interval:       time.Minute,
		StaleThreshold: 30 * time.Minute,
		DLQMaxRetries:  3,
		DLQBatchSize:   10,
	}
	d.svc = NewRecoveryService(
		d.dlq, d.opsRepo, d.auditRepo, d.idempRepo, d.outboxRepo,
		d.transactor, d.inbox, cfg, 24*time.Hour, metrics.NewForTest(), zerolog.Nop(),
	)
	return d
}

func webhookDeadLetter(t *testing.T, eventID uuid.UUID, retries int) *domain.DeadLetterMessage {
	t.Helper()
	payload, err := json.Marshal(domain.WebhookReplayPayload{WebhookEventID: eventID})
	require.NoError(t, err)
	return &domain.DeadLetterMessage{
		ID:         uuid.New(),
		Queue:      domain.QueueWebhook,
		Payload:    payload,
		RetryCount: retries,
		EnqueuedAt: time.Now().UTC(),
	}
}

func TestRecovery_DLQ_ReplaysWebhook(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	eventID := uuid.New()
	msg := webhookDeadLetter(t, eventID, 0)

	gomock.InOrder(
		d.dlq.EXPECT().Pop(ctx).Return(msg, nil),
		d.dlq.EXPECT().Pop(ctx).Return(nil, nil),
	)
	d.inbox.EXPECT().Reprocess(ctx, eventID).Return(nil)
	d.auditRepo.EXPECT().Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *domain.AuditEntry) error {
			assert.Equal(t, "replay_dead_letter", entry.Action)
			return nil
		})
	d.dlq.EXPECT().Len(ctx).Return(int64(0), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Recovered)
	assert.Zero(t, report.Failed)
}

func TestRecovery_DLQ_RequeuesOnFailure(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	eventID := uuid.New()
	msg := webhookDeadLetter(t, eventID, 1)

	gomock.InOrder(
		d.dlq.EXPECT().Pop(ctx).Return(msg, nil),
		d.dlq.EXPECT().Pop(ctx).Return(nil, nil),
	)
	d.inbox.EXPECT().Reprocess(ctx, eventID).Return(assert.AnError)
	d.dlq.EXPECT().Push(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, requeued domain.DeadLetterMessage) error {
			assert.Equal(t, 2, requeued.RetryCount)
			assert.NotEmpty(t, requeued.LastError)
			return nil
		})
	d.dlq.EXPECT().Len(ctx).Return(int64(1), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Recovered)
}

func TestRecovery_DLQ_DropsAfterMaxRetries(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	msg := webhookDeadLetter(t, uuid.New(), 3)
	msg.LastError = "still broken"

	gomock.InOrder(
		d.dlq.EXPECT().Pop(ctx).Return(msg, nil),
		d.dlq.EXPECT().Pop(ctx).Return(nil, nil),
	)
	d.auditRepo.EXPECT().Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *domain.AuditEntry) error {
			assert.Equal(t, "drop_dead_letter", entry.Action)
			return nil
		})
	d.dlq.EXPECT().Len(ctx).Return(int64(0), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Recovered)
}

func TestRecovery_DLQ_SyncReplayTouchesOperation(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	opID := uuid.New()
	payload, err := json.Marshal(domain.SyncReplayPayload{OperationID: opID})
	require.NoError(t, err)
	msg := &domain.DeadLetterMessage{
		ID:      uuid.New(),
		Queue:   domain.QueueSync,
		Payload: payload,
	}

	gomock.InOrder(
		d.dlq.EXPECT().Pop(ctx).Return(msg, nil),
		d.dlq.EXPECT().Pop(ctx).Return(nil, nil),
	)
	d.opsRepo.EXPECT().Touch(ctx, opID).Return(nil)
	d.auditRepo.EXPECT().Insert(ctx, gomock.Any()).Return(nil).Times(2)
	d.dlq.EXPECT().Len(ctx).Return(int64(0), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)
}

func TestRecovery_DLQ_NotificationReplayReemitsThroughOutbox(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	aggregateID := uuid.New()
	payload, err := json.Marshal(domain.NotificationReplayPayload{
		AggregateID: aggregateID,
		EventType:   domain.EventPaymentSucceeded,
	})
	require.NoError(t, err)
	msg := &domain.DeadLetterMessage{
		ID:      uuid.New(),
		Queue:   domain.QueueNotification,
		Payload: payload,
	}

	gomock.InOrder(
		d.dlq.EXPECT().Pop(ctx).Return(msg, nil),
		d.dlq.EXPECT().Pop(ctx).Return(nil, nil),
	)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.outboxRepo.EXPECT().Append(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ interface{}, event *domain.OutboxEvent) error {
			assert.Equal(t, aggregateID, event.AggregateID)
			assert.Equal(t, domain.EventPaymentSucceeded, event.EventType)
			return nil
		})
	d.auditRepo.EXPECT().Insert(ctx, gomock.Any()).Return(nil)
	d.dlq.EXPECT().Len(ctx).Return(int64(0), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)
}

func TestRecovery_DLQ_Empty(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.dlq.EXPECT().Pop(ctx).Return(nil, nil)
	d.dlq.EXPECT().Len(ctx).Return(int64(0), nil)

	report, err := d.svc.ProcessDeadLetterQueue(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
}

func TestRecovery_StaleOperations_ForceFailed(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ops := []domain.RecoveryOperation{
		{ID: uuid.New(), Type: "blockchain_sync", Status: domain.OperationInProgress, LastUpdatedAt: time.Now().Add(-time.Hour)},
		{ID: uuid.New(), Type: "nft_mint", Status: domain.OperationPending, LastUpdatedAt: time.Now().Add(-2 * time.Hour)},
	}

	d.opsRepo.EXPECT().ListStale(ctx, gomock.Any(), 10).Return(ops, nil)
	d.opsRepo.EXPECT().MarkFailed(ctx, ops[0].ID, staleRecoveryReason).Return(nil)
	d.opsRepo.EXPECT().MarkFailed(ctx, ops[1].ID, staleRecoveryReason).Return(nil)
	d.auditRepo.EXPECT().Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *domain.AuditEntry) error {
			assert.Equal(t, "force_fail_stale_operation", entry.Action)
			return nil
		}).Times(2)

	report, err := d.svc.RecoverStaleOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Recovered)
}

func TestRecovery_StaleOperations_NoneStale(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.opsRepo.EXPECT().ListStale(ctx, gomock.Any(), 10).Return(nil, nil)

	report, err := d.svc.RecoverStaleOperations(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
}

func TestRecovery_StaleOperations_MarkFailedError(t *testing.T) {
	d := setupRecovery(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	op := domain.RecoveryOperation{ID: uuid.New(), Type: "blockchain_sync", Status: domain.OperationPending, LastUpdatedAt: time.Now().Add(-time.Hour)}

	d.opsRepo.EXPECT().ListStale(ctx, gomock.Any(), 10).Return([]domain.RecoveryOperation{op}, nil)
	d.opsRepo.EXPECT().MarkFailed(ctx, op.ID, staleRecoveryReason).Return(assert.AnError)

	report, err := d.svc.RecoverStaleOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.Errors)
}
