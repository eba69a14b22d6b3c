package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Serializing Transactor ---

// memTransactor emulates database transaction isolation with one global lock:
// Begin blocks until the previous transaction commits or rolls back. This
// gives the in-memory repos the same serialization the row locks provide in
// PostgreSQL, so concurrency tests can assert exact outcomes.
type memTransactor struct {
	mu sync.Mutex
}

func newMemTransactor() *memTransactor {
	return &memTransactor{}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{unlock: &t.mu}, nil
}

// memTx is a no-op pgx.Tx that releases the transactor lock exactly once.
type memTx struct {
	unlock *sync.Mutex
	once   sync.Once
}

func (t *memTx) release() {
	t.once.Do(t.unlock.Unlock)
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.release(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

// --- In-Memory Payment Intent Repo ---

type inMemoryIntentRepo struct {
	mu      sync.RWMutex
	intents map[uuid.UUID]*domain.PaymentIntent
}

func newInMemoryIntentRepo() *inMemoryIntentRepo {
	return &inMemoryIntentRepo{intents: make(map[uuid.UUID]*domain.PaymentIntent)}
}

func (r *inMemoryIntentRepo) Create(ctx context.Context, tx pgx.Tx, intent *domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *intent
	r.intents[intent.ID] = &cp
	return nil
}

func (r *inMemoryIntentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[id]
	if !ok {
		return nil, nil
	}
	cp := *intent
	return &cp, nil
}

func (r *inMemoryIntentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.PaymentIntent, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryIntentRepo) GetByProviderReference(ctx context.Context, providerRef string) (*domain.PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, intent := range r.intents {
		if intent.ProviderReferenceID == providerRef {
			cp := *intent
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryIntentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentIntentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[id]
	if !ok {
		return fmt.Errorf("payment intent not found")
	}
	intent.Status = status
	intent.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Refund Repo ---

type inMemoryRefundRepo struct {
	mu      sync.RWMutex
	refunds map[uuid.UUID]*domain.Refund
}

func newInMemoryRefundRepo() *inMemoryRefundRepo {
	return &inMemoryRefundRepo{refunds: make(map[uuid.UUID]*domain.Refund)}
}

func (r *inMemoryRefundRepo) Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *refund
	r.refunds[refund.ID] = &cp
	return nil
}

func (r *inMemoryRefundRepo) SumActiveByIntent(ctx context.Context, tx pgx.Tx, intentID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, rf := range r.refunds {
		if rf.PaymentIntentID == intentID && rf.CountsTowardCap() {
			sum += rf.Amount
		}
	}
	return sum, nil
}

func (r *inMemoryRefundRepo) ListByIntent(ctx context.Context, intentID uuid.UUID) ([]domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Refund
	for _, rf := range r.refunds {
		if rf.PaymentIntentID == intentID {
			result = append(result, *rf)
		}
	}
	return result, nil
}

func (r *inMemoryRefundRepo) Settle(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.RefundStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.refunds[id]
	if !ok || rf.Status != domain.RefundStatusPending {
		return false, nil
	}
	rf.Status = status
	return true, nil
}

func (r *inMemoryRefundRepo) GetByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rf := range r.refunds {
		if rf.ProviderRefundID == providerRefundID {
			cp := *rf
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func idemKey(operationType, key string) string {
	return operationType + "|" + key
}

func (r *inMemoryIdempotencyRepo) Claim(ctx context.Context, rec *domain.IdempotencyRecord) (bool, *domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := idemKey(rec.OperationType, rec.Key)
	if existing, ok := r.records[k]; ok {
		cp := *existing
		return false, &cp, nil
	}
	cp := *rec
	r.records[k] = &cp
	return true, nil, nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, operationType, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[idemKey(operationType, key)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryIdempotencyRepo) Complete(ctx context.Context, operationType, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[idemKey(operationType, key)]
	if !ok {
		return fmt.Errorf("idempotency record not found")
	}
	rec.Status = domain.IdempotencyCompleted
	rec.ResultPayload = payload
	return nil
}

func (r *inMemoryIdempotencyRepo) Release(ctx context.Context, operationType, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, idemKey(operationType, key))
	return nil
}

func (r *inMemoryIdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for k, rec := range r.records {
		if rec.ExpiresAt.Before(now) {
			delete(r.records, k)
			deleted++
		}
	}
	return deleted, nil
}

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*domain.WebhookEvent
	seen   map[string]uuid.UUID
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{
		events: make(map[uuid.UUID]*domain.WebhookEvent),
		seen:   make(map[string]uuid.UUID),
	}
}

func (r *inMemoryWebhookRepo) Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dedupeKey := event.Provider + "|" + event.ProviderEventID
	if _, ok := r.seen[dedupeKey]; ok {
		return false, nil
	}
	cp := *event
	r.events[event.ID] = &cp
	r.seen[dedupeKey] = event.ID
	return true, nil
}

func (r *inMemoryWebhookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (r *inMemoryWebhookRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return fmt.Errorf("webhook event not found")
	}
	event.Status = domain.WebhookEventProcessed
	event.ProcessedAt = &at
	return nil
}

func (r *inMemoryWebhookRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return fmt.Errorf("webhook event not found")
	}
	event.Status = domain.WebhookEventFailed
	event.LastError = &cause
	return nil
}

// --- In-Memory Outbox Repo ---

type inMemoryOutboxRepo struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func newInMemoryOutboxRepo() *inMemoryOutboxRepo {
	return &inMemoryOutboxRepo{}
}

func (r *inMemoryOutboxRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *inMemoryOutboxRepo) ClaimUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batch []domain.OutboxEvent
	for _, e := range r.events {
		if e.PublishedAt == nil {
			batch = append(batch, *e)
			if len(batch) >= limit {
				break
			}
		}
	}
	return batch, nil
}

func (r *inMemoryOutboxRepo) MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("outbox event not found")
}

func (r *inMemoryOutboxRepo) IncrementAttempts(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Attempts++
			return nil
		}
	}
	return fmt.Errorf("outbox event not found")
}

func (r *inMemoryOutboxRepo) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.OutboxEvent
	var deleted int64
	for _, e := range r.events {
		if e.PublishedAt != nil && e.PublishedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

func (r *inMemoryOutboxRepo) countByType(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

// --- Fake Provider Client ---

// fakeProviderClient emulates the payment provider, including its
// idempotency-key dedup: a repeated create with the same key returns the
// original result without minting a new reference.
type fakeProviderClient struct {
	mu            sync.Mutex
	seq           int
	createdByKey  map[string]*ports.ProviderPaymentResult
	refundedByKey map[string]*ports.ProviderRefundResult

	paymentCreates int
	refundCreates  int
}

func newFakeProviderClient() *fakeProviderClient {
	return &fakeProviderClient{
		createdByKey:  make(map[string]*ports.ProviderPaymentResult),
		refundedByKey: make(map[string]*ports.ProviderRefundResult),
	}
}

func (f *fakeProviderClient) CreatePaymentIntent(ctx context.Context, req ports.ProviderPaymentRequest) (*ports.ProviderPaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prior, ok := f.createdByKey[req.IdempotencyKey]; ok {
		cp := *prior
		return &cp, nil
	}
	f.seq++
	f.paymentCreates++
	result := &ports.ProviderPaymentResult{
		ProviderReferenceID: fmt.Sprintf("pi_%d", f.seq),
		Status:              "pending",
	}
	f.createdByKey[req.IdempotencyKey] = result
	cp := *result
	return &cp, nil
}

func (f *fakeProviderClient) ConfirmPayment(ctx context.Context, providerRef, idempotencyKey string) (*ports.ProviderPaymentResult, error) {
	return &ports.ProviderPaymentResult{ProviderReferenceID: providerRef, Status: "succeeded"}, nil
}

func (f *fakeProviderClient) CreateRefund(ctx context.Context, req ports.ProviderRefundRequest) (*ports.ProviderRefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prior, ok := f.refundedByKey[req.IdempotencyKey]; ok {
		cp := *prior
		return &cp, nil
	}
	f.seq++
	f.refundCreates++
	result := &ports.ProviderRefundResult{
		ProviderRefundID: fmt.Sprintf("re_%d", f.seq),
		Status:           "pending",
	}
	f.refundedByKey[req.IdempotencyKey] = result
	cp := *result
	return &cp, nil
}

func (f *fakeProviderClient) Ping(ctx context.Context) error { return nil }

func (f *fakeProviderClient) paymentCreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paymentCreates
}

func (f *fakeProviderClient) refundCreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refundCreates
}
