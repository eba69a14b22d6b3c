package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/adapter/http/dto"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/internal/core/ports/mocks"
	"ticketing-payment-core/internal/metrics"
	"ticketing-payment-core/internal/service"
	"ticketing-payment-core/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testIntent() *domain.PaymentIntent {
	now := time.Now().UTC()
	return &domain.PaymentIntent{
		ID:                  uuid.New(),
		OrderID:             "ORDER-001",
		VenueID:             uuid.New(),
		TenantID:            uuid.New(),
		Amount:              250000,
		Currency:            "USD",
		Status:              domain.PaymentStatusPending,
		ProviderReferenceID: "pi_123",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func postJSON(t *testing.T, target string, body any, headers map[string]string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return w, c
}

// --- Payment Handler Tests ---

func TestCreatePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	intent := testIntent()
	mockLedger.EXPECT().
		CreatePayment(gomock.Any(), "idem-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req ports.CreatePaymentRequest) (*domain.PaymentIntent, error) {
			assert.Equal(t, "ORDER-001", req.OrderID)
			assert.Equal(t, int64(250000), req.Amount)
			return intent, nil
		})

	w, c := postJSON(t, "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:  "ORDER-001",
		VenueID:  intent.VenueID.String(),
		TenantID: intent.TenantID.String(),
		Amount:   250000,
		Currency: "USD",
	}, map[string]string{HeaderIdempotencyKey: "idem-1"})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, intent.ID.String(), data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "pi_123", data["provider_reference_id"])
}

func TestCreatePayment_MissingIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockLedgerService(ctrl), nil, nil)

	w, c := postJSON(t, "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:  "ORDER-001",
		VenueID:  uuid.New().String(),
		TenantID: uuid.New().String(),
		Amount:   100,
		Currency: "USD",
	}, nil)

	h.CreatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePayment_BindingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockLedgerService(ctrl), nil, nil)

	w, c := postJSON(t, "/api/v1/payments", map[string]any{"order_id": "X"},
		map[string]string{HeaderIdempotencyKey: "idem-1"})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePayment_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	mockLedger.EXPECT().
		CreatePayment(gomock.Any(), "idem-1", gomock.Any()).
		Return(nil, apperror.ErrIdempotencyConflict())

	w, c := postJSON(t, "/api/v1/payments", dto.CreatePaymentRequest{
		OrderID:  "ORDER-001",
		VenueID:  uuid.New().String(),
		TenantID: uuid.New().String(),
		Amount:   100,
		Currency: "USD",
	}, map[string]string{HeaderIdempotencyKey: "idem-1"})

	h.CreatePayment(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY_012", resp["error_code"])
}

func TestGetPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockPaymentIntentRepository(ctrl)
	h := NewPaymentHandler(nil, mockRepo, nil)

	intent := testIntent()
	mockRepo.EXPECT().GetByID(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+intent.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}

	h.GetPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPayment_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockPaymentIntentRepository(ctrl)
	h := NewPaymentHandler(nil, mockRepo, nil)

	id := uuid.New()
	mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetPayment(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPayment_InvalidID(t *testing.T) {
	h := NewPaymentHandler(nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	intent := testIntent()
	intent.Status = domain.PaymentStatusSucceeded
	mockLedger.EXPECT().ConfirmPayment(gomock.Any(), intent.ID).Return(intent, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+intent.ID.String()+"/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: intent.ID.String()}}

	h.ConfirmPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "succeeded", data["status"])
}

func TestConfirmPayment_InvalidState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	id := uuid.New()
	mockLedger.EXPECT().ConfirmPayment(gomock.Any(), id).
		Return(nil, apperror.ErrInvalidState("cannot confirm a failed payment"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+id.String()+"/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.ConfirmPayment(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRefund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	intentID := uuid.New()
	refund := &domain.Refund{
		ID:               uuid.New(),
		PaymentIntentID:  intentID,
		Amount:           400,
		Status:           domain.RefundStatusPending,
		ProviderRefundID: "re_1",
		CreatedAt:        time.Now().UTC(),
	}
	mockLedger.EXPECT().
		CreateRefund(gomock.Any(), "idem-r1", ports.RefundRequest{
			PaymentIntentID: intentID,
			Amount:          400,
			Reason:          "event cancelled",
		}).
		Return(refund, nil)

	w, c := postJSON(t, "/api/v1/payments/"+intentID.String()+"/refunds", dto.RefundRequest{
		Amount: 400,
		Reason: "event cancelled",
	}, map[string]string{HeaderIdempotencyKey: "idem-r1"})
	c.Params = gin.Params{{Key: "id", Value: intentID.String()}}

	h.CreateRefund(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "re_1", data["provider_refund_id"])
}

func TestCreateRefund_AmountExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger, nil, nil)

	intentID := uuid.New()
	mockLedger.EXPECT().
		CreateRefund(gomock.Any(), "idem-r1", gomock.Any()).
		Return(nil, apperror.ErrAmountExceeded())

	w, c := postJSON(t, "/api/v1/payments/"+intentID.String()+"/refunds", dto.RefundRequest{
		Amount: 999999,
	}, map[string]string{HeaderIdempotencyKey: "idem-r1"})
	c.Params = gin.Params{{Key: "id", Value: intentID.String()}}

	h.CreateRefund(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY_011", resp["error_code"])
}

func TestListRefunds_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefunds := mocks.NewMockRefundRepository(ctrl)
	h := NewPaymentHandler(nil, nil, mockRefunds)

	intentID := uuid.New()
	mockRefunds.EXPECT().ListByIntent(gomock.Any(), intentID).Return([]domain.Refund{
		{ID: uuid.New(), PaymentIntentID: intentID, Amount: 100, Status: domain.RefundStatusSucceeded},
		{ID: uuid.New(), PaymentIntentID: intentID, Amount: 200, Status: domain.RefundStatusPending},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+intentID.String()+"/refunds", nil)
	c.Params = gin.Params{{Key: "id", Value: intentID.String()}}

	h.ListRefunds(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
}

// --- Webhook Handler Tests ---

func TestWebhookReceive_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInbox := mocks.NewMockWebhookInbox(ctrl)
	h := NewWebhookHandler(mockInbox)

	mockInbox.EXPECT().
		Ingest(gomock.Any(), "stripe", "evt_1", domain.WebhookTypePaymentSucceeded, gomock.Any()).
		Return(false, nil)

	w, c := postJSON(t, "/api/v1/webhooks/stripe", dto.WebhookEnvelope{
		ID:   "evt_1",
		Type: domain.WebhookTypePaymentSucceeded,
		Data: json.RawMessage(`{"provider_reference_id":"pi_123"}`),
	}, nil)
	c.Params = gin.Params{{Key: "provider", Value: "stripe"}}

	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["received"])
	assert.Equal(t, false, data["duplicate"])
}

func TestWebhookReceive_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInbox := mocks.NewMockWebhookInbox(ctrl)
	h := NewWebhookHandler(mockInbox)

	mockInbox.EXPECT().
		Ingest(gomock.Any(), "stripe", "evt_1", domain.WebhookTypePaymentSucceeded, gomock.Any()).
		Return(true, nil)

	w, c := postJSON(t, "/api/v1/webhooks/stripe", dto.WebhookEnvelope{
		ID:   "evt_1",
		Type: domain.WebhookTypePaymentSucceeded,
		Data: json.RawMessage(`{}`),
	}, nil)
	c.Params = gin.Params{{Key: "provider", Value: "stripe"}}

	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["duplicate"])
}

func TestWebhookReceive_MissingEnvelopeFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWebhookHandler(mocks.NewMockWebhookInbox(ctrl))

	w, c := postJSON(t, "/api/v1/webhooks/stripe", map[string]any{"id": "evt_1"}, nil)
	c.Params = gin.Params{{Key: "provider", Value: "stripe"}}

	h.Receive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Handler Tests ---

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string                 { return s.name }
func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func TestHealthCheck_Healthy(t *testing.T) {
	monitor := service.NewHealthMonitor(
		[]ports.HealthChecker{&stubChecker{name: "postgres"}},
		config.HealthConfig{ProbeInterval: time.Minute, UnhealthyThreshold: 3},
		metrics.NewForTest(), zerolog.Nop(),
	)
	monitor.ProbeAll(context.Background())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(monitor)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	require.Len(t, resp.Dependencies, 1)
	assert.Equal(t, "postgres", resp.Dependencies[0].Name)
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	failing := &stubChecker{name: "redis", err: assert.AnError}
	monitor := service.NewHealthMonitor(
		[]ports.HealthChecker{failing},
		config.HealthConfig{ProbeInterval: time.Minute, UnhealthyThreshold: 2},
		metrics.NewForTest(), zerolog.Nop(),
	)
	ctx := context.Background()
	monitor.ProbeAll(ctx)
	monitor.ProbeAll(ctx)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(monitor)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
