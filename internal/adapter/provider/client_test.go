package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"ticketing-payment-core/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTrip func(req *http.Request) (*http.Response, error)

func (f roundTrip) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const tokenBody = `{"access_token":"tok-1","expires_in":3600}`

func newTestClient(do roundTrip) *Client {
	return NewClient(Config{
		BaseURL:      "https://provider.test",
		ClientID:     "client",
		ClientSecret: "secret",
	}, do, zerolog.Nop())
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	var apiReq *http.Request
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			return jsonResponse(200, tokenBody), nil
		}
		apiReq = req
		return jsonResponse(200, `{"id":"pi_1","status":"pending"}`), nil
	})

	result, err := c.CreatePaymentIntent(context.Background(), ports.ProviderPaymentRequest{
		OrderID:        "ORDER-001",
		Amount:         250000,
		Currency:       "USD",
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", result.ProviderReferenceID)
	assert.Equal(t, "pending", result.Status)

	require.NotNil(t, apiReq)
	assert.Equal(t, http.MethodPost, apiReq.Method)
	assert.Equal(t, "/v1/payment_intents", apiReq.URL.Path)
	assert.Equal(t, "Bearer tok-1", apiReq.Header.Get("Authorization"))
	assert.Equal(t, "idem-1", apiReq.Header.Get("Idempotency-Key"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(apiReq.Body).Decode(&body))
	assert.Equal(t, "ORDER-001", body["order_id"])
	assert.Equal(t, float64(250000), body["amount"])
}

func TestConfirmPayment_Success(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			return jsonResponse(200, tokenBody), nil
		}
		assert.Equal(t, "/v1/payment_intents/pi_1/confirm", req.URL.Path)
		return jsonResponse(200, `{"id":"pi_1","status":"succeeded"}`), nil
	})

	result, err := c.ConfirmPayment(context.Background(), "pi_1", "intent-uuid")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", result.Status)
}

func TestCreateRefund_Success(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			return jsonResponse(200, tokenBody), nil
		}
		assert.Equal(t, "/v1/refunds", req.URL.Path)
		assert.Equal(t, "idem-r1", req.Header.Get("Idempotency-Key"))
		return jsonResponse(200, `{"id":"re_1","status":"pending"}`), nil
	})

	result, err := c.CreateRefund(context.Background(), ports.ProviderRefundRequest{
		ProviderReferenceID: "pi_1",
		Amount:              400,
		Reason:              "event cancelled",
		IdempotencyKey:      "idem-r1",
	})
	require.NoError(t, err)
	assert.Equal(t, "re_1", result.ProviderRefundID)
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	tokenCalls := 0
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			tokenCalls++
			return jsonResponse(200, tokenBody), nil
		}
		return jsonResponse(200, `{"id":"pi_1","status":"pending"}`), nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.CreatePaymentIntent(ctx, ports.ProviderPaymentRequest{OrderID: "O", Amount: 1, Currency: "USD"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, tokenCalls)
}

func TestTokenRefreshedNearExpiry(t *testing.T) {
	tokenCalls := 0
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			tokenCalls++
			return jsonResponse(200, `{"access_token":"tok-short","expires_in":60}`), nil
		}
		return jsonResponse(200, `{"id":"pi_1","status":"pending"}`), nil
	})

	ctx := context.Background()
	_, err := c.CreatePaymentIntent(ctx, ports.ProviderPaymentRequest{OrderID: "O", Amount: 1, Currency: "USD"})
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls)

	// Move to within the refresh margin of expiry.
	base := time.Now().Add(45 * time.Second)
	c.now = func() time.Time { return base }

	_, err = c.CreatePaymentIntent(ctx, ports.ProviderPaymentRequest{OrderID: "O", Amount: 1, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, 2, tokenCalls)
}

func TestProviderError_ParsedWithRetryAfter(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			return jsonResponse(200, tokenBody), nil
		}
		resp := jsonResponse(429, `{"code":"rate_limited","message":"too many requests"}`)
		resp.Header.Set("Retry-After", "10")
		return resp, nil
	})

	_, err := c.CreatePaymentIntent(context.Background(), ports.ProviderPaymentRequest{OrderID: "O", Amount: 1, Currency: "USD"})
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 429, provErr.StatusCode())
	assert.Equal(t, "rate_limited", provErr.Code)
	assert.Equal(t, 10, provErr.RetryAfterSeconds())
}

func TestEmptyAccessTokenRejected(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"access_token":"","expires_in":3600}`), nil
	})

	err := c.Ping(context.Background())
	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 401, provErr.StatusCode())
}

func TestPing_Success(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/oauth/token") {
			return jsonResponse(200, tokenBody), nil
		}
		assert.Equal(t, "/v1/health", req.URL.Path)
		return jsonResponse(200, `{}`), nil
	})

	assert.NoError(t, c.Ping(context.Background()))
}
