package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentRefunds_CapNeverExceeded fires 20 concurrent refunds of
// 150,000 against a 1,000,000 payment. The cap check runs under the intent's
// transaction lock, so exactly 6 must succeed (900,000); every further
// attempt overshoots the 100,000 remainder and is rejected by the cap.
func TestConcurrentRefunds_CapNeverExceeded(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	intentID, _ := createConfirmedPayment(t, app, "CONCURRENT-REFUND", 1000000)

	concurrency := 20
	refundAmount := int64(150000)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var cappedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"amount":%d,"reason":"bulk cancellation"}`, refundAmount)
			req, err := http.NewRequest(http.MethodPost,
				app.server.URL+"/api/v1/payments/"+intentID+"/refunds",
				bytes.NewBufferString(body))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", fmt.Sprintf("concurrent-refund-%d", idx))

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()

			var envelope map[string]interface{}
			_ = json.NewDecoder(resp.Body).Decode(&envelope)

			switch resp.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusUnprocessableEntity:
				if envelope["error_code"] == "PAY_011" {
					cappedCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent refunds: %d succeeded, %d hit the cap (out of %d)",
		successCount.Load(), cappedCount.Load(), concurrency)

	assert.Equal(t, int64(6), successCount.Load(), "only refunds fitting the remaining balance may succeed")
	assert.Equal(t, int64(14), cappedCount.Load(), "the rest must be rejected by the cap")

	// The recorded refunds never exceed the original amount, and the intent
	// reflects the reserved total.
	status, envelope := app.get(t, "/api/v1/payments/"+intentID+"/refunds")
	require.Equal(t, http.StatusOK, status)
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, float64(6), data["total"])

	var sum float64
	for _, item := range data["items"].([]interface{}) {
		sum += item.(map[string]interface{})["amount"].(float64)
	}
	assert.Equal(t, float64(900000), sum)

	status, envelope = app.get(t, "/api/v1/payments/"+intentID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "partially_refunded", envelope["data"].(map[string]interface{})["status"])
}

// TestConcurrentCreates_SameIdempotencyKey fires 15 concurrent creates with
// one idempotency key. Exactly one execution reaches the provider; every
// caller gets the same payment intent back.
func TestConcurrentCreates_SameIdempotencyKey(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	concurrency := 15
	body := createPaymentBody("IDEMPOTENT-ORDER", 50000)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	ids := make([]string, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost,
				app.server.URL+"/api/v1/payments", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", "shared-create-key")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				return
			}
			successCount.Add(1)

			var envelope map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				return
			}
			ids[idx] = envelope["data"].(map[string]interface{})["id"].(string)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "all duplicate requests should succeed")

	unique := make(map[string]struct{})
	for _, id := range ids {
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	assert.Len(t, unique, 1, "all callers must observe the same payment intent")
	assert.Equal(t, 1, app.provider.paymentCreateCount(), "the provider must be charged exactly once")
}

// TestConcurrentWebhooks_ProcessedOnce delivers the same webhook event 10
// times concurrently. The inbox unique constraint admits one; the rest are
// acknowledged as duplicates.
func TestConcurrentWebhooks_ProcessedOnce(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, envelope := app.post(t, "/api/v1/payments", "webhook-race-key", createPaymentBody("WEBHOOK-RACE", 30000))
	require.Equal(t, http.StatusCreated, status)
	data := envelope["data"].(map[string]interface{})
	intentID := data["id"].(string)
	providerRef := data["provider_reference_id"].(string)

	webhook := fmt.Sprintf(
		`{"id":"evt-race-1","type":"payment_intent.succeeded","data":{"provider_reference_id":"%s"}}`,
		providerRef,
	)

	concurrency := 10
	var wg sync.WaitGroup
	var freshCount atomic.Int64
	var duplicateCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(app.server.URL+"/api/v1/webhooks/payment-provider",
				"application/json", bytes.NewBufferString(webhook))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			var envelope map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				return
			}
			if resp.StatusCode != http.StatusOK {
				return
			}
			if envelope["data"].(map[string]interface{})["duplicate"] == true {
				duplicateCount.Add(1)
			} else {
				freshCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), freshCount.Load(), "exactly one delivery is processed")
	assert.Equal(t, int64(concurrency-1), duplicateCount.Load())

	// The ledger transition happened once.
	status, envelope = app.get(t, "/api/v1/payments/"+intentID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "succeeded", envelope["data"].(map[string]interface{})["status"])
	assert.Equal(t, 1, app.outbox.countByType("payment_intent.succeeded"))
}
