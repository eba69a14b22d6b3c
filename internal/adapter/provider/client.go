package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ticketing-payment-core/internal/core/ports"

	"github.com/rs/zerolog"
)

// Error is a structured provider failure. It satisfies the resilience
// package's StatusCoder and RetryAfterHinter so classification can use the
// status code instead of message matching.
type Error struct {
	Status     int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d (%s): %s", e.Status, e.Code, e.Message)
}

func (e *Error) StatusCode() int        { return e.Status }
func (e *Error) RetryAfterSeconds() int { return e.RetryAfter }

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds provider connection settings.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client talks to the payment provider's HTTP API. Every mutating call
// forwards the caller's idempotency key so provider-side dedup holds across
// retries. Access tokens are refreshed for real: requests within the refresh
// margin of expiry block on a mutex-guarded token exchange.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	log        zerolog.Logger

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
}

const tokenRefreshMargin = 30 * time.Second

var _ ports.ProviderClient = (*Client)(nil)

// NewClient creates a provider client.
func NewClient(cfg Config, httpClient HTTPClient, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
		now:        time.Now,
	}
}

// CreatePaymentIntent asks the provider to open a charge.
func (c *Client) CreatePaymentIntent(ctx context.Context, req ports.ProviderPaymentRequest) (*ports.ProviderPaymentResult, error) {
	body := map[string]any{
		"order_id": req.OrderID,
		"amount":   req.Amount,
		"currency": req.Currency,
	}
	var result ports.ProviderPaymentResult
	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", req.IdempotencyKey, body, &raw); err != nil {
		return nil, err
	}
	result.ProviderReferenceID = raw.ID
	result.Status = raw.Status
	return &result, nil
}

// ConfirmPayment captures a previously created intent.
func (c *Client) ConfirmPayment(ctx context.Context, providerRef, idempotencyKey string) (*ports.ProviderPaymentResult, error) {
	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/v1/payment_intents/%s/confirm", providerRef)
	if err := c.do(ctx, http.MethodPost, path, idempotencyKey, nil, &raw); err != nil {
		return nil, err
	}
	return &ports.ProviderPaymentResult{ProviderReferenceID: raw.ID, Status: raw.Status}, nil
}

// CreateRefund asks the provider to reverse part or all of a charge.
func (c *Client) CreateRefund(ctx context.Context, req ports.ProviderRefundRequest) (*ports.ProviderRefundResult, error) {
	body := map[string]any{
		"payment_intent": req.ProviderReferenceID,
		"amount":         req.Amount,
		"reason":         req.Reason,
	}
	var raw struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", req.IdempotencyKey, body, &raw); err != nil {
		return nil, err
	}
	return &ports.ProviderRefundResult{ProviderRefundID: raw.ID, Status: raw.Status}, nil
}

// Ping probes provider availability without side effects.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/health", "", nil, nil)
}

// Name identifies the provider in health reporting.
func (c *Client) Name() string { return "payment-provider" }

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body any, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

// parseError turns a non-2xx response into a structured *Error, keeping the
// Retry-After header when the provider sets one.
func (c *Client) parseError(resp *http.Response) error {
	provErr := &Error{Status: resp.StatusCode, Code: "unknown", Message: resp.Status}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
			provErr.Code = parsed.Code
			provErr.Message = parsed.Message
		}
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, convErr := strconv.Atoi(ra); convErr == nil {
			provErr.RetryAfter = secs
		}
	}
	return provErr
}

// ensureToken returns a valid access token, exchanging client credentials
// when the cached token is missing or within the refresh margin of expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && c.now().Add(tokenRefreshMargin).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", c.parseError(resp)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", &Error{Status: 401, Code: "invalid_token", Message: "authentication failed: empty access token"}
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.log.Debug().Time("expiry", c.tokenExpiry).Msg("provider access token refreshed")
	return c.accessToken, nil
}
