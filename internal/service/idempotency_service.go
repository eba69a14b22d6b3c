package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/domain"
	"ticketing-payment-core/internal/core/ports"
	"ticketing-payment-core/pkg/apperror"

	"github.com/rs/zerolog"
)

// cachedResult is the Redis envelope. The fingerprint travels with the cached
// response so key-reuse detection works on the fast path too.
type cachedResult struct {
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result"`
}

// IdempotencyGuard wraps mutating operations in a two-layer idempotency
// check: Redis fast path, then an atomic claim in the durable store. Exactly
// one caller per (operation, key) executes fn; everyone else gets the first
// caller's result.
type IdempotencyGuard struct {
	repo  ports.IdempotencyRepository
	cache ports.IdempotencyCache
	cfg   config.IdempotencyConfig
	log   zerolog.Logger

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(
	repo ports.IdempotencyRepository,
	cache ports.IdempotencyCache,
	cfg config.IdempotencyConfig,
	log zerolog.Logger,
) *IdempotencyGuard {
	return &IdempotencyGuard{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		log:   log,
		sleep: sleepCtx,
	}
}

// Do executes fn at most once per (operationType, key). requestBody is the
// normalized request used for fingerprinting; reusing a key with a different
// body is rejected. On a concurrent duplicate Do polls briefly for the first
// execution to finish before giving up.
func (g *IdempotencyGuard) Do(
	ctx context.Context,
	operationType, key string,
	requestBody []byte,
	fn func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	if key == "" {
		return nil, apperror.Validation("idempotency key is required")
	}

	fingerprint := domain.Fingerprint(requestBody)
	cacheKey := operationType + ":" + key

	// Layer 1: Redis fast path
	cached, err := g.cache.Get(ctx, cacheKey)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		var entry cachedResult
		if err := json.Unmarshal(cached, &entry); err == nil {
			if entry.Fingerprint != fingerprint {
				return nil, apperror.ErrIdempotencyConflict()
			}
			return entry.Result, nil
		}
		g.log.Warn().Str("key", key).Msg("malformed idempotency cache entry, falling through to DB")
	}

	// Layer 2: atomic claim in the durable store
	deadline := time.Now().Add(g.cfg.PollBudget)
	for {
		now := time.Now().UTC()
		rec := &domain.IdempotencyRecord{
			Key:                key,
			OperationType:      operationType,
			RequestFingerprint: fingerprint,
			Status:             domain.IdempotencyInFlight,
			ExpiresAt:          now.Add(g.cfg.TTL),
			CreatedAt:          now,
		}

		claimed, existing, err := g.repo.Claim(ctx, rec)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency claim: %w", err))
		}

		if claimed {
			return g.execute(ctx, operationType, key, cacheKey, fingerprint, fn)
		}

		if existing.RequestFingerprint != fingerprint {
			return nil, apperror.ErrIdempotencyConflict()
		}
		if existing.Status == domain.IdempotencyCompleted {
			g.backfillCache(ctx, cacheKey, fingerprint, existing.ResultPayload)
			return existing.ResultPayload, nil
		}

		// First execution still in flight. Poll until it completes, the
		// claim is released, or the budget runs out.
		done, payload, err := g.waitForResult(ctx, operationType, key, deadline)
		if err != nil {
			return nil, err
		}
		if done {
			g.backfillCache(ctx, cacheKey, fingerprint, payload)
			return payload, nil
		}
		// Claim released by a failed execution: loop and try to claim it.
		if time.Now().After(deadline) {
			return nil, apperror.ErrRequestInProgress()
		}
	}
}

// execute runs the guarded function under an owned claim.
func (g *IdempotencyGuard) execute(
	ctx context.Context,
	operationType, key, cacheKey, fingerprint string,
	fn func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	payload, err := fn(ctx)
	if err != nil {
		// Release so a retry with the same key can run again.
		if relErr := g.repo.Release(ctx, operationType, key); relErr != nil {
			g.log.Error().Err(relErr).Str("key", key).Msg("failed to release idempotency claim")
		}
		return nil, err
	}

	if err := g.repo.Complete(ctx, operationType, key, payload); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("complete idempotency record: %w", err))
	}

	g.backfillCache(ctx, cacheKey, fingerprint, payload)
	return payload, nil
}

// waitForResult polls the durable store for the first execution's outcome.
// done=false with nil error means the claim was released and may be retaken.
func (g *IdempotencyGuard) waitForResult(ctx context.Context, operationType, key string, deadline time.Time) (done bool, payload []byte, err error) {
	for time.Now().Before(deadline) {
		if err := g.sleep(ctx, g.cfg.PollInterval); err != nil {
			return false, nil, err
		}

		rec, err := g.repo.Get(ctx, operationType, key)
		if err != nil {
			return false, nil, apperror.InternalError(fmt.Errorf("idempotency poll: %w", err))
		}
		if rec == nil {
			return false, nil, nil
		}
		if rec.Status == domain.IdempotencyCompleted {
			return true, rec.ResultPayload, nil
		}
	}
	return false, nil, apperror.ErrRequestInProgress()
}

func (g *IdempotencyGuard) backfillCache(ctx context.Context, cacheKey, fingerprint string, payload []byte) {
	entry, err := json.Marshal(cachedResult{Fingerprint: fingerprint, Result: payload})
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, cacheKey, entry, g.cfg.TTL); err != nil {
		g.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache idempotency result in redis")
	}
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
