package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"ticketing-payment-core/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const dlqKey = "recovery:dead_letter"

// DeadLetterQueue implements ports.DeadLetterQueue as a Redis list. Push
// appends, Pop takes the oldest, so replay preserves enqueue order.
type DeadLetterQueue struct {
	client *goredis.Client
}

// NewDeadLetterQueue creates a Redis-backed dead-letter queue.
func NewDeadLetterQueue(client *goredis.Client) *DeadLetterQueue {
	return &DeadLetterQueue{client: client}
}

// Push appends a failed job to the queue.
func (q *DeadLetterQueue) Push(ctx context.Context, msg domain.DeadLetterMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	if err := q.client.RPush(ctx, dlqKey, data).Err(); err != nil {
		return fmt.Errorf("push dead letter: %w", err)
	}
	return nil
}

// Pop removes and returns the oldest message, or nil when the queue is empty.
func (q *DeadLetterQueue) Pop(ctx context.Context) (*domain.DeadLetterMessage, error) {
	data, err := q.client.LPop(ctx, dlqKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("pop dead letter: %w", err)
	}

	var msg domain.DeadLetterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal dead letter: %w", err)
	}
	return &msg, nil
}

// Len returns the number of queued messages.
func (q *DeadLetterQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, dlqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("dead letter length: %w", err)
	}
	return n, nil
}
