package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketing-payment-core/internal/core/domain"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutboxEvent() domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "payment_intent",
		AggregateID:   uuid.New(),
		EventType:     domain.EventPaymentSucceeded,
		Payload:       []byte(`{"amount":100}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestPublisher_Publish(t *testing.T) {
	mp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	defer mp.Close()

	event := testOutboxEvent()
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, event.AggregateID.String(), string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		assert.Equal(t, event.Payload, value)

		assert.Equal(t, "payments.events", msg.Topic)
		return nil
	})

	pub := NewPublisher(mp, "payments.events", zerolog.Nop())
	err := pub.Publish(context.Background(), event)
	assert.NoError(t, err)
}

func TestPublisher_Publish_BrokerError(t *testing.T) {
	mp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	defer mp.Close()

	mp.ExpectSendMessageAndFail(errors.New("broker unavailable"))

	pub := NewPublisher(mp, "payments.events", zerolog.Nop())
	err := pub.Publish(context.Background(), testOutboxEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}
