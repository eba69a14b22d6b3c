package bus

import (
	"context"
	"fmt"

	"ticketing-payment-core/config"
	"ticketing-payment-core/internal/core/domain"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// NewSyncProducer creates a Kafka sync producer that waits for full ISR
// acknowledgment, matching the at-least-once outbox contract.
func NewSyncProducer(cfg config.KafkaConfig, log zerolog.Logger) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized")

	return producer, nil
}

// Publisher implements ports.EventPublisher on top of a Kafka sync producer.
// Messages are keyed by aggregate id so all events for one payment intent
// land on the same partition in order.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewPublisher creates a Kafka-backed event publisher.
func NewPublisher(producer sarama.SyncProducer, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, log: log}
}

// Publish delivers one outbox event and returns only after broker ack.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID.String()),
		Value: sarama.ByteEncoder(event.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("aggregate_type"), Value: []byte(event.AggregateType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("sending kafka message: %w", err)
	}

	p.log.Debug().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close shuts down the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
