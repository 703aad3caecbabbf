package repository

import (
	"context"
	"time"

	"DashPull/internal/domain/repository"
	pkgkafka "DashPull/pkg/kafka"
)

// KafkaUpdatePublisher emits one event per applied resource fetch onto a
// Kafka topic, keyed by resource so consumers see per-resource order.
type KafkaUpdatePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaUpdatePublisher creates the publisher.
func NewKafkaUpdatePublisher(producer *pkgkafka.Producer, topic string) repository.UpdatePublisher {
	return &KafkaUpdatePublisher{producer: producer, topic: topic}
}

func (p *KafkaUpdatePublisher) PublishUpdate(ctx context.Context, key string, fetchedAt time.Time, payload any) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), map[string]interface{}{
		"resource":   key,
		"fetched_at": fetchedAt.UTC().Format(time.RFC3339Nano),
		"payload":    payload,
	})
}

// PublishMessage lets the log collector reuse the same producer for
// aggregated warning batches.
func (p *KafkaUpdatePublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	if topic == "" {
		topic = p.topic
	}
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaUpdatePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
