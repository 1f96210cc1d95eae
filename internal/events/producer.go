package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer publishes booking lifecycle events to kafka. Publishing is
// best-effort; callers log failures and carry on.
type KafkaProducer struct {
	brokers []string
}

// NewKafkaProducer creates a new KafkaProducer
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{brokers: brokers}
}

// Publish writes a JSON-encoded message to the topic, keyed for per-PNR
// ordering
func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data})
}
