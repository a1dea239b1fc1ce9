package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/bibbank/scamshield/internal/domain/event"
	"github.com/bibbank/scamshield/pkg/kafka"
)

// Header keys set on every published record.
const (
	HeaderEventType   = "event_type"
	HeaderContentType = "content_type"
	HeaderOccurredAt  = "occurred_at"
)

// Producer is the slice of pkg/kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// KafkaPublisher implements port.EventPublisher on Kafka. Records are JSON, keyed
// by message ID so every event about one message stays on one partition, and carry
// the caller's W3C trace context in their headers.
type KafkaPublisher struct {
	producer Producer
	logger   *slog.Logger
	topic    string
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger, topic: topic}
}

// Publish encodes events and writes them as one batch. Nothing is written when
// any event fails to encode.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]kafka.Message, len(events))
	for i, evt := range events {
		rec, err := p.record(ctx, evt)
		if err != nil {
			return err
		}
		records[i] = rec
	}

	if err := p.producer.Publish(ctx, p.topic, records...); err != nil {
		return fmt.Errorf("publishing %d events to %s: %w", len(records), p.topic, err)
	}
	p.logger.DebugContext(ctx, "events published", "topic", p.topic, "count", len(records))
	return nil
}

func (p *KafkaPublisher) record(ctx context.Context, evt event.DomainEvent) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding %s event: %w", evt.EventType(), err)
	}

	headers := map[string]string{
		HeaderEventType:   evt.EventType(),
		HeaderContentType: "application/json",
		HeaderOccurredAt:  evt.OccurredAt().UTC().Format(time.RFC3339Nano),
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	return kafka.Message{
		Key:     []byte(evt.AggregateID().String()),
		Value:   payload,
		Headers: headers,
	}, nil
}
