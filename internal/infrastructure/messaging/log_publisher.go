package messaging

import (
	"context"
	"log/slog"

	"github.com/bibbank/scamshield/internal/domain/event"
)

// LogPublisher implements port.EventPublisher by logging events. It is used when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new log-only event publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event at info level. It never fails.
func (p *LogPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	for _, evt := range events {
		p.logger.InfoContext(ctx, "event",
			slog.String("event_type", evt.EventType()),
			slog.String("message_id", evt.AggregateID().String()),
			slog.Time("occurred_at", evt.OccurredAt()),
			slog.Any("payload", evt),
		)
	}
	return nil
}
