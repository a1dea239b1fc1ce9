package port

import (
	"context"

	"github.com/bibbank/scamshield/internal/domain/event"
)

// EventPublisher delivers domain events to whoever listens for classifications.
// Implementations either deliver the whole batch or return an error.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}
