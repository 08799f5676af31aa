package port

import (
	"context"

	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// EventPublisher delivers domain events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
	PublishAsync(ctx context.Context, evt *event.Event)
}
