package dispatcher

import (
	"context"

	"github.com/garyjia/escrow-portal/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// subscription is a named handler for one event type
type subscription struct {
	name    string
	handler Handler
}
