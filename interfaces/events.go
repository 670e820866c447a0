package interfaces

import (
	"context"

	"github.com/outreachcrm/sendpool/dto"
)

// EventsPublisher hands scheduler state changes to the CRM's event bus.
// Implementations must not block the scheduling path.
type EventsPublisher interface {
	PublishAccountEvent(ctx context.Context, event dto.AccountEvent)
	Close() error
}
