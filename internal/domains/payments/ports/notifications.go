package ports

import (
	"context"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

// Dispatcher hands a notification intent off for delivery. It is
// fire-and-forget: callers invoke it after the atomic unit commits and a
// delivery failure never rolls back a payment transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent domain.NotificationIntent) error
}

// Sender performs the actual outbound delivery of one notification.
// Implementations carry their own timeout and do not retry internally.
type Sender interface {
	Send(ctx context.Context, intent domain.NotificationIntent) error
}
