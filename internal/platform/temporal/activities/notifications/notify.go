package notifications

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

// SendNotificationActivityName delivers one notification intent.
const SendNotificationActivityName = "notifications.activities.Send"

// Activities groups notification delivery activities.
type Activities struct {
	sender ports.Sender
}

// NewActivities wires the outbound sender into the activities bundle.
func NewActivities(sender ports.Sender) *Activities {
	return &Activities{sender: sender}
}

// SendNotification performs one delivery attempt; Temporal owns the retries.
func (a *Activities) SendNotification(ctx context.Context, intent domain.NotificationIntent) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.sender == nil {
		logger.Error("notification activity not initialized", "orderId", intent.OrderID)
		return errors.New("notification activity not initialized")
	}
	logger.Info("SendNotification activity started", "orderId", intent.OrderID, "kind", intent.Kind)
	if err := a.sender.Send(ctx, intent); err != nil {
		logger.Error("SendNotification activity failed", "orderId", intent.OrderID, "error", err)
		return err
	}
	logger.Info("SendNotification activity completed", "orderId", intent.OrderID)
	return nil
}
