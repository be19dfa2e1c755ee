package notifications

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	notifyactivities "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/temporal/activities/notifications"
)

const (
	// DispatchWorkflowName is the public identifier for registering the workflow.
	DispatchWorkflowName = "notifications.workflows.Dispatch"
	// DispatchTaskQueue is the queue consumed by the notification worker.
	DispatchTaskQueue = "PAYMENT_NOTIFICATIONS"
)

// DispatchWorkflow delivers one customer notification with retries. The
// payment state that triggered it is already committed, so the workflow only
// ever affects the outbound message.
func DispatchWorkflow(ctx workflow.Context, intent domain.NotificationIntent) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("notification dispatch started", "orderId", intent.OrderID, "kind", intent.Kind)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, options),
		notifyactivities.SendNotificationActivityName,
		intent,
	).Get(ctx, nil)
	if err != nil {
		logger.Error("notification dispatch failed", "orderId", intent.OrderID, "kind", intent.Kind, "error", err)
		return err
	}
	logger.Info("notification dispatch completed", "orderId", intent.OrderID, "kind", intent.Kind)
	return nil
}
