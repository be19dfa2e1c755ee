// Package notifications dispatches customer notification intents emitted by
// payment transitions. Dispatch is always fire-and-forget: the reconciliation
// unit of work has already committed by the time an intent reaches this
// package, and nothing here can undo it.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	notifyworkflows "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/temporal/workflows/notifications"
)

var (
	_ ports.Dispatcher = (*InlineDispatcher)(nil)
	_ ports.Dispatcher = (*TemporalDispatcher)(nil)
)

// InlineDispatcher delivers on a detached goroutine with a bounded timeout,
// useful for development and as a fallback when no Temporal cluster is up.
type InlineDispatcher struct {
	sender  ports.Sender
	logger  *slog.Logger
	timeout time.Duration
}

// NewInlineDispatcher wraps a sender for direct, non-durable delivery.
func NewInlineDispatcher(sender ports.Sender, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{sender: sender, logger: logger, timeout: 10 * time.Second}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, intent domain.NotificationIntent) error {
	if d == nil || d.sender == nil {
		return errors.New("inline dispatcher not configured")
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.sender.Send(sendCtx, intent); err != nil && d.logger != nil {
			d.logger.Warn("notification delivery failed",
				slog.String("order.id", intent.OrderID.String()),
				slog.String("kind", string(intent.Kind)),
				slog.String("error", err.Error()))
		}
	}()
	return nil
}

// TemporalDispatcher starts a durable dispatch workflow and returns without
// waiting for the result; the worker retries delivery per its policy.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
}

// NewTemporalDispatcher wires a Temporal client into the dispatcher.
func NewTemporalDispatcher(c client.Client) *TemporalDispatcher {
	return &TemporalDispatcher{client: c, taskQueue: notifyworkflows.DispatchTaskQueue}
}

func (d *TemporalDispatcher) Dispatch(ctx context.Context, intent domain.NotificationIntent) error {
	if d == nil || d.client == nil {
		return errors.New("temporal dispatcher not configured")
	}
	options := client.StartWorkflowOptions{
		// One workflow per order and kind keeps redispatch idempotent.
		ID:        fmt.Sprintf("notify-%s-%s", intent.OrderID, intent.Kind),
		TaskQueue: d.taskQueue,
	}
	_, err := d.client.ExecuteWorkflow(ctx, options, notifyworkflows.DispatchWorkflowName, intent)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		// The same intent was dispatched before; the running workflow owns it.
		return nil
	}
	return err
}
