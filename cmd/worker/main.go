package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/notify"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/notifications"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	platformobservability "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/observability"
	notifyactivities "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/temporal/activities/notifications"
	notifyworkflows "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/temporal/workflows/notifications"
)

func main() {
	ctx := context.Background()
	const serviceName = "melagro-notification-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	sender := buildSender(logger)
	notifyActivities := notifyactivities.NewActivities(sender)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, notifyworkflows.DispatchTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(notifyworkflows.DispatchWorkflow, workflow.RegisterOptions{Name: notifyworkflows.DispatchWorkflowName})
	w.RegisterActivityWithOptions(notifyActivities.SendNotification, activity.RegisterOptions{Name: notifyactivities.SendNotificationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", notifyworkflows.DispatchTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildSender(logger *slog.Logger) ports.Sender {
	webhookURL := strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))
	if webhookURL == "" {
		logger.Warn("NOTIFY_WEBHOOK_URL not set, notifications are logged only")
		return notifications.NewLogSender(logger)
	}
	sender, err := notify.NewSender(webhookURL)
	if err != nil {
		logger.Warn("notification webhook misconfigured, notifications are logged only", slog.String("error", err.Error()))
		return notifications.NewLogSender(logger)
	}
	logger.Info("notification webhook configured")
	return sender
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
