package notifications

import (
	"context"
	"log/slog"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

// LogSender records intents to the log instead of delivering them. Used when
// no downstream messaging webhook is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, intent domain.NotificationIntent) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification intent (no webhook configured)",
		slog.String("order.id", intent.OrderID.String()),
		slog.String("order.reference", intent.Reference),
		slog.String("kind", string(intent.Kind)),
		slog.String("phone", intent.Phone),
		slog.String("message", intent.Message),
	)
	return nil
}

var _ ports.Sender = (*LogSender)(nil)
