package observability

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

const tracerName = "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(attribute.Int("order.item_count", len(input.Items)), attribute.Int64("order.total", input.Total)))
	defer span.End()

	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order")
	}
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed",
		slog.String("order.id", result.ID.String()),
		slog.String("order.reference", result.Reference),
		slog.Int64("order.total", result.Total),
	)
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id.String()))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) InitiateMpesaPayment(ctx context.Context, id uuid.UUID, phone string) (*ports.MpesaPushResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.InitiateMpesaPayment",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	result, err := s.inner.InitiateMpesaPayment(ctx, id, phone)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to initiate mobile money payment", slog.String("order.id", id.String()))
	}
	s.metrics.recordInitiated(ctx, domain.ProviderMpesa)
	s.logInfo(ctx, "mobile money push requested",
		slog.String("order.id", id.String()),
		slog.String("checkout_request_id", result.CheckoutRequestID),
	)
	return result, nil
}

func (s *Service) InitiateCardPayment(ctx context.Context, id uuid.UUID) (*ports.CardSessionResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.InitiateCardPayment",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	result, err := s.inner.InitiateCardPayment(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to initiate card payment", slog.String("order.id", id.String()))
	}
	s.metrics.recordInitiated(ctx, domain.ProviderCard)
	s.logInfo(ctx, "card checkout session created",
		slog.String("order.id", id.String()),
		slog.String("session_id", result.SessionID),
	)
	return result, nil
}

func (s *Service) AdvanceFulfillment(ctx context.Context, id uuid.UUID, to domain.Status, note string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.AdvanceFulfillment",
		trace.WithAttributes(attribute.String("order.id", id.String()), attribute.String("order.status", string(to))))
	defer span.End()

	result, err := s.inner.AdvanceFulfillment(ctx, id, to, note)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to advance fulfillment",
			slog.String("order.id", id.String()), slog.String("order.status", string(to)))
	}
	s.logInfo(ctx, "fulfillment advanced",
		slog.String("order.id", id.String()),
		slog.String("order.status", string(result.Status)),
	)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	ordersPlaced      metric.Int64Counter
	paymentsInitiated metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	paymentsInitiated, _ := m.Int64Counter("orders.service.payments_initiated", metric.WithDescription("Number of payment initiations by provider"))
	return serviceMetrics{ordersPlaced: ordersPlaced, paymentsInitiated: paymentsInitiated}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordInitiated(ctx context.Context, provider domain.Provider) {
	if m.paymentsInitiated != nil {
		m.paymentsInitiated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.provider", string(provider))))
	}
}

var _ ports.Service = (*Service)(nil)
