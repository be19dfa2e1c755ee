package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	paymentports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

const tracerName = "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/adapters/observability/service"

// Reconciler decorates the core reconciler with tracing, logging, and metrics.
type Reconciler struct {
	inner   paymentports.Reconciler
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics reconcilerMetrics
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(r *Reconciler) {
		r.metrics = newReconcilerMetrics(m)
	}
}

// New wraps the core reconciler.
func New(inner paymentports.Reconciler, opts ...Option) paymentports.Reconciler {
	r := &Reconciler{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newReconcilerMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.tracer == nil {
		r.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return r
}

func (r *Reconciler) Reconcile(ctx context.Context, event domain.PaymentEvent) (paymentports.ReconcileResult, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentReconciler.Reconcile",
		trace.WithAttributes(
			attribute.String("payment.provider", string(event.Provider)),
			attribute.String("payment.event_id", event.ProviderEventID),
			attribute.String("payment.outcome", string(event.Outcome)),
		))
	defer span.End()

	r.logInfo(ctx, "reconciling payment event",
		slog.String("provider", string(event.Provider)),
		slog.String("event_id", event.ProviderEventID),
		slog.String("correlation_key", event.CorrelationKey),
	)
	result, err := r.inner.Reconcile(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logError(ctx, "payment reconciliation failed", err,
			slog.String("provider", string(event.Provider)),
			slog.String("event_id", event.ProviderEventID),
		)
		return result, err
	}

	span.SetAttributes(attribute.String("payment.reconcile_outcome", string(result.Outcome)))
	r.metrics.recordReconciled(ctx, event.Provider, result.Outcome)
	if result.Outcome == paymentports.OutcomeUnmatched {
		// Surfaced at warn level so the event reaches the manual review queue
		// even without a metrics pipeline.
		r.logWarn(ctx, "payment event matched no order",
			slog.String("provider", string(event.Provider)),
			slog.String("event_id", event.ProviderEventID),
			slog.String("correlation_key", event.CorrelationKey),
		)
		return result, nil
	}
	attrs := []slog.Attr{
		slog.String("provider", string(event.Provider)),
		slog.String("event_id", event.ProviderEventID),
		slog.String("outcome", string(result.Outcome)),
	}
	if result.Order != nil {
		attrs = append(attrs, slog.String("order.reference", result.Order.Reference))
	}
	r.logInfo(ctx, "payment event reconciled", attrs...)
	return result, nil
}

func (r *Reconciler) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger == nil {
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (r *Reconciler) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger == nil {
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (r *Reconciler) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if r.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type reconcilerMetrics struct {
	eventsReconciled metric.Int64Counter
}

func newReconcilerMetrics(m metric.Meter) reconcilerMetrics {
	if m == nil {
		return reconcilerMetrics{}
	}
	eventsReconciled, _ := m.Int64Counter("payments.reconciler.events_reconciled",
		metric.WithDescription("Number of payment events reconciled"))
	return reconcilerMetrics{eventsReconciled: eventsReconciled}
}

func (m reconcilerMetrics) recordReconciled(ctx context.Context, provider ordersdomain.Provider, outcome paymentports.ReconcileOutcome) {
	if m.eventsReconciled != nil {
		m.eventsReconciled.Add(ctx, 1, metric.WithAttributes(
			attribute.String("payment.provider", string(provider)),
			attribute.String("payment.outcome", string(outcome)),
		))
	}
}

var _ paymentports.Reconciler = (*Reconciler)(nil)
