// Package http exposes the provider callback endpoints. Each registered
// provider adapter gets a POST route that normalizes the raw payload and
// hands the event to the reconciler.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	paymentports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	sharederrors "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/shared/errors"
)

// maxCallbackBody bounds webhook payload reads. Provider callbacks are small
// JSON documents; anything larger is hostile.
const maxCallbackBody = 1 << 20

// Handler serves the payment callback routes.
type Handler struct {
	reconciler paymentports.Reconciler
	adapters   map[ordersdomain.Provider]paymentports.ProviderAdapter
	responder  *sharederrors.Responder
	logger     *slog.Logger
}

func NewHandler(reconciler paymentports.Reconciler, adapters []paymentports.ProviderAdapter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	byProvider := make(map[ordersdomain.Provider]paymentports.ProviderAdapter, len(adapters))
	for _, adapter := range adapters {
		byProvider[adapter.Provider()] = adapter
	}
	return &Handler{
		reconciler: reconciler,
		adapters:   byProvider,
		responder:  sharederrors.DefaultResponder,
		logger:     logger,
	}
}

// Register mounts one callback route per configured provider.
func (h *Handler) Register(group *gin.RouterGroup) {
	callbacks := group.Group("/payments/callbacks")
	for provider := range h.adapters {
		callbacks.POST("/"+string(provider), h.callback(provider))
	}
}

type callbackResponse struct {
	Outcome   string `json:"outcome"`
	Reference string `json:"reference,omitempty"`
}

// darajaAck is the acknowledgement shape the mobile money gateway expects.
// Any other body makes the gateway treat delivery as failed and retry.
type darajaAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

func (h *Handler) callback(provider ordersdomain.Provider) gin.HandlerFunc {
	adapter := h.adapters[provider]
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			callbacksRejected.WithLabelValues(string(provider), "read_failed").Inc()
			h.responder.BadRequest(c, "unable to read request body")
			return
		}

		event, err := adapter.Normalize(body, c.Request.Header)
		if err != nil {
			h.respondNormalizeError(c, provider, err)
			return
		}
		if event == nil {
			// Unhandled event kind. Acknowledge so the provider stops
			// redelivering it.
			callbacksIgnored.WithLabelValues(string(provider)).Inc()
			h.ack(c, provider, callbackResponse{Outcome: "ignored"})
			return
		}

		result, err := h.reconciler.Reconcile(c.Request.Context(), *event)
		if err != nil {
			callbacksRejected.WithLabelValues(string(provider), "reconcile_failed").Inc()
			h.logger.Error("payment reconciliation failed",
				slog.String("provider", string(provider)),
				slog.String("event_id", event.ProviderEventID),
				slog.String("error", err.Error()),
			)
			// Non-2xx tells the provider to redeliver; idempotency absorbs
			// the replay once the fault clears.
			h.responder.InternalError(c, "payment event could not be processed")
			return
		}

		callbacksProcessed.WithLabelValues(string(provider), string(result.Outcome)).Inc()
		response := callbackResponse{Outcome: string(result.Outcome)}
		if result.Order != nil {
			response.Reference = result.Order.Reference
		}
		h.ack(c, provider, response)
	}
}

func (h *Handler) respondNormalizeError(c *gin.Context, provider ordersdomain.Provider, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		callbacksRejected.WithLabelValues(string(provider), "invalid_signature").Inc()
		h.logger.Warn("payment callback signature rejected", slog.String("provider", string(provider)))
		h.responder.Respond(c, sharederrors.ErrUnauthorized.WithDetail("signature verification failed"))
	case errors.Is(err, domain.ErrMalformedPayload):
		callbacksRejected.WithLabelValues(string(provider), "malformed").Inc()
		h.logger.Warn("payment callback payload rejected",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		h.responder.BadRequest(c, "payload could not be interpreted")
	default:
		callbacksRejected.WithLabelValues(string(provider), "normalize_failed").Inc()
		h.responder.InternalError(c, "payment event could not be processed")
	}
}

// ack writes the provider-specific success body. The mobile money gateway
// insists on its own envelope; everyone else gets the generic outcome.
func (h *Handler) ack(c *gin.Context, provider ordersdomain.Provider, response callbackResponse) {
	if provider == ordersdomain.ProviderMpesa {
		c.JSON(http.StatusOK, darajaAck{ResultCode: 0, ResultDesc: "Accepted"})
		return
	}
	c.JSON(http.StatusOK, response)
}
