// Package http exposes the order REST surface.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/application"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
	paymentports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	sharederrors "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/shared/errors"
)

// Handler serves the order routes.
type Handler struct {
	orders    ports.Service
	ledger    paymentports.TransactionLedger
	responder *sharederrors.ChainedResponder
}

func NewHandler(orders ports.Service, ledger paymentports.TransactionLedger) *Handler {
	return &Handler{
		orders:    orders,
		ledger:    ledger,
		responder: sharederrors.NewChainedResponder("", mapOrderError),
	}
}

// Register mounts the order routes on the given group.
func (h *Handler) Register(group *gin.RouterGroup) {
	orders := group.Group("/orders")
	orders.POST("", h.placeOrder)
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.GET("/:id/ledger", h.listLedger)
	orders.POST("/:id/fulfillment", h.advanceFulfillment)
	orders.POST("/:id/payments/mpesa", h.initiateMpesa)
	orders.POST("/:id/payments/card", h.initiateCard)
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	order, err := h.orders.PlaceOrder(c.Request.Context(), ports.PlaceOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         req.Items,
		Total:         req.Total,
	})
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listLedger(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	// Existence check first so an unknown order reads as 404, not an empty trail.
	if _, err := h.orders.GetOrder(c.Request.Context(), id); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	entries, err := h.ledger.ListByOrder(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLedgerResponse(entries))
}

func (h *Handler) advanceFulfillment(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	var req advanceFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	order, err := h.orders.AdvanceFulfillment(c.Request.Context(), id, domain.Status(req.Status), req.Note)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *Handler) initiateMpesa(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	var req initiateMpesaRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.responder.BadRequest(c, err.Error())
			return
		}
	}
	result, err := h.orders.InitiateMpesaPayment(c.Request.Context(), id, req.Phone)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, mpesaPushResponse{
		CheckoutRequestID: result.CheckoutRequestID,
		CustomerMessage:   result.CustomerMessage,
	})
}

func (h *Handler) initiateCard(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	result, err := h.orders.InitiateCardPayment(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cardSessionResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
	})
}

func (h *Handler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.BadRequest(c, "order id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func mapOrderError(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, application.ErrInvalidInput):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrConflict):
		return sharederrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrRailUnavailable):
		return sharederrors.ErrUnprocessable.WithDetail(err.Error()), true
	default:
		return sharederrors.ProblemDetail{}, false
	}
}
