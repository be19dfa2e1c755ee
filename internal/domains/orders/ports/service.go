package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

// PlaceOrderInput carries the checkout payload.
type PlaceOrderInput struct {
	CustomerName  string
	CustomerPhone string
	Items         []string
	Total         int64
}

// MpesaPushResult reports an accepted STK push request.
type MpesaPushResult struct {
	CheckoutRequestID string
	CustomerMessage   string
}

// CardSessionResult reports a created hosted-checkout session.
type CardSessionResult struct {
	SessionID   string
	RedirectURL string
}

// Service exposes order use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// InitiateMpesaPayment requests an STK push for the order total and
	// stores the returned checkout request id as the mpesa correlation key
	// before the provider can call back.
	InitiateMpesaPayment(ctx context.Context, id uuid.UUID, phone string) (*MpesaPushResult, error)
	// InitiateCardPayment creates a hosted-checkout session and stores its
	// id as the card correlation key.
	InitiateCardPayment(ctx context.Context, id uuid.UUID) (*CardSessionResult, error)
	AdvanceFulfillment(ctx context.Context, id uuid.UUID, to domain.Status, note string) (*domain.Order, error)
}
