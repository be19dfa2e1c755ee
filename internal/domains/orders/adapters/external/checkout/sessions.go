package checkout

import (
	"context"
	"errors"

	checkoutclient "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/clients/http/checkout"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

// Sessions implements the card checkout port on the hosted checkout client.
type Sessions struct {
	client *checkoutclient.Client
}

// NewSessions wires the checkout HTTP client into a session adapter.
func NewSessions(client *checkoutclient.Client) *Sessions {
	return &Sessions{client: client}
}

// CreateSession opens a hosted checkout session for the order.
func (s *Sessions) CreateSession(ctx context.Context, reference string, amount int64) (*ports.CardSessionResult, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("card checkout adapter not configured")
	}
	session, err := s.client.CreateSession(ctx, reference, amount)
	if err != nil {
		return nil, err
	}
	return &ports.CardSessionResult{
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
	}, nil
}

var _ ports.CardCheckout = (*Sessions)(nil)
