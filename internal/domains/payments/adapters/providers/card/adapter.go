// Package card normalizes hosted card-checkout redirect confirmations.
package card

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

var _ ports.ProviderAdapter = (*Adapter)(nil)

// Adapter handles the synchronous client redirect after a hosted checkout.
// Known trust gap: in mock mode there is no live verification against the
// provider, so a confirmation is taken at face value as a success. Closing
// the gap needs a server-side session-retrieval call against the provider.
type Adapter struct {
	now func() time.Time
}

func New() *Adapter {
	return &Adapter{now: time.Now}
}

func (a *Adapter) Provider() ordersdomain.Provider { return ordersdomain.ProviderCard }

type confirmation struct {
	SessionID string `json:"session_id"`
	Reference string `json:"reference"`
}

// Normalize maps the redirect confirmation to a success event. The session id
// handed out at session-creation time is both the event id and the
// correlation key.
func (a *Adapter) Normalize(body []byte, _ http.Header) (*domain.PaymentEvent, error) {
	var payload confirmation
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", domain.ErrMalformedPayload)
	}
	receipt := strings.TrimSpace(payload.Reference)
	if receipt == "" {
		receipt = sessionID
	}
	return &domain.PaymentEvent{
		Provider:        ordersdomain.ProviderCard,
		ProviderEventID: sessionID,
		CorrelationKey:  sessionID,
		Outcome:         domain.OutcomeSuccess,
		Receipt:         receipt,
		ReceivedAt:      a.now().UTC(),
	}, nil
}
