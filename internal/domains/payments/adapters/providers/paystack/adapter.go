// Package paystack normalizes Paystack webhook deliveries.
package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "X-Paystack-Signature"

var _ ports.ProviderAdapter = (*Adapter)(nil)

// Adapter verifies the webhook signature against the shared secret before
// anything is parsed, then normalizes charge.success events. Every other
// event type is acknowledged as a no-op.
type Adapter struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Adapter {
	return &Adapter{secret: []byte(secret), now: time.Now}
}

func (a *Adapter) Provider() ordersdomain.Provider { return ordersdomain.ProviderPaystack }

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		// Amount arrives in minor units (cents).
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Metadata struct {
			OrderRef string `json:"order_ref"`
		} `json:"metadata"`
	} `json:"data"`
}

// Normalize checks the signature, then maps charge.success to a PaymentEvent.
// The event id is the gateway's global numeric event identifier; the
// correlation key is the merchant order reference we planted in the charge
// metadata at checkout-initiation time.
func (a *Adapter) Normalize(body []byte, header http.Header) (*domain.PaymentEvent, error) {
	if err := a.verifySignature(body, header); err != nil {
		return nil, err
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if event.Event != "charge.success" {
		// No-op sentinel: acknowledged upstream, never reconciled.
		return nil, nil
	}
	if event.Data.ID == 0 {
		return nil, fmt.Errorf("%w: missing event id", domain.ErrMalformedPayload)
	}
	orderRef := strings.TrimSpace(event.Data.Metadata.OrderRef)
	if orderRef == "" {
		return nil, fmt.Errorf("%w: missing order_ref metadata", domain.ErrMalformedPayload)
	}

	return &domain.PaymentEvent{
		Provider:        ordersdomain.ProviderPaystack,
		ProviderEventID: strconv.FormatInt(event.Data.ID, 10),
		CorrelationKey:  orderRef,
		Outcome:         domain.OutcomeSuccess,
		Amount:          event.Data.Amount / 100,
		Receipt:         event.Data.Reference,
		ReceivedAt:      a.now().UTC(),
	}, nil
}

func (a *Adapter) verifySignature(body []byte, header http.Header) error {
	supplied := strings.TrimSpace(header.Get(SignatureHeader))
	if supplied == "" {
		return domain.ErrInvalidSignature
	}
	suppliedMAC, err := hex.DecodeString(supplied)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, a.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), suppliedMAC) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the hex signature for a payload; exported for tests and for
// local webhook replay tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
