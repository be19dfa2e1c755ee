// Package mpesa normalizes Daraja STK push result callbacks.
package mpesa

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

var _ ports.ProviderAdapter = (*Adapter)(nil)

// Adapter parses the nested stkCallback envelope. The checkout request id is
// both the event id and the correlation key: it was stored on the order when
// the push was initiated.
type Adapter struct {
	now func() time.Time
}

func New() *Adapter {
	return &Adapter{now: time.Now}
}

// Provider identifies the mobile-push rail.
func (a *Adapter) Provider() ordersdomain.Provider { return ordersdomain.ProviderMpesa }

type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []metadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// Normalize maps a result callback to a PaymentEvent. ResultCode 0 is a
// successful settlement; any other code is a failure whose ResultDesc is the
// human-readable reason. Amount and receipt live in a heterogeneous Item list
// and are looked up by name, tolerating absence on failure callbacks.
func (a *Adapter) Normalize(body []byte, _ http.Header) (*domain.PaymentEvent, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	callback := envelope.Body.StkCallback
	if strings.TrimSpace(callback.CheckoutRequestID) == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", domain.ErrMalformedPayload)
	}

	event := &domain.PaymentEvent{
		Provider:        ordersdomain.ProviderMpesa,
		ProviderEventID: callback.CheckoutRequestID,
		CorrelationKey:  callback.CheckoutRequestID,
		ReceivedAt:      a.now().UTC(),
	}
	if callback.ResultCode == 0 {
		event.Outcome = domain.OutcomeSuccess
		event.Amount = itemAmount(callback.CallbackMetadata.Item, "Amount")
		event.Receipt = itemString(callback.CallbackMetadata.Item, "MpesaReceiptNumber")
	} else {
		event.Outcome = domain.OutcomeFailure
		event.FailureReason = callback.ResultDesc
	}
	return event, nil
}

func itemAmount(items []metadataItem, name string) int64 {
	for _, item := range items {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case float64:
			return int64(math.Round(v))
		case string:
			var parsed float64
			if _, err := fmt.Sscanf(v, "%f", &parsed); err == nil {
				return int64(math.Round(parsed))
			}
		}
	}
	return 0
}

func itemString(items []metadataItem, name string) string {
	for _, item := range items {
		if item.Name != name {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
