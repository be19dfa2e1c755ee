package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

// Outcome is the provider's verdict on a payment attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

var (
	// ErrMalformedPayload rejects a provider callback before any state access.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrInvalidSignature rejects a webhook whose HMAC does not match.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// PaymentEvent is the normalized form of one provider notification. It is
// ephemeral: constructed per inbound call and never persisted directly; its
// effect lands on the order and the transaction ledger.
type PaymentEvent struct {
	Provider        ordersdomain.Provider
	ProviderEventID string
	CorrelationKey  string
	Outcome         Outcome
	// Amount in whole shillings; zero means the provider omitted it
	// (failures usually carry no amount).
	Amount        int64
	Receipt       string
	FailureReason string
	ReceivedAt    time.Time
}

// Validate enforces the minimum shape every adapter must produce.
func (e PaymentEvent) Validate() error {
	if !ordersdomain.KnownProvider(e.Provider) {
		return ErrMalformedPayload
	}
	if strings.TrimSpace(e.ProviderEventID) == "" || strings.TrimSpace(e.CorrelationKey) == "" {
		return ErrMalformedPayload
	}
	if e.Outcome != OutcomeSuccess && e.Outcome != OutcomeFailure {
		return ErrMalformedPayload
	}
	return nil
}

// NotificationKind tags the outbound customer notification intent.
type NotificationKind string

const (
	NotificationPaymentConfirmed NotificationKind = "payment_confirmed"
	NotificationPaymentFailed    NotificationKind = "payment_failed"
)

// NotificationIntent is a deferred side-effect descriptor emitted by the
// transition and executed by a dispatcher outside the atomic unit of work.
type NotificationIntent struct {
	OrderID   uuid.UUID        `json:"orderId"`
	Reference string           `json:"reference"`
	Kind      NotificationKind `json:"kind"`
	Phone     string           `json:"phone,omitempty"`
	Message   string           `json:"message"`
}

// LedgerEntry is an immutable audit record for an accepted payment. Entries
// are append-only and written only when funds actually moved.
type LedgerEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Amount     int64
	Receipt    string
	Provider   ordersdomain.Provider
	Outcome    Outcome
	RecordedBy string
	RecordedAt time.Time
}
