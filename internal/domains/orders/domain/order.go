package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks settlement of an order's total.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// Status enumerates the fulfillment lifecycle.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Provider identifies a payment rail. Correlation keys are namespaced per provider.
type Provider string

const (
	ProviderMpesa    Provider = "mpesa"
	ProviderCard     Provider = "card"
	ProviderPaystack Provider = "paystack"
)

var (
	ErrEmptyCustomer      = errors.New("customer name is required")
	ErrEmptyItems         = errors.New("order requires at least one item")
	ErrInvalidTotal       = errors.New("order total must be greater than zero")
	ErrInvalidStatus      = errors.New("order status is invalid")
	ErrStatusRegression   = errors.New("order status cannot move backwards")
	ErrCancelAfterShip    = errors.New("order can only be cancelled while processing")
	ErrPaymentResolved    = errors.New("order payment is already resolved")
	ErrInvalidPayment     = errors.New("payment can only resolve to paid or failed")
	ErrUnknownProvider    = errors.New("unknown payment provider")
	ErrEmptyCorrelation   = errors.New("correlation key is empty")
)

// HistoryEntry is an append-only audit line on the order timeline.
type HistoryEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the unit of fulfillment. Created unpaid/processing at checkout,
// its payment fields are mutated exclusively by the reconciliation transition
// and its fulfillment status by explicit staff actions. Orders are never
// deleted, only superseded by new history entries.
type Order struct {
	ID            uuid.UUID
	Reference     string
	CustomerName  string
	CustomerPhone string
	Items         []string
	Total         int64
	Currency      string
	PaymentStatus PaymentStatus
	Status        Status

	// Correlation keys, one per provider, populated at payment-initiation
	// time so inbound confirmations can be matched back to this order.
	MpesaCheckoutID string
	CardSessionID   string
	PaystackRef     string

	History   []HistoryEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder validates and constructs an order in the unpaid/processing start state.
// The generated reference doubles as the Paystack correlation key: it is handed
// to the hosted checkout metadata when the client initialises a card charge.
func NewOrder(customerName, customerPhone string, items []string, total int64) (*Order, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, ErrEmptyCustomer
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if total <= 0 {
		return nil, ErrInvalidTotal
	}
	id := uuid.New()
	now := time.Now().UTC()
	order := &Order{
		ID:            id,
		Reference:     buildReference(id),
		CustomerName:  strings.TrimSpace(customerName),
		CustomerPhone: strings.TrimSpace(customerPhone),
		Items:         append([]string{}, items...),
		Total:         total,
		Currency:      "KES",
		PaymentStatus: PaymentUnpaid,
		Status:        StatusProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.PaystackRef = order.Reference
	order.appendHistory(string(StatusProcessing), "order placed, awaiting payment", now)
	return order, nil
}

// ResolvePayment moves the payment status out of unpaid. Only unpaid->paid and
// unpaid->failed are legal; a refund is a distinct later event outside this model.
func (o *Order) ResolvePayment(to PaymentStatus, message string, at time.Time) error {
	if o.PaymentStatus != PaymentUnpaid {
		return ErrPaymentResolved
	}
	if to != PaymentPaid && to != PaymentFailed {
		return ErrInvalidPayment
	}
	o.PaymentStatus = to
	o.appendHistory(string(to), message, at)
	o.UpdatedAt = at
	return nil
}

// AdvanceStatus moves the fulfillment lifecycle forward. Cancelled is terminal
// and reachable from processing only.
func (o *Order) AdvanceStatus(to Status, note string, at time.Time) error {
	if !isValidStatus(to) {
		return ErrInvalidStatus
	}
	if to == StatusCancelled {
		if o.Status != StatusProcessing {
			return ErrCancelAfterShip
		}
	} else if statusRank(to) <= statusRank(o.Status) || o.Status == StatusCancelled {
		return ErrStatusRegression
	}
	o.Status = to
	msg := note
	if msg == "" {
		msg = fmt.Sprintf("order %s", to)
	}
	o.appendHistory(string(to), msg, at)
	o.UpdatedAt = at
	return nil
}

// CorrelationKey returns the stored key for the given provider, empty when the
// corresponding payment rail was never initiated for this order.
func (o *Order) CorrelationKey(p Provider) (string, error) {
	switch p {
	case ProviderMpesa:
		return o.MpesaCheckoutID, nil
	case ProviderCard:
		return o.CardSessionID, nil
	case ProviderPaystack:
		return o.PaystackRef, nil
	default:
		return "", ErrUnknownProvider
	}
}

// SetCorrelationKey records the provider-native identifier handed out at
// payment-initiation time, before the provider can call back.
func (o *Order) SetCorrelationKey(p Provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyCorrelation
	}
	switch p {
	case ProviderMpesa:
		o.MpesaCheckoutID = key
	case ProviderCard:
		o.CardSessionID = key
	case ProviderPaystack:
		o.PaystackRef = key
	default:
		return ErrUnknownProvider
	}
	return nil
}

// Clone returns a deep copy so transition functions can stay pure.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = append([]string{}, o.Items...)
	clone.History = append([]HistoryEntry{}, o.History...)
	return &clone
}

func (o *Order) appendHistory(status, message string, at time.Time) {
	o.History = append(o.History, HistoryEntry{Status: status, Message: message, Timestamp: at})
}

func buildReference(id uuid.UUID) string {
	compact := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return "MA-" + compact[:10]
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func statusRank(status Status) int {
	switch status {
	case StatusProcessing:
		return 0
	case StatusShipped:
		return 1
	case StatusDelivered:
		return 2
	default:
		return 3
	}
}

// KnownProvider reports whether p names one of the three supported rails.
func KnownProvider(p Provider) bool {
	switch p {
	case ProviderMpesa, ProviderCard, ProviderPaystack:
		return true
	default:
		return false
	}
}
