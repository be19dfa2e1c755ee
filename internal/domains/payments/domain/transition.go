package domain

import (
	"fmt"

	"github.com/google/uuid"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

// TransitionResult describes the full effect of applying one payment event.
type TransitionResult struct {
	// Order is the post-transition aggregate; when Applied is false it is
	// the input order untouched.
	Order *ordersdomain.Order
	// Ledger is non-nil only for a newly accepted successful payment.
	Ledger *LedgerEntry
	// Notification is non-nil when the transition warrants telling the
	// customer; dispatch happens outside the atomic unit.
	Notification *NotificationIntent
	// Applied reports whether the order moved out of unpaid.
	Applied bool
}

// Transition is the authoritative payment state function. It is pure: the
// input order is never mutated, callers persist the returned copy. An order
// whose payment is already resolved absorbs any further event as a no-op,
// which also makes failed terminal without an explicit reset.
func Transition(order *ordersdomain.Order, event PaymentEvent) (TransitionResult, error) {
	if err := event.Validate(); err != nil {
		return TransitionResult{}, err
	}
	if order.PaymentStatus != ordersdomain.PaymentUnpaid {
		return TransitionResult{Order: order}, nil
	}

	next := order.Clone()
	switch event.Outcome {
	case OutcomeSuccess:
		msg := fmt.Sprintf("payment confirmed via %s, receipt %s", event.Provider, event.Receipt)
		if mismatch := amountMismatch(order, event); mismatch != "" {
			msg += mismatch
		}
		if err := next.ResolvePayment(ordersdomain.PaymentPaid, msg, event.ReceivedAt); err != nil {
			return TransitionResult{}, err
		}
		return TransitionResult{
			Order: next,
			Ledger: &LedgerEntry{
				ID:         uuid.New(),
				OrderID:    order.ID,
				Amount:     settledAmount(order, event),
				Receipt:    event.Receipt,
				Provider:   event.Provider,
				Outcome:    OutcomeSuccess,
				RecordedBy: recordedBy(event.Provider),
				RecordedAt: event.ReceivedAt,
			},
			Notification: &NotificationIntent{
				OrderID:   order.ID,
				Reference: order.Reference,
				Kind:      NotificationPaymentConfirmed,
				Phone:     order.CustomerPhone,
				Message:   fmt.Sprintf("Payment of KES %d for order %s received. Asante!", settledAmount(order, event), order.Reference),
			},
			Applied: true,
		}, nil

	case OutcomeFailure:
		reason := event.FailureReason
		if reason == "" {
			reason = "payment failed"
		}
		msg := fmt.Sprintf("payment failed via %s: %s", event.Provider, reason)
		if err := next.ResolvePayment(ordersdomain.PaymentFailed, msg, event.ReceivedAt); err != nil {
			return TransitionResult{}, err
		}
		// No ledger entry: no funds moved.
		return TransitionResult{
			Order: next,
			Notification: &NotificationIntent{
				OrderID:   order.ID,
				Reference: order.Reference,
				Kind:      NotificationPaymentFailed,
				Phone:     order.CustomerPhone,
				Message:   fmt.Sprintf("Payment for order %s did not go through: %s", order.Reference, reason),
			},
			Applied: true,
		}, nil

	default:
		return TransitionResult{}, ErrMalformedPayload
	}
}

// amountMismatch flags a settlement that differs from the order total. The
// provider is authoritative on settlement, so the outcome is still honored;
// the discrepancy goes on the history entry for manual audit.
func amountMismatch(order *ordersdomain.Order, event PaymentEvent) string {
	if event.Amount == 0 || event.Amount == order.Total {
		return ""
	}
	return fmt.Sprintf(" (amount mismatch: settled KES %d against order total KES %d)", event.Amount, order.Total)
}

func settledAmount(order *ordersdomain.Order, event PaymentEvent) int64 {
	if event.Amount > 0 {
		return event.Amount
	}
	return order.Total
}

func recordedBy(provider ordersdomain.Provider) string {
	switch provider {
	case ordersdomain.ProviderMpesa:
		return "mpesa-callback"
	case ordersdomain.ProviderCard:
		return "card-redirect"
	case ordersdomain.ProviderPaystack:
		return "paystack-webhook"
	default:
		return string(provider)
	}
}
