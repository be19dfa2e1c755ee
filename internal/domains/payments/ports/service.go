package ports

import (
	"context"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

// ReconcileOutcome classifies what one normalized event did to the system.
type ReconcileOutcome string

const (
	// OutcomeApplied: the event moved the order out of unpaid.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeDuplicate: the (provider, event id) pair was seen before.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	// OutcomeAlreadySettled: a different event resolved the order first.
	OutcomeAlreadySettled ReconcileOutcome = "already_settled"
	// OutcomeUnmatched: no order carries the event's correlation key; the
	// caller acknowledges anyway and the event is flagged for manual review.
	OutcomeUnmatched ReconcileOutcome = "unmatched"
)

// ReconcileResult reports the effect of one reconciliation attempt.
type ReconcileResult struct {
	Outcome      ReconcileOutcome
	Order        *ordersdomain.Order
	Notification *domain.NotificationIntent
}

// Reconciler advances order payment state from normalized provider events.
type Reconciler interface {
	Reconcile(ctx context.Context, event domain.PaymentEvent) (ReconcileResult, error)
}
