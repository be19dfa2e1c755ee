package application

import (
	"context"
	"errors"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	ordersports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

// Service is the reconciliation core: it takes one normalized provider event
// and deterministically advances the matching order's payment state, with
// at-most-once application per (provider, event id) and at-most-one
// unpaid->resolved transition per order.
type Service struct {
	orders      ordersports.Repository
	idempotency ports.IdempotencyLedger
	ledger      ports.TransactionLedger
	tx          ports.TxManager
	dispatcher  ports.Dispatcher
}

// NewService wires the reconciliation collaborators.
func NewService(
	orders ordersports.Repository,
	idempotency ports.IdempotencyLedger,
	ledger ports.TransactionLedger,
	tx ports.TxManager,
	dispatcher ports.Dispatcher,
) *Service {
	return &Service{
		orders:      orders,
		idempotency: idempotency,
		ledger:      ledger,
		tx:          tx,
		dispatcher:  dispatcher,
	}
}

// Reconcile runs the idempotency mark, order lookup, transition, order write,
// and ledger append as one atomic unit. The notification intent is dispatched
// only after the unit commits and its outcome never affects the transition.
func (s *Service) Reconcile(ctx context.Context, event domain.PaymentEvent) (ports.ReconcileResult, error) {
	if err := event.Validate(); err != nil {
		return ports.ReconcileResult{}, err
	}

	var result ports.ReconcileResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.idempotency.MarkProcessed(ctx, event.Provider, event.ProviderEventID); err != nil {
			if errors.Is(err, ports.ErrAlreadyProcessed) {
				result = ports.ReconcileResult{Outcome: ports.OutcomeDuplicate}
				return nil
			}
			return err
		}
		return s.apply(ctx, event, &result)
	})
	if err != nil {
		return ports.ReconcileResult{}, err
	}

	if result.Notification != nil {
		// Fire-and-forget: a dispatch failure is the dispatcher's problem.
		_ = s.dispatcher.Dispatch(context.WithoutCancel(ctx), *result.Notification)
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, event domain.PaymentEvent, result *ports.ReconcileResult) error {
	order, err := s.orders.FindByCorrelationKey(ctx, event.Provider, event.CorrelationKey)
	if err != nil {
		if errors.Is(err, ordersports.ErrNotFound) {
			result.Outcome = ports.OutcomeUnmatched
			return nil
		}
		return err
	}

	// Two passes at most: a handler that loses the compare-and-set race
	// re-reads and re-evaluates, which converges to a no-op because the
	// order is no longer unpaid.
	for attempt := 0; attempt < 2; attempt++ {
		transition, err := domain.Transition(order, event)
		if err != nil {
			return err
		}
		if !transition.Applied {
			result.Outcome = ports.OutcomeAlreadySettled
			result.Order = order
			return nil
		}
		err = s.orders.ResolvePayment(ctx, transition.Order, ordersdomain.PaymentUnpaid)
		if errors.Is(err, ordersports.ErrConcurrencyConflict) {
			order, err = s.orders.GetByID(ctx, order.ID)
			if err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if transition.Ledger != nil {
			if err := s.ledger.Append(ctx, transition.Ledger); err != nil {
				return err
			}
		}
		result.Outcome = ports.OutcomeApplied
		result.Order = transition.Order
		result.Notification = transition.Notification
		return nil
	}
	return ordersports.ErrConcurrencyConflict
}

var _ ports.Reconciler = (*Service)(nil)
