package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	ordersports "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*ordersdomain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*ordersdomain.Order{}}
}

func (f *fakeOrderRepo) Save(_ context.Context, order *ordersdomain.Order) (*ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order.Clone()
	return order.Clone(), nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		return o.Clone(), nil
	}
	return nil, ordersports.ErrNotFound
}

func (f *fakeOrderRepo) FindByCorrelationKey(_ context.Context, provider ordersdomain.Provider, key string) (*ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		stored, err := o.CorrelationKey(provider)
		if err == nil && stored != "" && stored == key {
			return o.Clone(), nil
		}
	}
	return nil, ordersports.ErrNotFound
}

func (f *fakeOrderRepo) ResolvePayment(_ context.Context, order *ordersdomain.Order, expected ordersdomain.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return ordersports.ErrNotFound
	}
	if stored.PaymentStatus != expected {
		return ordersports.ErrConcurrencyConflict
	}
	f.orders[order.ID] = order.Clone()
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context) ([]*ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*ordersdomain.Order
	for _, o := range f.orders {
		list = append(list, o.Clone())
	}
	return list, nil
}

type fakeIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{seen: map[string]bool{}}
}

func (f *fakeIdempotency) MarkProcessed(_ context.Context, provider ordersdomain.Provider, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := string(provider) + "/" + eventID
	if f.seen[key] {
		return ports.ErrAlreadyProcessed
	}
	f.seen[key] = true
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []*domain.LedgerEntry
	fail    error
}

func (f *fakeLedger) Append(_ context.Context, entry *domain.LedgerEntry) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedger) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.LedgerEntry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureDispatcher struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent
}

func (c *captureDispatcher) Dispatch(_ context.Context, intent domain.NotificationIntent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, intent)
	return nil
}

type fixture struct {
	repo        *fakeOrderRepo
	idempotency *fakeIdempotency
	ledger      *fakeLedger
	dispatcher  *captureDispatcher
	svc         *Service
	order       *ordersdomain.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeOrderRepo()
	idem := newFakeIdempotency()
	ledger := &fakeLedger{}
	dispatcher := &captureDispatcher{}
	svc := NewService(repo, idem, ledger, inlineTx{}, dispatcher)

	order, err := ordersdomain.NewOrder("Achieng Otieno", "254700111222", []string{"Maize seed 10kg"}, 5000)
	require.NoError(t, err)
	require.NoError(t, order.SetCorrelationKey(ordersdomain.ProviderMpesa, "ws_CO_1"))
	_, err = repo.Save(context.Background(), order)
	require.NoError(t, err)

	return &fixture{repo: repo, idempotency: idem, ledger: ledger, dispatcher: dispatcher, svc: svc, order: order}
}

func mpesaSuccess(id string, amount int64) domain.PaymentEvent {
	return domain.PaymentEvent{
		Provider:        ordersdomain.ProviderMpesa,
		ProviderEventID: id,
		CorrelationKey:  "ws_CO_1",
		Outcome:         domain.OutcomeSuccess,
		Amount:          amount,
		Receipt:         "ABC123",
		ReceivedAt:      time.Now().UTC(),
	}
}

func TestReconcile_SuccessPaysOrderOnce(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_1", 5000))
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeApplied, result.Outcome)
	require.Equal(t, ordersdomain.PaymentPaid, result.Order.PaymentStatus)

	stored, err := fx.repo.GetByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentPaid, stored.PaymentStatus)

	entries, err := fx.ledger.ListByOrder(context.Background(), fx.order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ABC123", entries[0].Receipt)

	require.Len(t, fx.dispatcher.intents, 1)
	require.Equal(t, domain.NotificationPaymentConfirmed, fx.dispatcher.intents[0].Kind)
}

func TestReconcile_DuplicateEventIsSuppressed(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_1", 5000))
	require.NoError(t, err)

	result, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_1", 5000))
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeDuplicate, result.Outcome)

	entries, err := fx.ledger.ListByOrder(context.Background(), fx.order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, fx.dispatcher.intents, 1)
}

func TestReconcile_SecondDistinctEventNoOpsAfterSettlement(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_1", 5000))
	require.NoError(t, err)

	result, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_other", 5000))
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeAlreadySettled, result.Outcome)
	require.Equal(t, ordersdomain.PaymentPaid, result.Order.PaymentStatus)

	entries, err := fx.ledger.ListByOrder(context.Background(), fx.order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReconcile_UnmatchedCorrelationKeyIsAcknowledged(t *testing.T) {
	fx := newFixture(t)

	event := mpesaSuccess("ws_CO_1", 5000)
	event.CorrelationKey = "ws_CO_unknown"
	result, err := fx.svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeUnmatched, result.Outcome)
	require.Nil(t, result.Order)

	stored, err := fx.repo.GetByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentUnpaid, stored.PaymentStatus)
	require.Empty(t, fx.ledger.entries)
}

func TestReconcile_LosingRacerConvergesToNoOp(t *testing.T) {
	fx := newFixture(t)

	// Resolve the order behind the service's back, as a racing handler would.
	stored, err := fx.repo.GetByID(context.Background(), fx.order.ID)
	require.NoError(t, err)
	winner := stored.Clone()
	require.NoError(t, winner.ResolvePayment(ordersdomain.PaymentPaid, "raced", time.Now().UTC()))
	require.NoError(t, fx.repo.ResolvePayment(context.Background(), winner, ordersdomain.PaymentUnpaid))

	result, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_loser", 5000))
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeAlreadySettled, result.Outcome)
	require.Empty(t, fx.ledger.entries)
	require.Empty(t, fx.dispatcher.intents)
}

func TestReconcile_LedgerFailureSurfacesAsRetryable(t *testing.T) {
	fx := newFixture(t)
	fx.ledger.fail = errors.New("disk on fire")

	_, err := fx.svc.Reconcile(context.Background(), mpesaSuccess("ws_CO_1", 5000))
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestReconcile_FailureEventWritesNoLedgerEntry(t *testing.T) {
	fx := newFixture(t)

	event := mpesaSuccess("ws_CO_1", 0)
	event.Outcome = domain.OutcomeFailure
	event.Receipt = ""
	event.FailureReason = "insufficient balance"

	result, err := fx.svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, ports.OutcomeApplied, result.Outcome)
	require.Equal(t, ordersdomain.PaymentFailed, result.Order.PaymentStatus)
	require.Empty(t, fx.ledger.entries)
	require.Len(t, fx.dispatcher.intents, 1)
	require.Equal(t, domain.NotificationPaymentFailed, fx.dispatcher.intents[0].Kind)
}

func TestReconcile_RejectsMalformedEvent(t *testing.T) {
	fx := newFixture(t)

	event := mpesaSuccess("", 5000)
	_, err := fx.svc.Reconcile(context.Background(), event)
	require.ErrorIs(t, err, domain.ErrMalformedPayload)
}
