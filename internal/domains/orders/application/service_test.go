package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

type fakeRepo struct {
	orders map[uuid.UUID]*domain.Order
	saves  int
	fail   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *fakeRepo) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.saves++
	r.orders[order.ID] = order.Clone()
	return order.Clone(), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *fakeRepo) FindByCorrelationKey(_ context.Context, provider domain.Provider, key string) (*domain.Order, error) {
	for _, order := range r.orders {
		stored, _ := order.CorrelationKey(provider)
		if stored != "" && stored == key {
			return order.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *fakeRepo) ResolvePayment(_ context.Context, order *domain.Order, expected domain.PaymentStatus) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if stored.PaymentStatus != expected {
		return ports.ErrConcurrencyConflict
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *fakeRepo) List(_ context.Context) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, order.Clone())
	}
	return out, nil
}

type fakePush struct {
	result *ports.MpesaPushResult
	err    error
	phones []string
}

func (p *fakePush) RequestPush(_ context.Context, phone string, _ int64, _ string) (*ports.MpesaPushResult, error) {
	p.phones = append(p.phones, phone)
	return p.result, p.err
}

type fakeCards struct {
	result *ports.CardSessionResult
	err    error
	calls  int
}

func (c *fakeCards) CreateSession(_ context.Context, _ string, _ int64) (*ports.CardSessionResult, error) {
	c.calls++
	return c.result, c.err
}

func placeOrder(t *testing.T, svc *Service) *domain.Order {
	t.Helper()
	order, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		CustomerName:  "Wanjiku Kamau",
		CustomerPhone: "254712345678",
		Items:         []string{"Maize seed 10kg"},
		Total:         5400,
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrderStartsUnpaidProcessing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	order := placeOrder(t, svc)
	require.Equal(t, domain.PaymentUnpaid, order.PaymentStatus)
	require.Equal(t, domain.StatusProcessing, order.Status)
	require.NotEmpty(t, order.Reference)
	require.Equal(t, order.Reference, order.PaystackRef)
	require.Len(t, order.History, 1)
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{Items: []string{"x"}, Total: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{CustomerName: "Wanjiku", Total: 100})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PlaceOrder(context.Background(), ports.PlaceOrderInput{CustomerName: "Wanjiku", Items: []string{"x"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestInitiateMpesaPaymentStoresCheckoutID(t *testing.T) {
	repo := newFakeRepo()
	push := &fakePush{result: &ports.MpesaPushResult{CheckoutRequestID: "ws_CO_191220191020363925", CustomerMessage: "Success"}}
	svc := NewService(repo, push, nil)
	order := placeOrder(t, svc)

	result, err := svc.InitiateMpesaPayment(context.Background(), order.ID, "")
	require.NoError(t, err)
	require.Equal(t, "ws_CO_191220191020363925", result.CheckoutRequestID)
	// Falls back to the phone captured at checkout.
	require.Equal(t, []string{"254712345678"}, push.phones)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "ws_CO_191220191020363925", stored.MpesaCheckoutID)
}

func TestInitiateMpesaPaymentUsesExplicitPhone(t *testing.T) {
	repo := newFakeRepo()
	push := &fakePush{result: &ports.MpesaPushResult{CheckoutRequestID: "ws_CO_1"}}
	svc := NewService(repo, push, nil)
	order := placeOrder(t, svc)

	_, err := svc.InitiateMpesaPayment(context.Background(), order.ID, "254798765432")
	require.NoError(t, err)
	require.Equal(t, []string{"254798765432"}, push.phones)
}

func TestInitiateMpesaPaymentRefusesResolvedOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePush{result: &ports.MpesaPushResult{CheckoutRequestID: "ws_CO_1"}}, nil)
	order := placeOrder(t, svc)

	stored := repo.orders[order.ID]
	require.NoError(t, stored.ResolvePayment(domain.PaymentPaid, "paid", stored.UpdatedAt))

	_, err := svc.InitiateMpesaPayment(context.Background(), order.ID, "")
	require.ErrorIs(t, err, ErrConflict)
}

func TestInitiateMpesaPaymentPropagatesPushFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePush{err: errors.New("gateway timeout")}, nil)
	order := placeOrder(t, svc)

	_, err := svc.InitiateMpesaPayment(context.Background(), order.ID, "")
	require.Error(t, err)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Empty(t, stored.MpesaCheckoutID)
}

func TestInitiateCardPaymentStoresSessionID(t *testing.T) {
	repo := newFakeRepo()
	cards := &fakeCards{result: &ports.CardSessionResult{SessionID: "cs_mock_abc", RedirectURL: "https://pay.example/cs_mock_abc"}}
	svc := NewService(repo, nil, cards)
	order := placeOrder(t, svc)

	session, err := svc.InitiateCardPayment(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "cs_mock_abc", session.SessionID)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "cs_mock_abc", stored.CardSessionID)
}

func TestInitiateCardPaymentWithoutRail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	order := placeOrder(t, svc)

	_, err := svc.InitiateCardPayment(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrRailUnavailable)
}

func TestAdvanceFulfillment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	order := placeOrder(t, svc)

	advanced, err := svc.AdvanceFulfillment(context.Background(), order.ID, domain.StatusShipped, "left the depot")
	require.NoError(t, err)
	require.Equal(t, domain.StatusShipped, advanced.Status)
	require.Len(t, advanced.History, 2)

	_, err = svc.AdvanceFulfillment(context.Background(), order.ID, domain.StatusProcessing, "")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.AdvanceFulfillment(context.Background(), order.ID, domain.StatusCancelled, "")
	require.ErrorIs(t, err, ErrConflict)
}

func TestGetOrderNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	_, err := svc.GetOrder(context.Background(), uuid.New())
	require.ErrorIs(t, err, ports.ErrNotFound)
}
