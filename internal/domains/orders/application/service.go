// Package application orchestrates the order use cases.
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

// Service implements the order use cases over the repository and the two
// payment initiation rails.
type Service struct {
	repo  ports.Repository
	push  ports.MobilePush
	cards ports.CardCheckout
}

func NewService(repo ports.Repository, push ports.MobilePush, cards ports.CardCheckout) *Service {
	return &Service{repo: repo, push: push, cards: cards}
}

func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(input.CustomerName, input.CustomerPhone, input.Items, input.Total)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, order)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.List(ctx)
}

// InitiateMpesaPayment requests an STK push and persists the returned
// checkout request id before returning, so the result callback always finds
// its order.
func (s *Service) InitiateMpesaPayment(ctx context.Context, id uuid.UUID, phone string) (*ports.MpesaPushResult, error) {
	if s.push == nil {
		return nil, ErrRailUnavailable
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentUnpaid {
		return nil, mapError(domain.ErrPaymentResolved)
	}
	msisdn := strings.TrimSpace(phone)
	if msisdn == "" {
		msisdn = order.CustomerPhone
	}
	if msisdn == "" {
		return nil, fmt.Errorf("%w: no phone number for push", ErrInvalidInput)
	}

	result, err := s.push.RequestPush(ctx, msisdn, order.Total, order.Reference)
	if err != nil {
		return nil, err
	}
	if err := order.SetCorrelationKey(domain.ProviderMpesa, result.CheckoutRequestID); err != nil {
		return nil, err
	}
	order.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("store checkout request id: %w", err)
	}
	return result, nil
}

// InitiateCardPayment opens a hosted checkout session and persists its id
// before handing the redirect URL back.
func (s *Service) InitiateCardPayment(ctx context.Context, id uuid.UUID) (*ports.CardSessionResult, error) {
	if s.cards == nil {
		return nil, ErrRailUnavailable
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentUnpaid {
		return nil, mapError(domain.ErrPaymentResolved)
	}

	session, err := s.cards.CreateSession(ctx, order.Reference, order.Total)
	if err != nil {
		return nil, err
	}
	if err := order.SetCorrelationKey(domain.ProviderCard, session.SessionID); err != nil {
		return nil, err
	}
	order.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("store card session id: %w", err)
	}
	return session, nil
}

func (s *Service) AdvanceFulfillment(ctx context.Context, id uuid.UUID, to domain.Status, note string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.AdvanceStatus(to, note, time.Now().UTC()); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, order)
}

var _ ports.Service = (*Service)(nil)
