// Package memory provides an in-memory order repository for development and
// tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
)

// Repository keeps orders in a map guarded by a mutex. Stored values are
// cloned on the way in and out so callers never share aggregate state.
type Repository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewRepository() *Repository {
	return &Repository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := order.Clone()
	r.orders[order.ID] = stored
	return stored.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) FindByCorrelationKey(_ context.Context, provider domain.Provider, key string) (*domain.Order, error) {
	if key == "" {
		return nil, ports.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		stored, err := order.CorrelationKey(provider)
		if err != nil {
			return nil, err
		}
		if stored == key {
			return order.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) ResolvePayment(_ context.Context, order *domain.Order, expected domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *Repository) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order.Clone())
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

var _ ports.Repository = (*Repository)(nil)
