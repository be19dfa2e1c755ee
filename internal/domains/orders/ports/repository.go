package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConcurrencyConflict means the guarded payment write lost a race:
	// another handler resolved the order's payment between read and write.
	ErrConcurrencyConflict = errors.New("order payment state changed concurrently")
)

// Repository persists order aggregates.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// FindByCorrelationKey resolves an inbound payment notification to the
	// order that initiated it, matching exactly against the stored key for
	// the given provider.
	FindByCorrelationKey(ctx context.Context, provider domain.Provider, key string) (*domain.Order, error)
	// ResolvePayment writes the order's payment resolution guarded by a
	// compare-and-set on the stored payment status: the write succeeds only
	// while the persisted status still equals expected, otherwise
	// ErrConcurrencyConflict is returned and nothing is mutated.
	ResolvePayment(ctx context.Context, order *domain.Order, expected domain.PaymentStatus) error
	List(ctx context.Context) ([]*domain.Order, error)
}
