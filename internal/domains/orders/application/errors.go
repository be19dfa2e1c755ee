package application

import (
	"errors"
	"fmt"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrConflict signals the requested change collides with the order's
	// current state.
	ErrConflict = errors.New("order state conflict")
	// ErrRailUnavailable signals the requested payment rail is not wired in
	// this deployment.
	ErrRailUnavailable = errors.New("payment rail unavailable")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCustomer) ||
		errors.Is(err, domain.ErrEmptyItems) ||
		errors.Is(err, domain.ErrInvalidTotal) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrStatusRegression) ||
		errors.Is(err, domain.ErrCancelAfterShip) ||
		errors.Is(err, domain.ErrPaymentResolved) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
