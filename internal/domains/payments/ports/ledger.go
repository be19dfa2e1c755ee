package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

// TransactionLedger appends immutable audit records for accepted payments.
// Append runs in the same unit of work as the order mutation: a storage
// failure fails the whole reconciliation so the provider retries instead of
// the audit trail silently going missing.
type TransactionLedger interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.LedgerEntry, error)
}
