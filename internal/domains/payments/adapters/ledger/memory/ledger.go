package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

var _ ports.TransactionLedger = (*Ledger)(nil)

// Ledger is an in-memory append-only transaction ledger.
type Ledger struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(_ context.Context, entry *domain.LedgerEntry) error {
	if entry == nil {
		return errors.New("ledger entry is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := *entry
	l.entries = append(l.entries, &clone)
	return nil
}

func (l *Ledger) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, entry := range l.entries {
		if entry.OrderID == orderID {
			clone := *entry
			out = append(out, &clone)
		}
	}
	return out, nil
}
