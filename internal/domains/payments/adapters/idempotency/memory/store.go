package memory

import (
	"context"
	"sync"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

var _ ports.IdempotencyLedger = (*Store)(nil)

// Store is an in-memory idempotency ledger for development and tests.
type Store struct {
	mu   sync.Mutex
	seen map[key]struct{}
}

type key struct {
	provider ordersdomain.Provider
	eventID  string
}

func NewStore() *Store {
	return &Store{seen: map[key]struct{}{}}
}

// MarkProcessed records the pair under the lock, making the check-and-mark
// atomic relative to concurrent deliveries of the same event.
func (s *Store) MarkProcessed(_ context.Context, provider ordersdomain.Provider, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{provider: provider, eventID: eventID}
	if _, ok := s.seen[k]; ok {
		return ports.ErrAlreadyProcessed
	}
	s.seen[k] = struct{}{}
	return nil
}
