package memory

import (
	"context"
	"sync"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
)

var _ ports.TxManager = (*TxManager)(nil)

// TxManager serializes units of work behind one mutex. There is no rollback;
// the in-memory adapters exist for development and tests, where serial
// execution already rules out the races the relational manager guards.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
