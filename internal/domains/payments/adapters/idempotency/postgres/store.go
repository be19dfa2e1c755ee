package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	platformpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/postgres"
)

var _ ports.IdempotencyLedger = (*Store)(nil)

// Store persists processed provider event ids in PostgreSQL. The insert rides
// on the caller's transaction when one is bound to the context, so the
// check-and-mark commits or rolls back together with the order mutation.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed idempotency ledger.
func NewStore(db *gorm.DB) *Store {
	store := &Store{db: db}
	if db != nil {
		_ = db.AutoMigrate(&processedEventRecord{})
	}
	return store
}

// MarkProcessed inserts the (provider, event id) pair; the composite primary
// key makes a redelivery surface as a duplicate-key error.
func (s *Store) MarkProcessed(ctx context.Context, provider ordersdomain.Provider, eventID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := processedEventRecord{
		Provider:    string(provider),
		EventID:     eventID,
		ProcessedAt: time.Now().UTC(),
	}
	if err := platformpostgres.DB(ctx, s.db).WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrAlreadyProcessed
		}
		return err
	}
	return nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency ledger not configured")
	}
	return nil
}

type processedEventRecord struct {
	Provider    string    `gorm:"primaryKey;column:provider;size:32"`
	EventID     string    `gorm:"primaryKey;column:event_id;size:255"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventRecord) TableName() string { return "processed_payment_events" }
