package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	platformpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/postgres"
)

var _ ports.TransactionLedger = (*Ledger)(nil)

// Ledger persists audit entries in PostgreSQL. Rows are insert-only; there is
// deliberately no update or delete path.
type Ledger struct {
	db *gorm.DB
}

// NewLedger wires a PostgreSQL-backed transaction ledger. Caller manages DB
// lifecycle.
func NewLedger(db *gorm.DB) *Ledger {
	ledger := &Ledger{db: db}
	if db != nil {
		_ = db.AutoMigrate(&ledgerRecord{})
	}
	return ledger
}

// Append inserts one audit row within the caller's unit of work.
func (l *Ledger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := l.ensureDB(); err != nil {
		return err
	}
	if entry == nil {
		return errors.New("ledger entry is nil")
	}
	record := toRecord(entry)
	return platformpostgres.DB(ctx, l.db).WithContext(ctx).Create(&record).Error
}

// ListByOrder returns the audit trail for one order, oldest first.
func (l *Ledger) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.LedgerEntry, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var records []ledgerRecord
	if err := platformpostgres.DB(ctx, l.db).WithContext(ctx).
		Where("order_id = ?", orderID.String()).
		Order("recorded_at asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]*domain.LedgerEntry, 0, len(records))
	for i := range records {
		entry, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Ledger) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres transaction ledger not configured")
	}
	return nil
}

type ledgerRecord struct {
	ID         string    `gorm:"primaryKey;column:id;size:36"`
	OrderID    string    `gorm:"column:order_id;size:36;index"`
	Amount     int64     `gorm:"column:amount"`
	Receipt    string    `gorm:"column:receipt;size:128"`
	Provider   string    `gorm:"column:provider;size:32"`
	Outcome    string    `gorm:"column:outcome;size:16"`
	RecordedBy string    `gorm:"column:recorded_by;size:64"`
	RecordedAt time.Time `gorm:"column:recorded_at;index"`
}

func (ledgerRecord) TableName() string { return "payment_ledger" }

func toRecord(entry *domain.LedgerEntry) ledgerRecord {
	return ledgerRecord{
		ID:         entry.ID.String(),
		OrderID:    entry.OrderID.String(),
		Amount:     entry.Amount,
		Receipt:    entry.Receipt,
		Provider:   string(entry.Provider),
		Outcome:    string(entry.Outcome),
		RecordedBy: entry.RecordedBy,
		RecordedAt: entry.RecordedAt,
	}
}

func (r ledgerRecord) toDomain() (*domain.LedgerEntry, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := uuid.Parse(r.OrderID)
	if err != nil {
		return nil, err
	}
	return &domain.LedgerEntry{
		ID:         id,
		OrderID:    orderID,
		Amount:     r.Amount,
		Receipt:    r.Receipt,
		Provider:   ordersdomain.Provider(r.Provider),
		Outcome:    domain.Outcome(r.Outcome),
		RecordedBy: r.RecordedBy,
		RecordedAt: r.RecordedAt,
	}, nil
}
