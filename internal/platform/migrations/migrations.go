package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&ledgerRecord{},
		&processedEventRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID              string         `gorm:"primaryKey;column:id;size:36"`
	Reference       string         `gorm:"column:reference;size:16;uniqueIndex"`
	CustomerName    string         `gorm:"column:customer_name"`
	CustomerPhone   string         `gorm:"column:customer_phone;size:20"`
	Items           pq.StringArray `gorm:"column:items;type:text[]"`
	Total           int64          `gorm:"column:total"`
	Currency        string         `gorm:"column:currency;size:3"`
	PaymentStatus   string         `gorm:"column:payment_status;size:16;index"`
	Status          string         `gorm:"column:status;size:16"`
	MpesaCheckoutID string         `gorm:"column:mpesa_checkout_id;size:64;index"`
	CardSessionID   string         `gorm:"column:card_session_id;size:64;index"`
	PaystackRef     string         `gorm:"column:paystack_ref;size:64;index"`
	History         string         `gorm:"column:history;type:jsonb"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Ledger schema mirrors the payments transaction ledger adapter.
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

// Processed-event schema mirrors the payments idempotency adapter.
type processedEventRecord struct {
	Provider    string    `gorm:"primaryKey;column:provider;size:32"`
	EventID     string    `gorm:"primaryKey;column:event_id;size:255"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventRecord) TableName() string { return "processed_payment_events" }
