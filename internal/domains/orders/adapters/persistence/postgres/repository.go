// Package postgres persists orders in PostgreSQL using GORM.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/ports"
	platformpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/postgres"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is the PostgreSQL-backed order store. Reads and writes pick up
// the transaction from the context when reconciliation runs inside one.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

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

var correlationColumns = map[domain.Provider]string{
	domain.ProviderMpesa:    "mpesa_checkout_id",
	domain.ProviderCard:     "card_session_id",
	domain.ProviderPaystack: "paystack_ref",
}

// Save inserts or updates an order keyed by id.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record, err := toRecord(order)
	if err != nil {
		return nil, err
	}
	db := platformpostgres.DB(ctx, r.db)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_name", "customer_phone", "items", "total", "payment_status", "status",
				"mpesa_checkout_id", "card_session_id", "paystack_ref", "history", "updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return nil, err
	}
	return order.Clone(), nil
}

// GetByID fetches an order by its id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	db := platformpostgres.DB(ctx, r.db)
	if err := db.WithContext(ctx).First(&record, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// FindByCorrelationKey resolves a provider callback to its order by exact
// match on the provider's stored correlation column.
func (r *Repository) FindByCorrelationKey(ctx context.Context, provider domain.Provider, key string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	column, ok := correlationColumns[provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	if key == "" {
		return nil, ports.ErrNotFound
	}
	var record orderRecord
	db := platformpostgres.DB(ctx, r.db)
	if err := db.WithContext(ctx).First(&record, column+" = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain()
}

// ResolvePayment writes the payment resolution guarded by the stored payment
// status. The conditional UPDATE is the single serialization point for
// concurrent callbacks on one order: only the handler whose expected status
// still matches wins the row.
func (r *Repository) ResolvePayment(ctx context.Context, order *domain.Order, expected domain.PaymentStatus) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	history, err := marshalHistory(order.History)
	if err != nil {
		return err
	}
	db := platformpostgres.DB(ctx, r.db)
	result := db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND payment_status = ?", order.ID.String(), string(expected)).
		Updates(map[string]any{
			"payment_status": string(order.PaymentStatus),
			"history":        history,
			"updated_at":     order.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", order.ID.String()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ports.ErrNotFound
		}
		return ports.ErrConcurrencyConflict
	}
	return nil
}

// List returns all orders, oldest first.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	db := platformpostgres.DB(ctx, r.db)
	if err := db.WithContext(ctx).Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) (orderRecord, error) {
	history, err := marshalHistory(order.History)
	if err != nil {
		return orderRecord{}, err
	}
	return orderRecord{
		ID:              order.ID.String(),
		Reference:       order.Reference,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		Items:           pq.StringArray(order.Items),
		Total:           order.Total,
		Currency:        order.Currency,
		PaymentStatus:   string(order.PaymentStatus),
		Status:          string(order.Status),
		MpesaCheckoutID: order.MpesaCheckoutID,
		CardSessionID:   order.CardSessionID,
		PaystackRef:     order.PaystackRef,
		History:         history,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}, nil
}

func (r orderRecord) toDomain() (*domain.Order, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	var history []domain.HistoryEntry
	if r.History != "" {
		if err := json.Unmarshal([]byte(r.History), &history); err != nil {
			return nil, err
		}
	}
	return &domain.Order{
		ID:              id,
		Reference:       r.Reference,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		Items:           append([]string{}, r.Items...),
		Total:           r.Total,
		Currency:        r.Currency,
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		Status:          domain.Status(r.Status),
		MpesaCheckoutID: r.MpesaCheckoutID,
		CardSessionID:   r.CardSessionID,
		PaystackRef:     r.PaystackRef,
		History:         history,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func marshalHistory(history []domain.HistoryEntry) (string, error) {
	if len(history) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
