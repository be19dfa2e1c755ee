package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type txContextKey struct{}

// WithTx threads an open transaction through the context so adapters built on
// this package write within the caller's unit of work.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// DB returns the transaction bound to the context, falling back to the
// adapter's own handle when no unit of work is in flight.
func DB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback
}

// TxManager scopes a function to one database transaction.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager wires the transaction manager. Caller manages DB lifecycle.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx opens a transaction, binds it to the context, and commits when fn
// returns nil; any error rolls the whole unit back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m == nil || m.db == nil {
		return errors.New("postgres tx manager not configured")
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
