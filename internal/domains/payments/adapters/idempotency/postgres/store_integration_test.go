//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/ports"
	platformpostgres "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/platform/postgres"
)

func setupIdempotencyContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("melagro_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestStore_MarkProcessedDetectsRedelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupIdempotencyContainer(t)
	defer cleanup()

	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.MarkProcessed(ctx, ordersdomain.ProviderMpesa, "ws_CO_191220191020363925"))
	err := store.MarkProcessed(ctx, ordersdomain.ProviderMpesa, "ws_CO_191220191020363925")
	assert.ErrorIs(t, err, ports.ErrAlreadyProcessed)

	// Same id under another provider is a distinct event.
	require.NoError(t, store.MarkProcessed(ctx, ordersdomain.ProviderPaystack, "ws_CO_191220191020363925"))
}

func TestStore_RollbackReleasesMark(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupIdempotencyContainer(t)
	defer cleanup()

	store := NewStore(db)
	tx := platformpostgres.NewTxManager(db)
	ctx := context.Background()

	boom := errors.New("downstream write failed")
	err := tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := store.MarkProcessed(txCtx, ordersdomain.ProviderCard, "cs_mock_abc123"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The aborted mark must not block the provider's retry.
	require.NoError(t, store.MarkProcessed(ctx, ordersdomain.ProviderCard, "cs_mock_abc123"))
}
