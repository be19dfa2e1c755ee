//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	ordersdomain "github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/orders/domain"
	"github.com/ProSteveMchuma/Mel-Agro-sub002/internal/domains/payments/domain"
)

func setupLedgerContainer(t *testing.T) (*gorm.DB, func()) {
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

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
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

func TestLedger_AppendAndListByOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerContainer(t)
	defer cleanup()

	ledger := NewLedger(db)
	ctx := context.Background()
	orderID := uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first := &domain.LedgerEntry{
		ID:         uuid.New(),
		OrderID:    orderID,
		Amount:     5400,
		Receipt:    "NLJ7RT61SV",
		Provider:   ordersdomain.ProviderMpesa,
		Outcome:    domain.OutcomeSuccess,
		RecordedBy: "mpesa-callback",
		RecordedAt: base,
	}
	second := &domain.LedgerEntry{
		ID:         uuid.New(),
		OrderID:    orderID,
		Amount:     5400,
		Receipt:    "ref_8842",
		Provider:   ordersdomain.ProviderPaystack,
		Outcome:    domain.OutcomeSuccess,
		RecordedBy: "paystack-webhook",
		RecordedAt: base.Add(time.Minute),
	}
	require.NoError(t, ledger.Append(ctx, first))
	require.NoError(t, ledger.Append(ctx, second))

	// An entry for another order must not bleed in.
	require.NoError(t, ledger.Append(ctx, &domain.LedgerEntry{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		Amount:     100,
		Provider:   ordersdomain.ProviderCard,
		Outcome:    domain.OutcomeSuccess,
		RecordedBy: "card-redirect",
		RecordedAt: base,
	}))

	entries, err := ledger.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	assert.Equal(t, "NLJ7RT61SV", entries[0].Receipt)
	assert.Equal(t, ordersdomain.ProviderPaystack, entries[1].Provider)
}

func TestLedger_ListByOrderEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerContainer(t)
	defer cleanup()

	ledger := NewLedger(db)
	entries, err := ledger.ListByOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
