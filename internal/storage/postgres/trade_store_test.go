package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

func TestTradeStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)
	ctx := context.Background()

	trade := &domain.Trade{
		Signature:    "sig1",
		TokenAddress: "Mint111",
		PoolAddress:  "Pool111",
		Trader:       "Wallet111",
		Side:         domain.TradeSideBuy,
		AmountSol:    1.5,
		AmountTokens: 30000,
		Price:        0.00005,
		FeeSol:       decimal.RequireFromString("0.015"),
		Slot:         100,
		Timestamp:    1000,
		CreatedAt:    1000,
	}

	t.Run("insert and get", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, trade))

		got, err := store.GetBySignature(ctx, "sig1")
		require.NoError(t, err)
		require.Equal(t, domain.TradeSideBuy, got.Side)
		require.True(t, got.FeeSol.Equal(decimal.RequireFromString("0.015")),
			"fee mismatch: %s", got.FeeSol)
	})

	t.Run("duplicate signature", func(t *testing.T) {
		err := store.Insert(ctx, trade)
		require.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("sum volume since", func(t *testing.T) {
		more := []*domain.Trade{
			{Signature: "sig2", TokenAddress: "Mint111", Side: "sell", AmountSol: 2.5, Timestamp: 2000, CreatedAt: 2000},
			{Signature: "sig3", TokenAddress: "Mint111", Side: "buy", AmountSol: 4.0, Timestamp: 500, CreatedAt: 500},
			{Signature: "sig4", TokenAddress: "Other", Side: "buy", AmountSol: 8.0, Timestamp: 2000, CreatedAt: 2000},
		}
		for _, tr := range more {
			require.NoError(t, store.Insert(ctx, tr))
		}

		sum, err := store.SumVolumeSince(ctx, "Mint111", 1000)
		require.NoError(t, err)
		require.Equal(t, 4.0, sum) // sig1 (1.5) + sig2 (2.5)

		sum, err = store.SumVolumeSince(ctx, "Empty", 0)
		require.NoError(t, err)
		require.Equal(t, 0.0, sum)
	})
}
