package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	query := `
		INSERT INTO trades (
			signature, token_address, pool_address, trader, side, amount_sol,
			amount_tokens, price, fee_sol, slot, timestamp, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Signature,
		t.TokenAddress,
		t.PoolAddress,
		t.Trader,
		t.Side,
		t.AmountSol,
		t.AmountTokens,
		t.Price,
		t.FeeSol,
		t.Slot,
		t.Timestamp,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetBySignature retrieves a trade by signature.
func (s *TradeStore) GetBySignature(ctx context.Context, signature string) (*domain.Trade, error) {
	query := `
		SELECT signature, token_address, pool_address, trader, side, amount_sol,
		       amount_tokens, price, fee_sol, slot, timestamp, created_at
		FROM trades
		WHERE signature = $1
	`

	var t domain.Trade
	err := s.pool.QueryRow(ctx, query, signature).Scan(
		&t.Signature,
		&t.TokenAddress,
		&t.PoolAddress,
		&t.Trader,
		&t.Side,
		&t.AmountSol,
		&t.AmountTokens,
		&t.Price,
		&t.FeeSol,
		&t.Slot,
		&t.Timestamp,
		&t.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by signature: %w", err)
	}
	return &t, nil
}

// SumVolumeSince returns total SOL volume for a token since the given timestamp.
func (s *TradeStore) SumVolumeSince(ctx context.Context, tokenAddress string, sinceMs int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount_sol), 0)
		FROM trades
		WHERE token_address = $1 AND timestamp >= $2
	`

	var sum float64
	if err := s.pool.QueryRow(ctx, query, tokenAddress, sinceMs).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum trade volume: %w", err)
	}
	return sum, nil
}
