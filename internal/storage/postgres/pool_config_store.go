package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// PoolConfigStore implements storage.PoolConfigStore using PostgreSQL.
type PoolConfigStore struct {
	pool *Pool
}

// NewPoolConfigStore creates a new PoolConfigStore.
func NewPoolConfigStore(pool *Pool) *PoolConfigStore {
	return &PoolConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolConfigStore = (*PoolConfigStore)(nil)

// Insert adds a new pool config. Returns ErrDuplicateKey if the pool exists.
func (s *PoolConfigStore) Insert(ctx context.Context, c *domain.PoolConfig) error {
	query := `
		INSERT INTO pool_configs (
			pool_address, token_address, creator, creator_wallet, creator_kind,
			share_percent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		c.PoolAddress,
		c.TokenAddress,
		c.Creator,
		c.CreatorWallet,
		string(c.CreatorKind),
		c.SharePercent,
		c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool config: %w", err)
	}
	return nil
}

// GetByPool retrieves config by pool address.
func (s *PoolConfigStore) GetByPool(ctx context.Context, poolAddress string) (*domain.PoolConfig, error) {
	query := `
		SELECT pool_address, token_address, creator, creator_wallet,
		       creator_kind, share_percent, created_at
		FROM pool_configs
		WHERE pool_address = $1
	`

	var c domain.PoolConfig
	var kind string
	err := s.pool.QueryRow(ctx, query, poolAddress).Scan(
		&c.PoolAddress,
		&c.TokenAddress,
		&c.Creator,
		&c.CreatorWallet,
		&kind,
		&c.SharePercent,
		&c.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool config: %w", err)
	}

	c.CreatorKind = domain.CreatorKind(kind)
	return &c, nil
}
