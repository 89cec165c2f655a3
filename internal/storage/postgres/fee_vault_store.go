package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// FeeVaultStore implements storage.FeeVaultStore using PostgreSQL.
type FeeVaultStore struct {
	pool *Pool
}

// NewFeeVaultStore creates a new FeeVaultStore.
func NewFeeVaultStore(pool *Pool) *FeeVaultStore {
	return &FeeVaultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeeVaultStore = (*FeeVaultStore)(nil)

// Insert adds a new vault. Returns ErrDuplicateKey if the pool exists.
func (s *FeeVaultStore) Insert(ctx context.Context, v *domain.FeeVault) error {
	query := `
		INSERT INTO fee_vaults (
			pool_address, vault_address, token_address, collected, claimed,
			unclaimed, last_claim_at, claim_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		v.PoolAddress,
		v.VaultAddress,
		v.TokenAddress,
		v.Collected,
		v.Claimed,
		v.Unclaimed,
		v.LastClaimAt,
		v.ClaimCount,
		v.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fee vault: %w", err)
	}
	return nil
}

const feeVaultColumns = `pool_address, vault_address, token_address, collected,
	claimed, unclaimed, last_claim_at, claim_count, created_at`

// GetByPool retrieves a vault by pool address.
func (s *FeeVaultStore) GetByPool(ctx context.Context, poolAddress string) (*domain.FeeVault, error) {
	query := `SELECT ` + feeVaultColumns + ` FROM fee_vaults WHERE pool_address = $1`

	v, err := scanFeeVault(s.pool.QueryRow(ctx, query, poolAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get fee vault by pool: %w", err)
	}
	return v, nil
}

// ListDue returns vaults never claimed or last claimed before olderThanMs.
func (s *FeeVaultStore) ListDue(ctx context.Context, olderThanMs int64) ([]*domain.FeeVault, error) {
	query := `
		SELECT ` + feeVaultColumns + `
		FROM fee_vaults
		WHERE last_claim_at IS NULL OR last_claim_at < $1
		ORDER BY pool_address ASC
	`

	rows, err := s.pool.Query(ctx, query, olderThanMs)
	if err != nil {
		return nil, fmt.Errorf("list due fee vaults: %w", err)
	}
	defer rows.Close()

	var vaults []*domain.FeeVault
	for rows.Next() {
		v, err := scanFeeVault(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee vault: %w", err)
		}
		vaults = append(vaults, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee vaults: %w", err)
	}
	return vaults, nil
}

// ApplyClaim records a successful claim and credits the creator share in
// the same transaction, so a crash between the two writes cannot leave a
// claimed vault with an uncredited reward.
func (s *FeeVaultStore) ApplyClaim(ctx context.Context, set *storage.ClaimSettlement) error {
	if set == nil || set.PoolAddress == "" || !set.Amount.IsPositive() {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The last_claim_at guard keeps the claim timestamp monotonic.
	vaultQuery := `
		UPDATE fee_vaults
		SET claimed    = claimed + $2,
		    collected  = GREATEST(collected, claimed + $2),
		    unclaimed  = 0,
		    last_claim_at = $3,
		    claim_count = claim_count + 1
		WHERE pool_address = $1
		  AND (last_claim_at IS NULL OR last_claim_at <= $3)
	`

	tag, err := tx.Exec(ctx, vaultQuery, set.PoolAddress, set.Amount, set.ClaimedAt)
	if err != nil {
		return fmt.Errorf("apply vault claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fee_vaults WHERE pool_address = $1)`, set.PoolAddress).Scan(&exists); err != nil {
			return fmt.Errorf("check vault exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}

	if r := set.Reward; r != nil {
		rewardQuery := `
			INSERT INTO creator_rewards (
				creator, creator_wallet, pool_address, token_address,
				lifetime_earned, claimed_amount, unclaimed, share_percent,
				claimed, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, 0, $5, $6, FALSE, $7, $7)
			ON CONFLICT (creator, pool_address) DO UPDATE SET
				lifetime_earned = creator_rewards.lifetime_earned + EXCLUDED.lifetime_earned,
				unclaimed       = creator_rewards.unclaimed + EXCLUDED.unclaimed,
				claimed         = FALSE,
				updated_at      = EXCLUDED.updated_at
		`

		_, err := tx.Exec(ctx, rewardQuery,
			r.Creator,
			r.CreatorWallet,
			set.PoolAddress,
			r.TokenAddress,
			r.Amount,
			r.SharePercent,
			set.ClaimedAt,
		)
		if err != nil {
			return fmt.Errorf("accrue creator reward: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim settlement: %w", err)
	}
	return nil
}

// scanFeeVault scans one row into a FeeVault.
func scanFeeVault(row pgx.Row) (*domain.FeeVault, error) {
	var v domain.FeeVault
	err := row.Scan(
		&v.PoolAddress,
		&v.VaultAddress,
		&v.TokenAddress,
		&v.Collected,
		&v.Claimed,
		&v.Unclaimed,
		&v.LastClaimAt,
		&v.ClaimCount,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
