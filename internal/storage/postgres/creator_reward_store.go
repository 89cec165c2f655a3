package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// CreatorRewardStore implements storage.CreatorRewardStore using PostgreSQL.
type CreatorRewardStore struct {
	pool *Pool
}

// NewCreatorRewardStore creates a new CreatorRewardStore.
func NewCreatorRewardStore(pool *Pool) *CreatorRewardStore {
	return &CreatorRewardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CreatorRewardStore = (*CreatorRewardStore)(nil)

const creatorRewardColumns = `id, creator, creator_wallet, pool_address,
	token_address, lifetime_earned, claimed_amount, unclaimed, share_percent,
	claimed, last_claim_sig, last_claim_at, created_at, updated_at`

// GetByCreator retrieves every reward row for a creator, ordered by pool.
func (s *CreatorRewardStore) GetByCreator(ctx context.Context, creator string) ([]*domain.CreatorReward, error) {
	query := `
		SELECT ` + creatorRewardColumns + `
		FROM creator_rewards
		WHERE creator = $1
		ORDER BY pool_address ASC
	`

	rows, err := s.pool.Query(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("get rewards by creator: %w", err)
	}
	defer rows.Close()

	return scanCreatorRewards(rows)
}

// GetUnclaimedByCreator retrieves unsettled rows with a positive balance.
func (s *CreatorRewardStore) GetUnclaimedByCreator(ctx context.Context, creator string) ([]*domain.CreatorReward, error) {
	query := `
		SELECT ` + creatorRewardColumns + `
		FROM creator_rewards
		WHERE creator = $1 AND claimed = FALSE AND unclaimed > 0
		ORDER BY pool_address ASC
	`

	rows, err := s.pool.Query(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("get unclaimed rewards: %w", err)
	}
	defer rows.Close()

	return scanCreatorRewards(rows)
}

// GetByCreatorAndPool retrieves the reward row for one (creator, pool) pair.
func (s *CreatorRewardStore) GetByCreatorAndPool(ctx context.Context, creator, poolAddress string) (*domain.CreatorReward, error) {
	query := `
		SELECT ` + creatorRewardColumns + `
		FROM creator_rewards
		WHERE creator = $1 AND pool_address = $2
	`

	r, err := scanCreatorReward(s.pool.QueryRow(ctx, query, creator, poolAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get reward by creator and pool: %w", err)
	}
	return r, nil
}

// SettleClaim marks the given rows claimed inside one transaction. The
// claimed = FALSE guard means a row settled concurrently fails the whole
// settlement with ErrConflict and nothing is mutated.
func (s *CreatorRewardStore) SettleClaim(ctx context.Context, creator string, ids []int64, signature string, claimedAtMs int64) error {
	if len(ids) == 0 {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE creator_rewards
		SET claimed_amount = claimed_amount + unclaimed,
		    unclaimed      = 0,
		    claimed        = TRUE,
		    last_claim_sig = $3,
		    last_claim_at  = $4,
		    updated_at     = $4
		WHERE id = ANY($1) AND creator = $2 AND claimed = FALSE
	`

	tag, err := tx.Exec(ctx, query, ids, creator, signature, claimedAtMs)
	if err != nil {
		return fmt.Errorf("settle rewards claim: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return storage.ErrConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rewards claim: %w", err)
	}
	return nil
}

// Leaderboard returns the top creators by lifetime earnings.
func (s *CreatorRewardStore) Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	query := `
		SELECT creator, MAX(creator_wallet), SUM(lifetime_earned), COUNT(*)
		FROM creator_rewards
		GROUP BY creator
		ORDER BY SUM(lifetime_earned) DESC, creator ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Creator, &e.CreatorWallet, &e.TotalEarned, &e.PoolCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

// scanCreatorReward scans one row into a CreatorReward.
func scanCreatorReward(row pgx.Row) (*domain.CreatorReward, error) {
	var r domain.CreatorReward
	err := row.Scan(
		&r.ID,
		&r.Creator,
		&r.CreatorWallet,
		&r.PoolAddress,
		&r.TokenAddress,
		&r.LifetimeEarned,
		&r.ClaimedAmount,
		&r.Unclaimed,
		&r.SharePercent,
		&r.Claimed,
		&r.LastClaimSig,
		&r.LastClaimAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanCreatorRewards scans multiple rows into a slice of CreatorReward.
func scanCreatorRewards(rows pgx.Rows) ([]*domain.CreatorReward, error) {
	var rewards []*domain.CreatorReward
	for rows.Next() {
		r, err := scanCreatorReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan creator reward: %w", err)
		}
		rewards = append(rewards, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creator rewards: %w", err)
	}
	return rewards, nil
}
