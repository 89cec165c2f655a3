package domain

import "github.com/shopspring/decimal"

// CreatorReward accumulates one creator's share of claimed fees for one pool.
// Corresponds to creator_rewards table in PostgreSQL.
//
// Invariant: ClaimedAmount + Unclaimed = LifetimeEarned.
type CreatorReward struct {
	ID             int64           // BIGSERIAL primary key
	Creator        string          // creator identifier (bot id)
	CreatorWallet  string          // payout wallet recorded at accrual time
	PoolAddress    string          // pool the fees came from; (creator, pool) is unique
	TokenAddress   string          // token the pool trades
	LifetimeEarned decimal.Decimal // total share ever credited
	ClaimedAmount  decimal.Decimal // total paid out to the creator
	Unclaimed      decimal.Decimal // currently claimable balance
	SharePercent   decimal.Decimal // configured revenue share, 0..100
	Claimed        bool            // true once Unclaimed has been paid out
	LastClaimSig   *string         // settlement transaction signature
	LastClaimAt    *int64          // settlement timestamp (ms)
	CreatedAt      int64           // record creation timestamp (ms)
	UpdatedAt      int64           // last mutation timestamp (ms)
}

// LeaderboardEntry is one row of the creator earnings leaderboard.
type LeaderboardEntry struct {
	Creator       string
	CreatorWallet string
	TotalEarned   decimal.Decimal
	PoolCount     int
}
