package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByAddress retrieves a token by mint address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Token, error)

	// UpdateMarketData persists the latest price, market cap and 24h volume.
	UpdateMarketData(ctx context.Context, address string, price, marketCap, volume24h float64) error

	// MarkGraduated sets the graduated flag and timestamp. Idempotent:
	// a token that already graduated keeps its original timestamp.
	MarkGraduated(ctx context.Context, address string, graduatedAt int64) error
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetBySignature retrieves a trade by signature. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.Trade, error)

	// SumVolumeSince returns total SOL volume for a token since the given
	// timestamp (ms). Used for the rolling 24h volume window.
	SumVolumeSince(ctx context.Context, tokenAddress string, sinceMs int64) (float64, error)
}

// RewardAccrual describes the creator share of one vault claim.
type RewardAccrual struct {
	Creator       string
	CreatorWallet string
	TokenAddress  string
	SharePercent  decimal.Decimal
	Amount        decimal.Decimal
}

// ClaimSettlement describes the full outcome of one vault claim: the vault
// mutation plus the optional creator accrual. Applied atomically.
type ClaimSettlement struct {
	PoolAddress string
	Amount      decimal.Decimal // amount claimed from the vault
	Signature   string          // claim transaction signature
	ClaimedAt   int64           // ms
	Reward      *RewardAccrual  // nil when the pool has no creator
}

// FeeVaultStore provides access to fee_vaults storage.
type FeeVaultStore interface {
	// Insert adds a new vault. Returns ErrDuplicateKey if the pool exists.
	Insert(ctx context.Context, v *domain.FeeVault) error

	// GetByPool retrieves a vault by pool address. Returns ErrNotFound if not exists.
	GetByPool(ctx context.Context, poolAddress string) (*domain.FeeVault, error)

	// ListDue returns every vault whose last claim is older than the given
	// timestamp (ms) or that has never been claimed.
	ListDue(ctx context.Context, olderThanMs int64) ([]*domain.FeeVault, error)

	// ApplyClaim records a successful claim and, when the settlement carries
	// a reward, credits the creator's balance in the same transaction. After
	// it returns, Claimed == Collected and Unclaimed is zero for the vault.
	ApplyClaim(ctx context.Context, s *ClaimSettlement) error
}

// CreatorRewardStore provides access to creator_rewards storage.
type CreatorRewardStore interface {
	// GetByCreator retrieves every reward row for a creator.
	GetByCreator(ctx context.Context, creator string) ([]*domain.CreatorReward, error)

	// GetUnclaimedByCreator retrieves reward rows with a positive unclaimed
	// balance that have not been settled.
	GetUnclaimedByCreator(ctx context.Context, creator string) ([]*domain.CreatorReward, error)

	// GetByCreatorAndPool retrieves the reward row for one (creator, pool)
	// pair. Returns ErrNotFound if not exists.
	GetByCreatorAndPool(ctx context.Context, creator, poolAddress string) (*domain.CreatorReward, error)

	// SettleClaim moves the unclaimed balance of the given rows into the
	// claimed amount and records the payout signature, guarded so that a row
	// settled concurrently fails the whole settlement with ErrConflict.
	SettleClaim(ctx context.Context, creator string, ids []int64, signature string, claimedAtMs int64) error

	// Leaderboard returns the top creators by lifetime earnings.
	Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error)
}

// PoolConfigStore provides access to pool launch configuration. The fee
// pipeline only reads it; rows are written when a pool is first recorded.
type PoolConfigStore interface {
	// Insert adds a new pool config. Returns ErrDuplicateKey if the pool exists.
	Insert(ctx context.Context, c *domain.PoolConfig) error

	// GetByPool retrieves config by pool address. Returns ErrNotFound if not exists.
	GetByPool(ctx context.Context, poolAddress string) (*domain.PoolConfig, error)
}

// PriceTickStore persists per-trade price observations for analytics.
type PriceTickStore interface {
	// Insert adds one price tick.
	Insert(ctx context.Context, tick *domain.PriceTick) error

	// GetByTokenRange retrieves ticks for a token within [start, end] (ms, inclusive).
	GetByTokenRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.PriceTick, error)
}
