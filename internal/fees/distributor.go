package fees

import (
	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// solScale is the fractional precision of the native currency (lamports).
const solScale = 9

// Split divides a claimed amount between the platform and the pool's
// creator. The creator share is rounded to lamport precision and the
// platform keeps the remainder, so the two shares always sum to the exact
// claimed amount.
func Split(amount, sharePercent decimal.Decimal) (platform, creator decimal.Decimal) {
	creator = amount.Mul(sharePercent).DivRound(decimal.NewFromInt(100), solScale)
	platform = amount.Sub(creator)
	return platform, creator
}

// Distribute computes the reward accrual for one claim. Pools without a
// configured creator keep the whole amount on the platform side and
// produce no accrual.
func Distribute(amount decimal.Decimal, pool *domain.PoolConfig) *storage.RewardAccrual {
	if pool == nil || pool.Creator == nil {
		return nil
	}

	_, creatorShare := Split(amount, pool.SharePercent)
	if creatorShare.IsZero() {
		return nil
	}

	accrual := &storage.RewardAccrual{
		Creator:      *pool.Creator,
		TokenAddress: pool.TokenAddress,
		SharePercent: pool.SharePercent,
		Amount:       creatorShare,
	}
	if pool.CreatorWallet != nil {
		accrual.CreatorWallet = *pool.CreatorWallet
	}
	return accrual
}
