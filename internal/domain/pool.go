package domain

import "github.com/shopspring/decimal"

// PoolConfig is the launch-time configuration of one pool. It is written
// once when the pool is first recorded and read-only afterwards; fee
// distribution never mutates it.
type PoolConfig struct {
	PoolAddress   string          // PRIMARY KEY
	TokenAddress  string          // token the pool trades
	Creator       *string         // creator identifier, nil for platform-owned pools
	CreatorWallet *string         // creator payout wallet
	CreatorKind   CreatorKind     // human | agent
	SharePercent  decimal.Decimal // revenue share credited to the creator, 0..100
	CreatedAt     int64           // record creation timestamp (ms)
}
