package domain

import "github.com/shopspring/decimal"

// FeeVault tracks the protocol-owned account where one pool's trading
// fees accrue until the platform claims them.
// Corresponds to fee_vaults table in PostgreSQL.
//
// Invariants: Claimed <= Collected, Unclaimed = Collected - Claimed,
// LastClaimAt only advances.
type FeeVault struct {
	PoolAddress  string          // PRIMARY KEY
	VaultAddress string          // protocol-owned fee account
	TokenAddress string          // token the pool trades
	Collected    decimal.Decimal // lifetime fees observed in the vault
	Claimed      decimal.Decimal // lifetime fees claimed by the platform
	Unclaimed    decimal.Decimal // fees sitting in the vault right now
	LastClaimAt  *int64          // last successful claim (ms), nil before first claim
	ClaimCount   int             // number of successful claims
	CreatedAt    int64           // record creation timestamp (ms)
}
