package domain

import "github.com/shopspring/decimal"

// Trade represents one executed swap against a token's bonding curve.
// Corresponds to trades table in PostgreSQL. The transaction signature is
// the idempotency anchor: a signature is inserted at most once.
type Trade struct {
	Signature    string          // Solana transaction signature, PRIMARY KEY
	TokenAddress string          // FK to tokens
	PoolAddress  string          // bonding-curve pool account
	Trader       string          // trader wallet address
	Side         string          // "buy" | "sell"
	AmountSol    float64         // SOL-equivalent amount swapped
	AmountTokens float64         // token amount swapped
	Price        float64         // execution price in SOL per token
	FeeSol       decimal.Decimal // platform fee charged, in SOL
	Slot         int64           // Solana slot number
	Timestamp    int64           // Unix timestamp in milliseconds
	CreatedAt    int64           // record creation timestamp (ms)
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)
