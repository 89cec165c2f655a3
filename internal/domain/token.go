package domain

// CreatorKind tags who launched a token.
type CreatorKind string

// Creator kind constants
const (
	CreatorKindHuman CreatorKind = "human"
	CreatorKindAgent CreatorKind = "agent"
)

// Token represents one launched asset.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	Address     string      // mint address, PRIMARY KEY, immutable
	Name        string      // token name
	Symbol      string      // ticker symbol
	Creator     string      // creator identifier (bot id or wallet)
	CreatorKind CreatorKind // human | agent
	Price       float64     // latest observed price in SOL
	MarketCap   float64     // price * total supply
	Volume24h   float64     // rolling 24h SOL volume
	Graduated   bool        // migrated off the bonding curve
	GraduatedAt *int64      // graduation timestamp (ms), nil until graduated
	CreatedAt   int64       // record creation timestamp (ms)
}

// TotalSupply is the fixed token supply minted at launch.
// Every token launched through the platform shares the same supply.
const TotalSupply = 1_000_000_000
