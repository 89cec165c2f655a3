package domain

// PriceTick is one per-trade price observation, persisted to the
// analytics sink for trending/charting queries.
// Corresponds to price_ticks table in ClickHouse.
type PriceTick struct {
	TokenAddress string  // token mint address
	TimestampMs  int64   // trade timestamp in milliseconds
	Slot         int64   // Solana slot number
	Price        float64 // execution price in SOL per token
	VolumeSol    float64 // SOL volume of the trade
}
