package broadcast

// Wire payloads pushed to realtime clients. Each carries a discriminant
// "event" field so clients can route on one schema.

// PriceUpdate reports a token's price after a trade.
type PriceUpdate struct {
	Event        string  `json:"event"` // "price_update"
	TokenAddress string  `json:"token_address"`
	Price        float64 `json:"price"`
	MarketCap    float64 `json:"market_cap"`
	Volume24h    float64 `json:"volume_24h"`
	Timestamp    int64   `json:"timestamp"`
}

// TokenCreated announces a newly launched token.
type TokenCreated struct {
	Event        string `json:"event"` // "token_created"
	TokenAddress string `json:"token_address"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Creator      string `json:"creator"`
	CreatorType  string `json:"creator_type"`
	Timestamp    int64  `json:"timestamp"`
}

// Trade reports one executed swap.
type Trade struct {
	Event        string  `json:"event"` // "trade"
	TokenAddress string  `json:"token_address"`
	Side         string  `json:"side"`
	AmountSol    float64 `json:"amount_sol"`
	AmountTokens float64 `json:"amount_tokens"`
	Trader       string  `json:"trader"`
	Price        float64 `json:"price"`
	Timestamp    int64   `json:"timestamp"`
}

// Event discriminant values.
const (
	EventPriceUpdate  = "price_update"
	EventTokenCreated = "token_created"
	EventTrade        = "trade"
)
