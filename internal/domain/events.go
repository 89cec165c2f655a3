package domain

// EventKind discriminates parsed chain events.
type EventKind string

// Event kinds emitted by the launch program.
const (
	EventKindTokenCreated EventKind = "token_created"
	EventKindTrade        EventKind = "trade"
	EventKindGraduation   EventKind = "graduation"
)

// Event is the closed union of structured events decoded from one
// transaction's logs. Exactly three concrete types implement it.
type Event interface {
	Kind() EventKind
	TxSignature() string
}

// TokenCreatedEvent records a new token launched through the platform.
type TokenCreatedEvent struct {
	Signature    string
	Slot         int64
	Timestamp    int64 // ms
	TokenAddress string
	Name         string
	Symbol       string
	Creator      string
	CreatorKind  CreatorKind
	PoolAddress  string
	VaultAddress string
}

func (e *TokenCreatedEvent) Kind() EventKind     { return EventKindTokenCreated }
func (e *TokenCreatedEvent) TxSignature() string { return e.Signature }

// TradeEvent records one swap executed against a pool.
type TradeEvent struct {
	Signature    string
	Slot         int64
	Timestamp    int64 // ms
	TokenAddress string
	PoolAddress  string
	Trader       string
	Side         string // "buy" | "sell"
	AmountSol    float64
	AmountTokens float64
	Price        float64
}

func (e *TradeEvent) Kind() EventKind     { return EventKindTrade }
func (e *TradeEvent) TxSignature() string { return e.Signature }

// GraduationEvent records a token's migration off the bonding curve.
type GraduationEvent struct {
	Signature    string
	Slot         int64
	Timestamp    int64 // ms
	TokenAddress string
	PoolAddress  string
}

func (e *GraduationEvent) Kind() EventKind     { return EventKindGraduation }
func (e *GraduationEvent) TxSignature() string { return e.Signature }
