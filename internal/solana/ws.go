package solana

import "context"

// WSClient defines the Solana WebSocket log-subscription capability.
type WSClient interface {
	// SubscribeLogs opens a logsSubscribe stream for transactions matching
	// the filter. The returned channel is closed when the client closes.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close shuts down the connection and all streams.
	Close() error
}

// LogsFilter selects which transaction logs to receive.
type LogsFilter struct {
	// Mentions restricts the stream to transactions that reference any of
	// these account addresses. Empty means all transactions.
	Mentions []string
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
