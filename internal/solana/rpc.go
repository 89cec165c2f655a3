package solana

import "context"

// RPCClient defines the Solana RPC HTTP capability the indexer needs:
// read transactions and chain height, check balances, submit transactions
// and poll their confirmation status.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature. Returns
	// (nil, nil) when the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSlot returns the current slot at confirmed commitment.
	GetSlot(ctx context.Context) (int64, error)

	// GetBalance returns an account's balance in lamports.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetLatestBlockhash returns the latest blockhash for transaction assembly.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a base64-encoded signed transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, signedTxBase64 string) (string, error)

	// GetSignatureStatuses returns confirmation status per signature;
	// entries are nil for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// Mentions reports whether the transaction references the given account.
func (t *Transaction) Mentions(pubkey string) bool {
	if t == nil || t.Message == nil {
		return false
	}
	for _, key := range t.Message.AccountKeys {
		if key == pubkey {
			return true
		}
	}
	return false
}

// SignatureStatus is one entry of a getSignatureStatuses response.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
	Err                interface{}
}

// Confirmed reports whether the transaction reached at least confirmed
// commitment without an execution error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}
