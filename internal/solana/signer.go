package solana

import "context"

// TxSigner signs assembled transactions. Key custody lives outside this
// service; implementations typically wrap a remote signing service or an
// operator-provided keypair.
type TxSigner interface {
	// PublicKey returns the base58 public key of the signing identity.
	PublicKey() string

	// Sign produces a base64-encoded signed transaction from an unsigned
	// transaction payload and the blockhash it was built against.
	Sign(ctx context.Context, unsignedTx []byte, blockhash string) (string, error)
}
