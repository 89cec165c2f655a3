package rewards

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"filippo.io/edwards25519"
	"github.com/cenkalti/backoff/v5"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/solana"
)

// ErrInvalidWallet rejects payout destinations that are not canonical
// ed25519 public keys.
var ErrInvalidWallet = errors.New("invalid payout wallet address")

// ValidateWallet checks that the address is 32 bytes of base58 decoding to
// a canonical point on the ed25519 curve. Off-curve addresses (PDAs) and
// malformed strings are rejected; rewards must pay out to a signer-capable
// wallet.
func ValidateWallet(address string) error {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return ErrInvalidWallet
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return ErrInvalidWallet
	}
	return nil
}

// PayoutExecutor moves a settled reward amount to the creator's wallet and
// returns the settlement signature.
type PayoutExecutor interface {
	Payout(ctx context.Context, wallet string, amount decimal.Decimal) (string, error)
}

const (
	lamportsPerSol = 1_000_000_000

	// payoutConfirmTimeout bounds the post-submit confirmation wait.
	payoutConfirmTimeout = 60 * time.Second
)

// systemProgramID is Solana's native transfer program.
const systemProgramID = "11111111111111111111111111111111"

// transferExecutor pays rewards with a system-program transfer from the
// platform treasury.
type transferExecutor struct {
	rpc    solana.RPCClient
	signer solana.TxSigner
	logger *zap.Logger
}

// NewTransferExecutor creates the production payout executor.
func NewTransferExecutor(rpc solana.RPCClient, signer solana.TxSigner, logger *zap.Logger) PayoutExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transferExecutor{
		rpc:    rpc,
		signer: signer,
		logger: logger.Named("payout"),
	}
}

// transferInstruction is the unsigned payload handed to the signing service.
type transferInstruction struct {
	ProgramID string   `json:"program_id"`
	Accounts  []string `json:"accounts"` // from, to
	Data      string   `json:"data"`     // base64: u32 index 2 (transfer) + u64 lamports
}

func (e *transferExecutor) Payout(ctx context.Context, wallet string, amount decimal.Decimal) (string, error) {
	lamports := amount.Mul(decimal.NewFromInt(lamportsPerSol)).IntPart()
	if lamports <= 0 {
		return "", fmt.Errorf("payout amount %s rounds to zero lamports", amount)
	}

	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // SystemInstruction::Transfer
	binary.LittleEndian.PutUint64(data[4:12], uint64(lamports))

	ix := transferInstruction{
		ProgramID: systemProgramID,
		Accounts:  []string{e.signer.PublicKey(), wallet},
		Data:      base64.StdEncoding.EncodeToString(data),
	}
	unsigned, err := json.Marshal(ix)
	if err != nil {
		return "", fmt.Errorf("marshal transfer: %w", err)
	}

	signedTx, err := e.signer.Sign(ctx, unsigned, blockhash)
	if err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}

	sig, err := e.rpc.SendTransaction(ctx, signedTx)
	if err != nil {
		return "", fmt.Errorf("submit transfer: %w", err)
	}

	if err := e.awaitConfirmation(ctx, sig); err != nil {
		return "", fmt.Errorf("confirm transfer %s: %w", sig, err)
	}

	e.logger.Info("reward payout confirmed",
		zap.String("wallet", wallet),
		zap.String("amount_sol", amount.String()),
		zap.String("signature", sig))

	return sig, nil
}

func (e *transferExecutor) awaitConfirmation(ctx context.Context, sig string) error {
	op := func() (struct{}, error) {
		statuses, err := e.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err != nil {
			return struct{}{}, err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			return struct{}{}, fmt.Errorf("signature %s not yet known", sig)
		}
		if statuses[0].Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("transfer failed on chain: %v", statuses[0].Err))
		}
		if !statuses[0].Confirmed() {
			return struct{}{}, fmt.Errorf("signature %s still %s", sig, statuses[0].ConfirmationStatus)
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(payoutConfirmTimeout),
	)
	return err
}
