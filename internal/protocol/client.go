// Package protocol talks to the external bonding-curve AMM: it reads fee
// vault balances and executes claim transactions. Curve math and pool
// state belong to the AMM program, not to this client.
package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/solana"
)

const (
	lamportsPerSol = 1_000_000_000

	// rentExemptLamports stays in the vault account so it survives the
	// claim; only the balance above it is claimable.
	rentExemptLamports = 890_880

	// confirmTimeout bounds the post-submit confirmation wait.
	confirmTimeout = 60 * time.Second
)

// claimDiscriminator is the AMM's claim_fees instruction tag.
var claimDiscriminator = []byte{82, 251, 233, 156, 12, 52, 184, 202}

// Client executes vault operations against the AMM program.
type Client struct {
	rpc    solana.RPCClient
	signer solana.TxSigner
	logger *zap.Logger

	// programID is the AMM program the claim instruction targets.
	programID string
}

// NewClient creates a protocol client.
func NewClient(rpc solana.RPCClient, signer solana.TxSigner, programID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		rpc:       rpc,
		signer:    signer,
		logger:    logger.Named("protocol"),
		programID: programID,
	}
}

// ClaimableFees returns the vault balance above the rent reserve, in SOL.
func (c *Client) ClaimableFees(ctx context.Context, vaultAddress string) (decimal.Decimal, error) {
	lamports, err := c.rpc.GetBalance(ctx, vaultAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("vault balance: %w", err)
	}

	if lamports <= rentExemptLamports {
		return decimal.Zero, nil
	}

	claimable := decimal.NewFromUint64(lamports - rentExemptLamports).
		Div(decimal.NewFromInt(lamportsPerSol))
	return claimable, nil
}

// claimInstruction is the unsigned payload handed to the signing service.
type claimInstruction struct {
	ProgramID string   `json:"program_id"`
	Accounts  []string `json:"accounts"` // pool, vault, authority
	Data      string   `json:"data"`     // base64 instruction data
}

// ClaimFees drains the vault's claimable balance to the platform treasury.
// It submits the claim transaction and blocks until confirmation, returning
// the claimed amount in SOL and the transaction signature.
func (c *Client) ClaimFees(ctx context.Context, poolAddress, vaultAddress string) (decimal.Decimal, string, error) {
	amount, err := c.ClaimableFees(ctx, vaultAddress)
	if err != nil {
		return decimal.Zero, "", err
	}
	if amount.IsZero() {
		return decimal.Zero, "", fmt.Errorf("vault %s has no claimable balance", vaultAddress)
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("latest blockhash: %w", err)
	}

	ix := claimInstruction{
		ProgramID: c.programID,
		Accounts:  []string{poolAddress, vaultAddress, c.signer.PublicKey()},
		Data:      base64.StdEncoding.EncodeToString(claimDiscriminator),
	}
	unsigned, err := json.Marshal(ix)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("marshal claim instruction: %w", err)
	}

	signedTx, err := c.signer.Sign(ctx, unsigned, blockhash)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("sign claim: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, signedTx)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("submit claim: %w", err)
	}

	if err := c.awaitConfirmation(ctx, sig); err != nil {
		return decimal.Zero, "", fmt.Errorf("confirm claim %s: %w", sig, err)
	}

	c.logger.Info("vault fees claimed",
		zap.String("pool", poolAddress),
		zap.String("vault", vaultAddress),
		zap.String("amount_sol", amount.String()),
		zap.String("signature", sig))

	return amount, sig, nil
}

// awaitConfirmation polls signature status until the transaction reaches
// confirmed commitment.
func (c *Client) awaitConfirmation(ctx context.Context, sig string) error {
	op := func() (struct{}, error) {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err != nil {
			return struct{}{}, err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			return struct{}{}, fmt.Errorf("signature %s not yet known", sig)
		}
		if statuses[0].Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("transaction failed on chain: %v", statuses[0].Err))
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
		backoff.WithMaxElapsedTime(confirmTimeout),
	)
	return err
}
