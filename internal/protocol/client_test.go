package protocol

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/solana"
)

type stubRPC struct {
	balance    uint64
	balanceErr error

	sentTx     string
	statusCall int
	statuses   []*solana.SignatureStatus
}

func (s *stubRPC) GetTransaction(ctx context.Context, _ string) (*solana.Transaction, error) {
	return nil, nil
}
func (s *stubRPC) GetSlot(ctx context.Context) (int64, error) { return 0, nil }
func (s *stubRPC) GetBalance(ctx context.Context, _ string) (uint64, error) {
	return s.balance, s.balanceErr
}
func (s *stubRPC) GetLatestBlockhash(ctx context.Context) (string, error) {
	return "hash123", nil
}
func (s *stubRPC) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	s.sentTx = signedTx
	return "claimsig", nil
}
func (s *stubRPC) GetSignatureStatuses(ctx context.Context, _ []string) ([]*solana.SignatureStatus, error) {
	s.statusCall++
	return s.statuses, nil
}

type stubSigner struct {
	signed []byte
}

func (s *stubSigner) PublicKey() string { return "Treasury111" }
func (s *stubSigner) Sign(ctx context.Context, unsignedTx []byte, blockhash string) (string, error) {
	s.signed = unsignedTx
	return "signed:" + blockhash, nil
}

func TestClient_ClaimableFees(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		want    string
	}{
		{"above rent reserve", rentExemptLamports + 2_000_000_000, "2"},
		{"exactly rent reserve", rentExemptLamports, "0"},
		{"below rent reserve", 100, "0"},
		{"empty", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc := &stubRPC{balance: tt.balance}
			client := NewClient(rpc, &stubSigner{}, "AmmProg111", nil)

			got, err := client.ClaimableFees(context.Background(), "vault1")
			if err != nil {
				t.Fatalf("ClaimableFees: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s SOL, got %s", tt.want, got)
			}
		})
	}
}

func TestClient_ClaimFees(t *testing.T) {
	rpc := &stubRPC{
		balance: rentExemptLamports + 1_500_000_000,
		statuses: []*solana.SignatureStatus{
			{ConfirmationStatus: "confirmed"},
		},
	}
	signer := &stubSigner{}
	client := NewClient(rpc, signer, "AmmProg111", nil)

	amount, sig, err := client.ClaimFees(context.Background(), "pool1", "vault1")
	if err != nil {
		t.Fatalf("ClaimFees: %v", err)
	}

	if !amount.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected 1.5 SOL claimed, got %s", amount)
	}
	if sig != "claimsig" {
		t.Errorf("expected claimsig, got %s", sig)
	}
	if rpc.sentTx != "signed:hash123" {
		t.Errorf("signed transaction not submitted: %q", rpc.sentTx)
	}
	if !strings.Contains(string(signer.signed), "pool1") ||
		!strings.Contains(string(signer.signed), "vault1") {
		t.Errorf("unsigned payload missing accounts: %s", signer.signed)
	}
}

func TestClient_ClaimFeesEmptyVault(t *testing.T) {
	rpc := &stubRPC{balance: 0}
	client := NewClient(rpc, &stubSigner{}, "AmmProg111", nil)

	_, _, err := client.ClaimFees(context.Background(), "pool1", "vault1")
	if err == nil {
		t.Fatal("expected error for empty vault")
	}
}

func TestClient_ClaimFeesOnChainFailure(t *testing.T) {
	rpc := &stubRPC{
		balance: rentExemptLamports + 1_000_000_000,
		statuses: []*solana.SignatureStatus{
			{ConfirmationStatus: "processed", Err: map[string]interface{}{"InstructionError": 0}},
		},
	}
	client := NewClient(rpc, &stubSigner{}, "AmmProg111", nil)

	_, _, err := client.ClaimFees(context.Background(), "pool1", "vault1")
	if err == nil {
		t.Fatal("expected error for failed transaction")
	}
	if rpc.statusCall != 1 {
		t.Errorf("on-chain failure must not be retried, got %d status calls", rpc.statusCall)
	}
}
