package rewards

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
	"launchpad-indexer/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// goodWallet returns the base58 encoding of the ed25519 base point, a
// canonical on-curve key.
func goodWallet() string {
	b := make([]byte, 32)
	b[0] = 0x58
	for i := 1; i < 32; i++ {
		b[i] = 0x66
	}
	return base58.Encode(b)
}

type stubPayout struct {
	mu      sync.Mutex
	fail    bool
	wallets []string
	amounts []decimal.Decimal
}

func (p *stubPayout) Payout(ctx context.Context, wallet string, amount decimal.Decimal) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", errors.New("transfer rejected")
	}
	p.wallets = append(p.wallets, wallet)
	p.amounts = append(p.amounts, amount)
	return "payout-sig", nil
}

type serviceFixture struct {
	rewards *memory.CreatorRewardStore
	vaults  *memory.FeeVaultStore
	payout  *stubPayout
	svc     *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	rewards := memory.NewCreatorRewardStore()
	f := &serviceFixture{
		rewards: rewards,
		vaults:  memory.NewFeeVaultStore(rewards),
		payout:  &stubPayout{},
	}
	f.svc = NewService(rewards, f.payout, nil, nil)
	return f
}

// accrue credits one reward via a vault claim, the production write path.
func (f *serviceFixture) accrue(t *testing.T, creator, pool, amount string) {
	t.Helper()
	ctx := context.Background()

	_ = f.vaults.Insert(ctx, &domain.FeeVault{
		PoolAddress:  pool,
		VaultAddress: "vault-" + pool,
		TokenAddress: "mint-" + pool,
		Collected:    decimal.Zero,
		Claimed:      decimal.Zero,
		Unclaimed:    decimal.Zero,
		CreatedAt:    time.Now().UnixMilli(),
	})

	err := f.vaults.ApplyClaim(ctx, &storage.ClaimSettlement{
		PoolAddress: pool,
		Amount:      dec(amount).Mul(dec("2")),
		Signature:   "claim-" + pool,
		ClaimedAt:   time.Now().UnixMilli(),
		Reward: &storage.RewardAccrual{
			Creator:       creator,
			CreatorWallet: goodWallet(),
			TokenAddress:  "mint-" + pool,
			SharePercent:  dec("50"),
			Amount:        dec(amount),
		},
	})
	if err != nil {
		t.Fatalf("accrue via claim: %v", err)
	}
}

func TestValidateWallet(t *testing.T) {
	if err := ValidateWallet(goodWallet()); err != nil {
		t.Errorf("canonical key rejected: %v", err)
	}

	bad := []string{
		"",
		"abc",
		"0OIl-not-base58",
		base58.Encode(make([]byte, 16)), // wrong length
	}
	for _, w := range bad {
		if err := ValidateWallet(w); !errors.Is(err, ErrInvalidWallet) {
			t.Errorf("ValidateWallet(%q) = %v, want ErrInvalidWallet", w, err)
		}
	}

	// 32 bytes above the field prime are non-canonical.
	nonCanonical := make([]byte, 32)
	for i := range nonCanonical {
		nonCanonical[i] = 0xff
	}
	if err := ValidateWallet(base58.Encode(nonCanonical)); !errors.Is(err, ErrInvalidWallet) {
		t.Errorf("non-canonical key accepted: %v", err)
	}
}

func TestService_Summary(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")
	f.accrue(t, "bot-1", "pool2", "0.2")
	f.accrue(t, "bot-2", "pool3", "9.9")

	summary, err := f.svc.Summary(ctx, "bot-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.PoolCount != 2 {
		t.Errorf("expected 2 pools, got %d", summary.PoolCount)
	}
	if !summary.TotalEarned.Equal(dec("0.5")) {
		t.Errorf("expected total 0.5, got %s", summary.TotalEarned)
	}
	if !summary.Unclaimed.Equal(dec("0.5")) {
		t.Errorf("expected unclaimed 0.5, got %s", summary.Unclaimed)
	}
	if !summary.Claimed.IsZero() {
		t.Errorf("expected claimed 0, got %s", summary.Claimed)
	}
}

func TestService_Claim(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")
	f.accrue(t, "bot-1", "pool2", "0.2")

	result, err := f.svc.Claim(ctx, "bot-1", goodWallet())
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if !result.Amount.Equal(dec("0.5")) {
		t.Errorf("expected 0.5 paid, got %s", result.Amount)
	}
	if result.Pools != 2 || result.Signature != "payout-sig" {
		t.Errorf("unexpected result %+v", result)
	}
	if len(f.payout.amounts) != 1 || !f.payout.amounts[0].Equal(dec("0.5")) {
		t.Errorf("unexpected payout calls %+v", f.payout.amounts)
	}

	summary, err := f.svc.Summary(ctx, "bot-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !summary.Unclaimed.IsZero() {
		t.Errorf("expected unclaimed 0 after claim, got %s", summary.Unclaimed)
	}
	if !summary.Claimed.Equal(dec("0.5")) {
		t.Errorf("expected claimed 0.5, got %s", summary.Claimed)
	}
}

func TestService_ClaimTwiceFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")

	if _, err := f.svc.Claim(ctx, "bot-1", goodWallet()); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := f.svc.Claim(ctx, "bot-1", goodWallet()); !errors.Is(err, ErrNoUnclaimedRewards) {
		t.Errorf("second claim: expected ErrNoUnclaimedRewards, got %v", err)
	}
}

func TestService_ClaimBelowMinimum(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.005")

	_, err := f.svc.Claim(ctx, "bot-1", goodWallet())
	if !errors.Is(err, ErrAmountBelowMinimum) {
		t.Fatalf("expected ErrAmountBelowMinimum, got %v", err)
	}
	if len(f.payout.amounts) != 0 {
		t.Error("no payout may be attempted below the minimum")
	}

	// Balance untouched.
	summary, _ := f.svc.Summary(ctx, "bot-1")
	if !summary.Unclaimed.Equal(dec("0.005")) {
		t.Errorf("reward row mutated on rejected claim: %s", summary.Unclaimed)
	}
}

func TestService_ClaimNoRewards(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Claim(context.Background(), "bot-none", goodWallet())
	if !errors.Is(err, ErrNoUnclaimedRewards) {
		t.Fatalf("expected ErrNoUnclaimedRewards, got %v", err)
	}
}

func TestService_ClaimInvalidWallet(t *testing.T) {
	f := newServiceFixture(t)
	f.accrue(t, "bot-1", "pool1", "0.3")

	_, err := f.svc.Claim(context.Background(), "bot-1", "not-a-wallet")
	if !errors.Is(err, ErrInvalidWallet) {
		t.Fatalf("expected ErrInvalidWallet, got %v", err)
	}
}

func TestService_ClaimPool(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")
	f.accrue(t, "bot-1", "pool2", "0.2")

	result, err := f.svc.ClaimPool(ctx, "bot-1", "pool1", goodWallet())
	if err != nil {
		t.Fatalf("ClaimPool: %v", err)
	}
	if !result.Amount.Equal(dec("0.3")) || result.Pools != 1 {
		t.Errorf("unexpected result %+v", result)
	}

	// The other pool's balance survives.
	summary, _ := f.svc.Summary(ctx, "bot-1")
	if !summary.Unclaimed.Equal(dec("0.2")) {
		t.Errorf("expected 0.2 still unclaimed, got %s", summary.Unclaimed)
	}
}

func TestService_PayoutFailureLeavesRows(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")
	f.payout.fail = true

	if _, err := f.svc.Claim(ctx, "bot-1", goodWallet()); err == nil {
		t.Fatal("expected claim failure")
	}

	summary, _ := f.svc.Summary(ctx, "bot-1")
	if !summary.Unclaimed.Equal(dec("0.3")) {
		t.Errorf("failed payout must not settle rows, unclaimed=%s", summary.Unclaimed)
	}
}

func TestService_Leaderboard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.accrue(t, "bot-1", "pool1", "0.3")
	f.accrue(t, "bot-1", "pool2", "0.4")
	f.accrue(t, "bot-2", "pool3", "0.5")

	entries, err := f.svc.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Creator != "bot-1" || !entries[0].TotalEarned.Equal(dec("0.7")) {
		t.Errorf("unexpected leader %+v", entries[0])
	}
	if entries[0].PoolCount != 2 {
		t.Errorf("expected 2 pools for leader, got %d", entries[0].PoolCount)
	}
}
