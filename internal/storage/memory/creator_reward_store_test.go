package memory

import (
	"context"
	"errors"
	"testing"

	"launchpad-indexer/internal/storage"
)

// seedReward accrues one reward row via the vault settlement path and
// returns its id.
func seedReward(t *testing.T, rewards *CreatorRewardStore, creator, pool, amount string) int64 {
	t.Helper()

	rewards.accrue(pool, &storage.RewardAccrual{
		Creator:      creator,
		TokenAddress: "Mint-" + pool,
		SharePercent: dec("50"),
		Amount:       dec(amount),
	}, 1000)

	r, err := rewards.GetByCreatorAndPool(context.Background(), creator, pool)
	if err != nil {
		t.Fatalf("seeded reward missing: %v", err)
	}
	return r.ID
}

func TestCreatorRewardStore_AccrueAccumulates(t *testing.T) {
	rewards := NewCreatorRewardStore()
	ctx := context.Background()

	seedReward(t, rewards, "bot-1", "P1", "0.3")
	seedReward(t, rewards, "bot-1", "P1", "0.2")

	r, err := rewards.GetByCreatorAndPool(ctx, "bot-1", "P1")
	if err != nil {
		t.Fatalf("GetByCreatorAndPool failed: %v", err)
	}
	if !r.LifetimeEarned.Equal(dec("0.5")) {
		t.Errorf("LifetimeEarned: got %s, want 0.5", r.LifetimeEarned)
	}
	if !r.Unclaimed.Equal(dec("0.5")) {
		t.Errorf("Unclaimed: got %s, want 0.5", r.Unclaimed)
	}
	if !r.ClaimedAmount.Add(r.Unclaimed).Equal(r.LifetimeEarned) {
		t.Error("claimed + unclaimed must equal lifetime earned")
	}
}

func TestCreatorRewardStore_SettleClaim(t *testing.T) {
	rewards := NewCreatorRewardStore()
	ctx := context.Background()

	id1 := seedReward(t, rewards, "bot-1", "P1", "0.3")
	id2 := seedReward(t, rewards, "bot-1", "P2", "0.7")

	if err := rewards.SettleClaim(ctx, "bot-1", []int64{id1, id2}, "paysig", 9000); err != nil {
		t.Fatalf("SettleClaim failed: %v", err)
	}

	rows, _ := rewards.GetByCreator(ctx, "bot-1")
	for _, r := range rows {
		if !r.Claimed {
			t.Errorf("row %d not marked claimed", r.ID)
		}
		if !r.Unclaimed.IsZero() {
			t.Errorf("row %d unclaimed not zeroed: %s", r.ID, r.Unclaimed)
		}
		if !r.ClaimedAmount.Equal(r.LifetimeEarned) {
			t.Errorf("row %d claimed amount %s != lifetime %s", r.ID, r.ClaimedAmount, r.LifetimeEarned)
		}
		if r.LastClaimSig == nil || *r.LastClaimSig != "paysig" {
			t.Errorf("row %d missing settlement signature", r.ID)
		}
	}

	unclaimed, _ := rewards.GetUnclaimedByCreator(ctx, "bot-1")
	if len(unclaimed) != 0 {
		t.Errorf("expected no unclaimed rows after settlement, got %d", len(unclaimed))
	}
}

func TestCreatorRewardStore_SettleClaim_AlreadyClaimed(t *testing.T) {
	rewards := NewCreatorRewardStore()
	ctx := context.Background()

	id1 := seedReward(t, rewards, "bot-1", "P1", "0.3")
	id2 := seedReward(t, rewards, "bot-1", "P2", "0.7")

	if err := rewards.SettleClaim(ctx, "bot-1", []int64{id1}, "sig1", 9000); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}

	// Including an already-claimed row must settle nothing.
	err := rewards.SettleClaim(ctx, "bot-1", []int64{id1, id2}, "sig2", 9500)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}

	r2, _ := rewards.GetByCreatorAndPool(ctx, "bot-1", "P2")
	if r2.Claimed || !r2.Unclaimed.Equal(dec("0.7")) {
		t.Errorf("conflicting settlement mutated row P2: %+v", r2)
	}
}

func TestCreatorRewardStore_SettleClaim_WrongCreator(t *testing.T) {
	rewards := NewCreatorRewardStore()
	ctx := context.Background()

	id := seedReward(t, rewards, "bot-1", "P1", "0.3")

	err := rewards.SettleClaim(ctx, "bot-2", []int64{id}, "sig", 9000)
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("Expected ErrConflict for foreign row, got %v", err)
	}
}

func TestCreatorRewardStore_Leaderboard(t *testing.T) {
	rewards := NewCreatorRewardStore()
	ctx := context.Background()

	seedReward(t, rewards, "bot-1", "P1", "0.3")
	seedReward(t, rewards, "bot-1", "P2", "0.2")
	seedReward(t, rewards, "bot-2", "P3", "1.0")
	seedReward(t, rewards, "bot-3", "P4", "0.1")

	top, err := rewards.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(top))
	}
	if top[0].Creator != "bot-2" || !top[0].TotalEarned.Equal(dec("1.0")) {
		t.Errorf("top entry mismatch: %+v", top[0])
	}
	if top[1].Creator != "bot-1" || top[1].PoolCount != 2 {
		t.Errorf("second entry mismatch: %+v", top[1])
	}
}
