package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// CreatorRewardStore is an in-memory implementation of storage.CreatorRewardStore.
type CreatorRewardStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.CreatorReward
	byPair map[string]int64 // "creator|pool" -> id
	nextID int64
}

// NewCreatorRewardStore creates a new in-memory creator reward store.
func NewCreatorRewardStore() *CreatorRewardStore {
	return &CreatorRewardStore{
		data:   make(map[int64]*domain.CreatorReward),
		byPair: make(map[string]int64),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.CreatorRewardStore = (*CreatorRewardStore)(nil)

func pairKey(creator, pool string) string {
	return creator + "|" + pool
}

// accrue finds-or-creates the (creator, pool) row and credits the share to
// both lifetime earned and unclaimed. Called by FeeVaultStore.ApplyClaim.
func (s *CreatorRewardStore) accrue(poolAddress string, a *storage.RewardAccrual, nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(a.Creator, poolAddress)
	if id, ok := s.byPair[key]; ok {
		r := s.data[id]
		r.LifetimeEarned = r.LifetimeEarned.Add(a.Amount)
		r.Unclaimed = r.Unclaimed.Add(a.Amount)
		r.Claimed = false
		r.UpdatedAt = nowMs
		return
	}

	id := s.nextID
	s.nextID++
	s.data[id] = &domain.CreatorReward{
		ID:             id,
		Creator:        a.Creator,
		CreatorWallet:  a.CreatorWallet,
		PoolAddress:    poolAddress,
		TokenAddress:   a.TokenAddress,
		LifetimeEarned: a.Amount,
		ClaimedAmount:  decimal.Zero,
		Unclaimed:      a.Amount,
		SharePercent:   a.SharePercent,
		Claimed:        false,
		CreatedAt:      nowMs,
		UpdatedAt:      nowMs,
	}
	s.byPair[key] = id
}

// GetByCreator retrieves every reward row for a creator, ordered by pool.
func (s *CreatorRewardStore) GetByCreator(_ context.Context, creator string) ([]*domain.CreatorReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.CreatorReward
	for _, r := range s.data {
		if r.Creator == creator {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PoolAddress < out[j].PoolAddress })
	return out, nil
}

// GetUnclaimedByCreator retrieves unsettled rows with a positive balance.
func (s *CreatorRewardStore) GetUnclaimedByCreator(_ context.Context, creator string) ([]*domain.CreatorReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.CreatorReward
	for _, r := range s.data {
		if r.Creator == creator && !r.Claimed && r.Unclaimed.IsPositive() {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PoolAddress < out[j].PoolAddress })
	return out, nil
}

// GetByCreatorAndPool retrieves the reward row for one (creator, pool) pair.
func (s *CreatorRewardStore) GetByCreatorAndPool(_ context.Context, creator, poolAddress string) (*domain.CreatorReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(creator, poolAddress)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *s.data[id]
	return &cp, nil
}

// SettleClaim marks the given rows claimed. Fails with ErrConflict if any
// row is missing, belongs to another creator, or was already claimed.
func (s *CreatorRewardStore) SettleClaim(_ context.Context, creator string, ids []int64, signature string, claimedAtMs int64) error {
	if len(ids) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every row before mutating any, so a conflict settles nothing.
	for _, id := range ids {
		r, ok := s.data[id]
		if !ok || r.Creator != creator || r.Claimed {
			return storage.ErrConflict
		}
	}

	for _, id := range ids {
		r := s.data[id]
		r.ClaimedAmount = r.ClaimedAmount.Add(r.Unclaimed)
		r.Unclaimed = decimal.Zero
		r.Claimed = true
		sig := signature
		r.LastClaimSig = &sig
		ts := claimedAtMs
		r.LastClaimAt = &ts
		r.UpdatedAt = claimedAtMs
	}
	return nil
}

// Leaderboard returns the top creators by lifetime earnings.
func (s *CreatorRewardStore) Leaderboard(_ context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCreator := make(map[string]*domain.LeaderboardEntry)
	for _, r := range s.data {
		e, ok := byCreator[r.Creator]
		if !ok {
			e = &domain.LeaderboardEntry{
				Creator:       r.Creator,
				CreatorWallet: r.CreatorWallet,
				TotalEarned:   decimal.Zero,
			}
			byCreator[r.Creator] = e
		}
		e.TotalEarned = e.TotalEarned.Add(r.LifetimeEarned)
		e.PoolCount++
	}

	out := make([]*domain.LeaderboardEntry, 0, len(byCreator))
	for _, e := range byCreator {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TotalEarned.Equal(out[j].TotalEarned) {
			return out[i].TotalEarned.GreaterThan(out[j].TotalEarned)
		}
		return out[i].Creator < out[j].Creator
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
