package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// FeeVaultStore is an in-memory implementation of storage.FeeVaultStore.
// It holds a reference to the creator reward store so ApplyClaim can credit
// the creator share together with the vault mutation, mirroring the single
// transaction the Postgres implementation uses.
type FeeVaultStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.FeeVault // keyed by pool address
	rewards *CreatorRewardStore
}

// NewFeeVaultStore creates a new in-memory fee vault store.
func NewFeeVaultStore(rewards *CreatorRewardStore) *FeeVaultStore {
	return &FeeVaultStore{
		data:    make(map[string]*domain.FeeVault),
		rewards: rewards,
	}
}

// Compile-time interface check.
var _ storage.FeeVaultStore = (*FeeVaultStore)(nil)

// Insert adds a new vault. Returns ErrDuplicateKey if the pool exists.
func (s *FeeVaultStore) Insert(_ context.Context, v *domain.FeeVault) error {
	if v == nil || v.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[v.PoolAddress]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *v
	s.data[v.PoolAddress] = &cp
	return nil
}

// GetByPool retrieves a vault by pool address.
func (s *FeeVaultStore) GetByPool(_ context.Context, poolAddress string) (*domain.FeeVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[poolAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *v
	return &cp, nil
}

// ListDue returns vaults never claimed or last claimed before olderThanMs.
func (s *FeeVaultStore) ListDue(_ context.Context, olderThanMs int64) ([]*domain.FeeVault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FeeVault
	for _, v := range s.data {
		if v.LastClaimAt == nil || *v.LastClaimAt < olderThanMs {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PoolAddress < out[j].PoolAddress })
	return out, nil
}

// ApplyClaim records a successful claim and credits the creator share under
// the vault lock, so a reader never observes the vault claimed without the
// reward credited.
func (s *FeeVaultStore) ApplyClaim(_ context.Context, set *storage.ClaimSettlement) error {
	if set == nil || set.PoolAddress == "" || !set.Amount.IsPositive() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[set.PoolAddress]
	if !ok {
		return storage.ErrNotFound
	}

	// lastClaimAt only advances
	if v.LastClaimAt != nil && set.ClaimedAt < *v.LastClaimAt {
		return storage.ErrConflict
	}

	v.Claimed = v.Claimed.Add(set.Amount)
	// Collected tracks what was observed in the vault; a claim larger than
	// the recorded unclaimed balance means fees accrued since the last look.
	if v.Collected.LessThan(v.Claimed) {
		v.Collected = v.Claimed
	}
	v.Unclaimed = decimal.Zero
	ts := set.ClaimedAt
	v.LastClaimAt = &ts
	v.ClaimCount++

	if set.Reward != nil {
		s.rewards.accrue(set.PoolAddress, set.Reward, set.ClaimedAt)
	}
	return nil
}
