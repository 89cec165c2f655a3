package memory

import (
	"context"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// PoolConfigStore is an in-memory implementation of storage.PoolConfigStore.
type PoolConfigStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolConfig // keyed by pool address
}

// NewPoolConfigStore creates a new in-memory pool config store.
func NewPoolConfigStore() *PoolConfigStore {
	return &PoolConfigStore{
		data: make(map[string]*domain.PoolConfig),
	}
}

// Compile-time interface check.
var _ storage.PoolConfigStore = (*PoolConfigStore)(nil)

// Insert adds a new pool config. Returns ErrDuplicateKey if the pool exists.
func (s *PoolConfigStore) Insert(_ context.Context, c *domain.PoolConfig) error {
	if c == nil || c.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.PoolAddress]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *c
	s.data[c.PoolAddress] = &cp
	return nil
}

// GetByPool retrieves config by pool address.
func (s *PoolConfigStore) GetByPool(_ context.Context, poolAddress string) (*domain.PoolConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[poolAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *c
	return &cp, nil
}
