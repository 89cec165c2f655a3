package memory

import (
	"context"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by mint address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Address]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *t
	s.data[t.Address] = &cp
	return nil
}

// GetByAddress retrieves a token by mint address.
func (s *TokenStore) GetByAddress(_ context.Context, address string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := *t
	return &cp, nil
}

// UpdateMarketData persists the latest price, market cap and 24h volume.
func (s *TokenStore) UpdateMarketData(_ context.Context, address string, price, marketCap, volume24h float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.data[address]
	if !ok {
		return storage.ErrNotFound
	}

	t.Price = price
	t.MarketCap = marketCap
	t.Volume24h = volume24h
	return nil
}

// MarkGraduated sets the graduated flag and timestamp, keeping the original
// timestamp if the token already graduated.
func (s *TokenStore) MarkGraduated(_ context.Context, address string, graduatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.data[address]
	if !ok {
		return storage.ErrNotFound
	}

	if t.Graduated {
		return nil
	}

	t.Graduated = true
	t.GraduatedAt = &graduatedAt
	return nil
}
