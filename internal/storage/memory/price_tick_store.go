package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// PriceTickStore is an in-memory implementation of storage.PriceTickStore.
type PriceTickStore struct {
	mu   sync.RWMutex
	data []*domain.PriceTick
}

// NewPriceTickStore creates a new in-memory price tick store.
func NewPriceTickStore() *PriceTickStore {
	return &PriceTickStore{}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// Insert adds one price tick.
func (s *PriceTickStore) Insert(_ context.Context, tick *domain.PriceTick) error {
	if tick == nil || tick.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tick
	s.data = append(s.data, &cp)
	return nil
}

// GetByTokenRange retrieves ticks for a token within [start, end] inclusive.
func (s *PriceTickStore) GetByTokenRange(_ context.Context, tokenAddress string, start, end int64) ([]*domain.PriceTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PriceTick
	for _, t := range s.data {
		if t.TokenAddress == tokenAddress && t.TimestampMs >= start && t.TimestampMs <= end {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}
