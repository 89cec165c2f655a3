package clickhouse

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// PriceTickStore implements storage.PriceTickStore using ClickHouse.
// Ticks are an analytics sink: writes are best-effort from the indexing
// path and never gate reconciliation.
type PriceTickStore struct {
	conn *Conn
}

// NewPriceTickStore creates a new PriceTickStore.
func NewPriceTickStore(conn *Conn) *PriceTickStore {
	return &PriceTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// Insert adds one price tick.
func (s *PriceTickStore) Insert(ctx context.Context, tick *domain.PriceTick) error {
	if tick == nil || tick.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_ticks (token_address, timestamp_ms, slot, price, volume_sol)
		VALUES (?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		tick.TokenAddress,
		tick.TimestampMs,
		tick.Slot,
		tick.Price,
		tick.VolumeSol,
	)
	if err != nil {
		return fmt.Errorf("insert price tick: %w", err)
	}
	return nil
}

// GetByTokenRange retrieves ticks for a token within [start, end] inclusive,
// ordered by timestamp ASC.
func (s *PriceTickStore) GetByTokenRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.PriceTick, error) {
	query := `
		SELECT token_address, timestamp_ms, slot, price, volume_sol
		FROM price_ticks
		WHERE token_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress, start, end)
	if err != nil {
		return nil, fmt.Errorf("get price ticks: %w", err)
	}
	defer rows.Close()

	var ticks []*domain.PriceTick
	for rows.Next() {
		var t domain.PriceTick
		if err := rows.Scan(&t.TokenAddress, &t.TimestampMs, &t.Slot, &t.Price, &t.VolumeSol); err != nil {
			return nil, fmt.Errorf("scan price tick: %w", err)
		}
		ticks = append(ticks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price ticks: %w", err)
	}
	return ticks, nil
}
