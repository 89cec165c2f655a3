package postgres

import (
	"context"
	"fmt"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (
			address, name, symbol, creator, creator_kind, price, market_cap,
			volume_24h, graduated, graduated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Address,
		t.Name,
		t.Symbol,
		t.Creator,
		string(t.CreatorKind),
		t.Price,
		t.MarketCap,
		t.Volume24h,
		t.Graduated,
		t.GraduatedAt,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByAddress retrieves a token by mint address.
func (s *TokenStore) GetByAddress(ctx context.Context, address string) (*domain.Token, error) {
	query := `
		SELECT address, name, symbol, creator, creator_kind, price, market_cap,
		       volume_24h, graduated, graduated_at, created_at
		FROM tokens
		WHERE address = $1
	`

	var t domain.Token
	var kind string
	err := s.pool.QueryRow(ctx, query, address).Scan(
		&t.Address,
		&t.Name,
		&t.Symbol,
		&t.Creator,
		&kind,
		&t.Price,
		&t.MarketCap,
		&t.Volume24h,
		&t.Graduated,
		&t.GraduatedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by address: %w", err)
	}

	t.CreatorKind = domain.CreatorKind(kind)
	return &t, nil
}

// UpdateMarketData persists the latest price, market cap and 24h volume.
func (s *TokenStore) UpdateMarketData(ctx context.Context, address string, price, marketCap, volume24h float64) error {
	query := `
		UPDATE tokens
		SET price = $2, market_cap = $3, volume_24h = $4
		WHERE address = $1
	`

	tag, err := s.pool.Exec(ctx, query, address, price, marketCap, volume24h)
	if err != nil {
		return fmt.Errorf("update token market data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkGraduated sets the graduated flag. The WHERE guard keeps the first
// graduation timestamp on redelivery.
func (s *TokenStore) MarkGraduated(ctx context.Context, address string, graduatedAt int64) error {
	query := `
		UPDATE tokens
		SET graduated = TRUE, graduated_at = $2
		WHERE address = $1 AND graduated = FALSE
	`

	tag, err := s.pool.Exec(ctx, query, address, graduatedAt)
	if err != nil {
		return fmt.Errorf("mark token graduated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already graduated (fine) or unknown token.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tokens WHERE address = $1)`, address).Scan(&exists); err != nil {
			return fmt.Errorf("check token exists: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
	}
	return nil
}
