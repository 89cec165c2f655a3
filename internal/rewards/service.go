// Package rewards serves creator reward balances and executes payouts.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

// Expected, user-visible claim failures.
var (
	ErrNoUnclaimedRewards = errors.New("no unclaimed rewards")
	ErrAmountBelowMinimum = errors.New("amount below minimum claim")
)

// MinPayout is the smallest reward balance that can be paid out, in SOL.
var MinPayout = decimal.RequireFromString("0.01")

// Summary aggregates one creator's reward state.
type Summary struct {
	Creator     string
	TotalEarned decimal.Decimal
	Claimed     decimal.Decimal
	Unclaimed   decimal.Decimal
	PoolCount   int
	Rewards     []*domain.CreatorReward
}

// ClaimResult reports one settled payout.
type ClaimResult struct {
	Amount    decimal.Decimal
	Signature string
	Pools     int
}

// Service answers reward queries and settles claims.
type Service struct {
	store   storage.CreatorRewardStore
	payout  PayoutExecutor
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a reward service.
func NewService(store storage.CreatorRewardStore, payout PayoutExecutor, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		payout:  payout,
		metrics: metrics,
		logger:  logger.Named("rewards"),
	}
}

// Summary returns the creator's lifetime, claimed and unclaimed balances
// across every pool.
func (s *Service) Summary(ctx context.Context, creator string) (*Summary, error) {
	rows, err := s.store.GetByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}

	summary := &Summary{
		Creator:     creator,
		TotalEarned: decimal.Zero,
		Claimed:     decimal.Zero,
		Unclaimed:   decimal.Zero,
		PoolCount:   len(rows),
		Rewards:     rows,
	}
	for _, r := range rows {
		summary.TotalEarned = summary.TotalEarned.Add(r.LifetimeEarned)
		summary.Claimed = summary.Claimed.Add(r.ClaimedAmount)
		summary.Unclaimed = summary.Unclaimed.Add(r.Unclaimed)
	}
	return summary, nil
}

// Claim pays the creator's entire unclaimed balance to the given wallet
// and settles every included reward row. Rows already settled at read time
// are never included twice.
func (s *Service) Claim(ctx context.Context, creator, wallet string) (*ClaimResult, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}

	rows, err := s.store.GetUnclaimedByCreator(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("load unclaimed rewards: %w", err)
	}
	return s.settle(ctx, creator, wallet, rows)
}

// ClaimPool pays out a single pool's reward row.
func (s *Service) ClaimPool(ctx context.Context, creator, poolAddress, wallet string) (*ClaimResult, error) {
	if err := ValidateWallet(wallet); err != nil {
		return nil, err
	}

	row, err := s.store.GetByCreatorAndPool(ctx, creator, poolAddress)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoUnclaimedRewards
		}
		return nil, fmt.Errorf("load reward: %w", err)
	}
	if row.Claimed || !row.Unclaimed.IsPositive() {
		return nil, ErrNoUnclaimedRewards
	}
	return s.settle(ctx, creator, wallet, []*domain.CreatorReward{row})
}

func (s *Service) settle(ctx context.Context, creator, wallet string, rows []*domain.CreatorReward) (*ClaimResult, error) {
	if len(rows) == 0 {
		return nil, ErrNoUnclaimedRewards
	}

	total := decimal.Zero
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		total = total.Add(r.Unclaimed)
		ids = append(ids, r.ID)
	}

	if total.LessThan(MinPayout) {
		return nil, ErrAmountBelowMinimum
	}

	sig, err := s.payout.Payout(ctx, wallet, total)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PayoutErrors.Inc()
		}
		return nil, fmt.Errorf("execute payout: %w", err)
	}

	if err := s.store.SettleClaim(ctx, creator, ids, sig, time.Now().UnixMilli()); err != nil {
		// Paid but not settled; surface loudly for manual reconciliation.
		s.logger.Error("payout sent but settlement failed",
			zap.String("creator", creator),
			zap.String("signature", sig),
			zap.Error(err))
		return nil, fmt.Errorf("settle claim after payout %s: %w", sig, err)
	}

	if s.metrics != nil {
		s.metrics.PayoutsSettled.Inc()
	}
	s.logger.Info("rewards claimed",
		zap.String("creator", creator),
		zap.String("wallet", wallet),
		zap.String("amount_sol", total.String()),
		zap.Int("pools", len(rows)),
		zap.String("signature", sig))

	return &ClaimResult{
		Amount:    total,
		Signature: sig,
		Pools:     len(rows),
	}, nil
}

// Leaderboard returns the top creators by lifetime earnings.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.store.Leaderboard(ctx, limit)
}
