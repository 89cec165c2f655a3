// Package fees runs the periodic fee vault sweep and the split of claimed
// fees between platform and creators.
package fees

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

// Defaults for the sweep schedule and claim threshold.
const (
	DefaultSweepInterval  = time.Hour
	DefaultClaimCooldown  = time.Hour
	DefaultMaxConcurrency = 4
)

// MinClaimAmount is the smallest vault balance worth claiming, in SOL.
var MinClaimAmount = decimal.RequireFromString("0.01")

// Claimer executes the on-chain side of a vault claim.
type Claimer interface {
	// ClaimableFees returns the vault's claimable balance in SOL.
	ClaimableFees(ctx context.Context, vaultAddress string) (decimal.Decimal, error)

	// ClaimFees claims the balance, returning the amount and signature.
	ClaimFees(ctx context.Context, poolAddress, vaultAddress string) (decimal.Decimal, string, error)
}

// Summary reports one sweep's outcome.
type Summary struct {
	Processed   int             // vaults examined
	Claimed     int             // vaults with a successful claim
	TotalAmount decimal.Decimal // SOL claimed across the sweep
}

// ManagerConfig wires the sweep's collaborators.
type ManagerConfig struct {
	Vaults  storage.FeeVaultStore
	Pools   storage.PoolConfigStore
	Claimer Claimer

	Metrics *observability.Metrics
	Logger  *zap.Logger

	// SweepInterval is the period between scheduled sweeps.
	SweepInterval time.Duration
	// ClaimCooldown is the minimum age of a vault's last claim before it
	// is due again.
	ClaimCooldown time.Duration
	// MaxConcurrency bounds parallel vault claims within one sweep.
	MaxConcurrency int
}

// Manager owns the hourly fee sweep. Sweeps never overlap: a tick that
// fires while a sweep is still running is skipped and logged.
type Manager struct {
	cfg    ManagerConfig
	logger *zap.Logger

	inFlight atomic.Bool
	runID    atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewManager creates a fee sweep manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.ClaimCooldown <= 0 {
		cfg.ClaimCooldown = DefaultClaimCooldown
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("fees"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run drives scheduled sweeps until the context is cancelled or Stop is
// called. Blocks; callers run it in a goroutine.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Error("scheduled sweep failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the schedule loop and waits for it to exit. An in-progress
// sweep finishes its vaults first.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// ErrSweepInProgress is returned when a sweep is requested while one is
// already running.
var ErrSweepInProgress = errors.New("fee sweep already in progress")

// Sweep claims fees from every due vault once. Per-vault failures are
// logged and counted, never propagated; the returned error covers only
// the listing of due vaults or an overlapping sweep.
func (m *Manager) Sweep(ctx context.Context) (Summary, error) {
	if m.inFlight.Swap(true) {
		m.logger.Warn("sweep tick skipped, previous sweep still running")
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.SweepRunsTotal.WithLabelValues("skipped").Inc()
		}
		return Summary{TotalAmount: decimal.Zero}, ErrSweepInProgress
	}
	defer m.inFlight.Store(false)

	runID := m.runID.Add(1)
	logger := m.logger.With(zap.Uint64("run_id", runID))
	start := time.Now()

	cutoff := time.Now().Add(-m.cfg.ClaimCooldown).UnixMilli()
	due, err := m.cfg.Vaults.ListDue(ctx, cutoff)
	if err != nil {
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		}
		return Summary{TotalAmount: decimal.Zero}, err
	}

	logger.Info("sweep started", zap.Int("due_vaults", len(due)))

	var (
		mu      sync.Mutex
		claimed int
		total   = decimal.Zero
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrency)

	for _, vault := range due {
		vault := vault
		g.Go(func() error {
			amount, err := m.processVault(gctx, logger, vault)
			if err != nil {
				// Vault failures stay inside the sweep.
				logger.Error("vault claim failed",
					zap.String("pool", vault.PoolAddress),
					zap.Error(err))
				if m.cfg.Metrics != nil {
					m.cfg.Metrics.VaultClaimErrors.Inc()
				}
				return nil
			}
			if amount.IsPositive() {
				mu.Lock()
				claimed++
				total = total.Add(amount)
				mu.Unlock()
			}
			return nil
		})
	}
	// Vault errors are swallowed above; Wait only flushes the group.
	_ = g.Wait()

	summary := Summary{
		Processed:   len(due),
		Claimed:     claimed,
		TotalAmount: total,
	}

	logger.Info("sweep finished",
		zap.Int("processed", summary.Processed),
		zap.Int("claimed", summary.Claimed),
		zap.String("total_sol", summary.TotalAmount.String()),
		zap.Duration("elapsed", time.Since(start)))

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
		m.cfg.Metrics.SweepDuration.Observe(time.Since(start).Seconds())
		claimedFloat, _ := total.Float64()
		m.cfg.Metrics.SolClaimed.Add(claimedFloat)
	}

	return summary, nil
}

// processVault claims one vault. Returns the claimed amount, zero when the
// vault is skipped below the threshold.
func (m *Manager) processVault(ctx context.Context, logger *zap.Logger, vault *domain.FeeVault) (decimal.Decimal, error) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.VaultsProcessed.Inc()
	}

	claimable, err := m.cfg.Claimer.ClaimableFees(ctx, vault.VaultAddress)
	if err != nil {
		return decimal.Zero, err
	}

	if claimable.LessThan(MinClaimAmount) {
		logger.Debug("vault below claim threshold",
			zap.String("pool", vault.PoolAddress),
			zap.String("claimable_sol", claimable.String()))
		return decimal.Zero, nil
	}

	amount, sig, err := m.cfg.Claimer.ClaimFees(ctx, vault.PoolAddress, vault.VaultAddress)
	if err != nil {
		return decimal.Zero, err
	}

	settlement := &storage.ClaimSettlement{
		PoolAddress: vault.PoolAddress,
		Amount:      amount,
		Signature:   sig,
		ClaimedAt:   time.Now().UnixMilli(),
	}

	pool, err := m.cfg.Pools.GetByPool(ctx, vault.PoolAddress)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, err
	}
	settlement.Reward = Distribute(amount, pool)

	if err := m.cfg.Vaults.ApplyClaim(ctx, settlement); err != nil {
		return decimal.Zero, err
	}

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.VaultClaims.Inc()
		if settlement.Reward != nil {
			m.cfg.Metrics.RewardsDistributed.Inc()
		}
	}

	return amount, nil
}
