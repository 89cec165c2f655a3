// Package indexer applies parsed chain events to the ledger.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/broadcast"
	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

// volumeWindow is the rolling window recomputed on every trade.
const volumeWindow = 24 * time.Hour

// Config wires the reconciler's collaborators.
type Config struct {
	Tokens storage.TokenStore
	Trades storage.TradeStore
	Vaults storage.FeeVaultStore
	Pools  storage.PoolConfigStore
	// Ticks is the analytics sink; nil disables tick writes.
	Ticks storage.PriceTickStore

	Hub     *broadcast.Hub
	Metrics *observability.Metrics
	Logger  *zap.Logger

	// FeeBps is the platform fee in basis points applied to trade volume.
	FeeBps int64
	// DefaultSharePercent is the creator revenue share recorded for new pools.
	DefaultSharePercent decimal.Decimal
}

// Reconciler consumes parsed events and applies them to the ledger store,
// idempotently per event, then notifies realtime observers.
type Reconciler struct {
	cfg    Config
	logger *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		cfg:    cfg,
		logger: logger.Named("reconciler"),
	}
}

// ApplyBatch applies every event from one transaction in order. A single
// event's failure is logged and does not stop the rest of the batch.
func (r *Reconciler) ApplyBatch(ctx context.Context, events []domain.Event) {
	for _, ev := range events {
		if err := r.Apply(ctx, ev); err != nil {
			r.logger.Error("event application failed",
				zap.String("kind", string(ev.Kind())),
				zap.String("signature", ev.TxSignature()),
				zap.Error(err))
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.EventApplyErrors.WithLabelValues(string(ev.Kind())).Inc()
			}
		}
	}
}

// Apply applies one event.
func (r *Reconciler) Apply(ctx context.Context, ev domain.Event) error {
	start := time.Now()

	var err error
	switch e := ev.(type) {
	case *domain.TokenCreatedEvent:
		err = r.applyTokenCreated(ctx, e)
	case *domain.TradeEvent:
		err = r.applyTrade(ctx, e)
	case *domain.GraduationEvent:
		err = r.applyGraduation(ctx, e)
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}

	if err == nil && r.cfg.Metrics != nil {
		r.cfg.Metrics.EventsApplied.WithLabelValues(string(ev.Kind())).Inc()
		r.cfg.Metrics.EventApplyLatency.WithLabelValues(string(ev.Kind())).
			Observe(time.Since(start).Seconds())
	}
	return err
}

// applyTokenCreated inserts the token plus its fee vault and pool config,
// then announces it. A token that already exists makes the whole event a
// no-op.
func (r *Reconciler) applyTokenCreated(ctx context.Context, ev *domain.TokenCreatedEvent) error {
	now := time.Now().UnixMilli()

	token := &domain.Token{
		Address:     ev.TokenAddress,
		Name:        ev.Name,
		Symbol:      ev.Symbol,
		Creator:     ev.Creator,
		CreatorKind: ev.CreatorKind,
		CreatedAt:   now,
	}

	if err := r.cfg.Tokens.Insert(ctx, token); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			r.logger.Debug("token already indexed",
				zap.String("token", ev.TokenAddress))
			return nil
		}
		return fmt.Errorf("insert token: %w", err)
	}

	vault := &domain.FeeVault{
		PoolAddress:  ev.PoolAddress,
		VaultAddress: ev.VaultAddress,
		TokenAddress: ev.TokenAddress,
		Collected:    decimal.Zero,
		Claimed:      decimal.Zero,
		Unclaimed:    decimal.Zero,
		CreatedAt:    now,
	}
	if err := r.cfg.Vaults.Insert(ctx, vault); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert fee vault: %w", err)
	}

	pool := &domain.PoolConfig{
		PoolAddress:  ev.PoolAddress,
		TokenAddress: ev.TokenAddress,
		CreatorKind:  ev.CreatorKind,
		SharePercent: r.cfg.DefaultSharePercent,
		CreatedAt:    now,
	}
	if ev.Creator != "" {
		creator := ev.Creator
		pool.Creator = &creator
		wallet := ev.Creator
		pool.CreatorWallet = &wallet
	}
	if err := r.cfg.Pools.Insert(ctx, pool); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert pool config: %w", err)
	}

	r.logger.Info("token indexed",
		zap.String("token", ev.TokenAddress),
		zap.String("symbol", ev.Symbol),
		zap.String("creator", ev.Creator),
		zap.String("creator_kind", string(ev.CreatorKind)))

	r.emit(broadcast.ChannelNewTokens, broadcast.TokenCreated{
		Event:        broadcast.EventTokenCreated,
		TokenAddress: ev.TokenAddress,
		Name:         ev.Name,
		Symbol:       ev.Symbol,
		Creator:      ev.Creator,
		CreatorType:  string(ev.CreatorKind),
		Timestamp:    ev.Timestamp,
	})

	return nil
}

// applyTrade inserts the trade, refreshes the token's market data and
// notifies observers. Duplicate signatures and trades for unknown tokens
// are dropped.
func (r *Reconciler) applyTrade(ctx context.Context, ev *domain.TradeEvent) error {
	if _, err := r.cfg.Tokens.GetByAddress(ctx, ev.TokenAddress); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("trade for unknown token dropped",
				zap.String("token", ev.TokenAddress),
				zap.String("signature", ev.Signature))
			return nil
		}
		return fmt.Errorf("lookup token: %w", err)
	}

	fee := decimal.NewFromFloat(ev.AmountSol).
		Mul(decimal.NewFromInt(r.cfg.FeeBps)).
		Div(decimal.NewFromInt(10_000))

	trade := &domain.Trade{
		Signature:    ev.Signature,
		TokenAddress: ev.TokenAddress,
		PoolAddress:  ev.PoolAddress,
		Trader:       ev.Trader,
		Side:         ev.Side,
		AmountSol:    ev.AmountSol,
		AmountTokens: ev.AmountTokens,
		Price:        ev.Price,
		FeeSol:       fee,
		Slot:         ev.Slot,
		Timestamp:    ev.Timestamp,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := r.cfg.Trades.Insert(ctx, trade); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			r.logger.Debug("trade already indexed",
				zap.String("signature", ev.Signature))
			return nil
		}
		return fmt.Errorf("insert trade: %w", err)
	}

	since := ev.Timestamp - volumeWindow.Milliseconds()
	volume, err := r.cfg.Trades.SumVolumeSince(ctx, ev.TokenAddress, since)
	if err != nil {
		return fmt.Errorf("sum 24h volume: %w", err)
	}

	marketCap := ev.Price * domain.TotalSupply
	if err := r.cfg.Tokens.UpdateMarketData(ctx, ev.TokenAddress, ev.Price, marketCap, volume); err != nil {
		return fmt.Errorf("update market data: %w", err)
	}

	tradePayload := broadcast.Trade{
		Event:        broadcast.EventTrade,
		TokenAddress: ev.TokenAddress,
		Side:         ev.Side,
		AmountSol:    ev.AmountSol,
		AmountTokens: ev.AmountTokens,
		Trader:       ev.Trader,
		Price:        ev.Price,
		Timestamp:    ev.Timestamp,
	}
	r.emit(broadcast.TokenChannel(ev.TokenAddress), tradePayload)
	r.emit(broadcast.ChannelTrades, tradePayload)

	pricePayload := broadcast.PriceUpdate{
		Event:        broadcast.EventPriceUpdate,
		TokenAddress: ev.TokenAddress,
		Price:        ev.Price,
		MarketCap:    marketCap,
		Volume24h:    volume,
		Timestamp:    ev.Timestamp,
	}
	r.emit(broadcast.TokenChannel(ev.TokenAddress), pricePayload)
	r.emit(broadcast.ChannelTrending, pricePayload)

	// Analytics sink is best effort; the ledger write already succeeded.
	if r.cfg.Ticks != nil {
		tick := &domain.PriceTick{
			TokenAddress: ev.TokenAddress,
			TimestampMs:  ev.Timestamp,
			Slot:         ev.Slot,
			Price:        ev.Price,
			VolumeSol:    ev.AmountSol,
		}
		if err := r.cfg.Ticks.Insert(ctx, tick); err != nil {
			r.logger.Warn("price tick write failed",
				zap.String("token", ev.TokenAddress),
				zap.Error(err))
		}
	}

	return nil
}

// applyGraduation marks the token graduated. Already-graduated tokens keep
// their original timestamp.
func (r *Reconciler) applyGraduation(ctx context.Context, ev *domain.GraduationEvent) error {
	if err := r.cfg.Tokens.MarkGraduated(ctx, ev.TokenAddress, ev.Timestamp); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("graduation for unknown token dropped",
				zap.String("token", ev.TokenAddress),
				zap.String("signature", ev.Signature))
			return nil
		}
		return fmt.Errorf("mark graduated: %w", err)
	}

	r.logger.Info("token graduated",
		zap.String("token", ev.TokenAddress),
		zap.String("pool", ev.PoolAddress))

	return nil
}

// emit marshals and broadcasts one payload.
func (r *Reconciler) emit(channel string, payload interface{}) {
	if r.cfg.Hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("marshal broadcast payload", zap.Error(err))
		return
	}
	r.cfg.Hub.Emit(channel, data)
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.EventsBroadcast.WithLabelValues(channel).Inc()
	}
}
