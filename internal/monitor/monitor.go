// Package monitor watches the gap between the chain head and the
// indexer's subscription position.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/solana"
)

// DefaultCheckInterval is how often the slot lag is measured.
const DefaultCheckInterval = 30 * time.Second

// lagWarnThreshold is the slot gap that indicates the indexer fell behind.
const lagWarnThreshold = 100

// SlotSource reports the highest slot seen on the log subscription.
type SlotSource interface {
	LastSlot() int64
}

// Monitor periodically compares the chain's current slot against the
// watcher's position and reports the lag.
type Monitor struct {
	rpc     solana.RPCClient
	source  SlotSource
	metrics *observability.Metrics
	logger  *zap.Logger

	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a sync monitor.
func New(rpc solana.RPCClient, source SlotSource, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Monitor{
		rpc:      rpc,
		source:   source,
		metrics:  metrics,
		logger:   logger.Named("monitor"),
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run measures lag on a fixed schedule until the context is cancelled or
// Stop is called. Blocks; callers run it in a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Stop ends the schedule loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// Check measures the slot lag once and returns it. A failed slot query
// returns -1; the subscription itself is unaffected.
func (m *Monitor) Check(ctx context.Context) int64 {
	chainSlot, err := m.rpc.GetSlot(ctx)
	if err != nil {
		m.logger.Warn("slot query failed", zap.Error(err))
		return -1
	}

	seen := m.source.LastSlot()
	lag := chainSlot - seen
	if lag < 0 {
		lag = 0
	}

	if m.metrics != nil {
		m.metrics.SlotLag.Set(float64(lag))
	}

	if seen == 0 {
		m.logger.Debug("no notifications seen yet",
			zap.Int64("chain_slot", chainSlot))
		return lag
	}

	if lag > lagWarnThreshold {
		m.logger.Warn("indexer behind chain head",
			zap.Int64("chain_slot", chainSlot),
			zap.Int64("seen_slot", seen),
			zap.Int64("lag", lag))
	} else {
		m.logger.Debug("sync check",
			zap.Int64("chain_slot", chainSlot),
			zap.Int64("seen_slot", seen),
			zap.Int64("lag", lag))
	}

	return lag
}
