// Package watcher subscribes to launch-program logs and admits
// transactions into the indexing pipeline.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/events"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/solana"
)

// seenCacheSize bounds the recently-seen signature cache.
const seenCacheSize = 8192

// EventSink consumes parsed events from admitted transactions.
type EventSink interface {
	ApplyBatch(ctx context.Context, events []domain.Event)
}

// Config wires the watcher's collaborators.
type Config struct {
	WS     solana.WSClient
	RPC    solana.RPCClient
	Parser *events.Parser
	Sink   EventSink

	// ProgramID is the launch program whose logs are subscribed to.
	ProgramID string
	// DeployKey is the platform deployment authority; transactions that do
	// not reference it are rejected by the admission filter.
	DeployKey string

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Status is a point-in-time snapshot of the watcher.
type Status struct {
	Running  bool
	LastSlot int64
}

// Watcher owns the log subscription. Each notification is admitted
// independently: failed transactions and redelivered signatures are
// filtered locally, then the full transaction is fetched and checked
// against the deployment key before parsing.
type Watcher struct {
	cfg    Config
	logger *zap.Logger

	seen *lru.Cache[string, struct{}]

	running  atomic.Bool
	lastSlot atomic.Int64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a watcher.
func New(cfg Config) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		logger: logger.Named("watcher"),
		seen:   seen,
	}, nil
}

// Start opens the subscription and begins processing. A second Start while
// running warns and no-ops.
func (w *Watcher) Start(ctx context.Context) error {
	if w.running.Swap(true) {
		w.logger.Warn("watcher already running, start ignored")
		return nil
	}

	notifications, err := w.cfg.WS.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions: []string{w.cfg.ProgramID},
	})
	if err != nil {
		w.running.Store(false)
		return fmt.Errorf("subscribe logs: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx, notifications)

	w.logger.Info("watcher started",
		zap.String("program", w.cfg.ProgramID),
		zap.String("deploy_key", w.cfg.DeployKey))
	return nil
}

// Stop halts processing and waits for in-flight notifications.
func (w *Watcher) Stop() {
	if !w.running.Swap(false) {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

// Status reports whether the watcher runs and the highest slot seen.
func (w *Watcher) Status() Status {
	return Status{
		Running:  w.running.Load(),
		LastSlot: w.lastSlot.Load(),
	}
}

// LastSlot returns the highest slot seen on the subscription.
func (w *Watcher) LastSlot() int64 {
	return w.lastSlot.Load()
}

func (w *Watcher) run(ctx context.Context, notifications <-chan solana.LogNotification) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				// The subscription died underneath us. Report the
				// watcher down so health checks see it.
				w.running.Store(false)
				w.logger.Warn("notification stream closed, watcher inactive")
				return
			}

			// Each notification is an independent task so one slow
			// transaction fetch never stalls the stream.
			w.wg.Add(1)
			go func(n solana.LogNotification) {
				defer w.wg.Done()
				w.handle(ctx, n)
			}(n)
		}
	}
}

// handle runs the admission filter for one notification and forwards the
// parsed events to the sink.
func (w *Watcher) handle(ctx context.Context, n solana.LogNotification) {
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.NotificationsReceived.Inc()
	}

	if n.Slot > 0 {
		w.advanceSlot(n.Slot)
	}

	if n.Err != nil {
		w.reject("tx_failed", n.Signature)
		return
	}

	if dup, _ := w.seen.ContainsOrAdd(n.Signature, struct{}{}); dup {
		w.reject("duplicate", n.Signature)
		return
	}

	tx, err := w.cfg.RPC.GetTransaction(ctx, n.Signature)
	if err != nil || tx == nil {
		// Fetch failure is a rejection, not an error. The signature is
		// released from the seen cache so a redelivery gets another
		// admission attempt.
		w.seen.Remove(n.Signature)
		w.logger.Debug("transaction fetch failed, notification dropped",
			zap.String("signature", n.Signature),
			zap.Error(err))
		w.reject("fetch_failed", n.Signature)
		return
	}

	if !tx.Mentions(w.cfg.DeployKey) {
		w.reject("foreign_deployment", n.Signature)
		return
	}

	parsed := w.cfg.Parser.Parse(n.Logs, n.Signature, n.Slot)
	if len(parsed) == 0 {
		// Valid outcome: admitted transaction with no recognized markers.
		return
	}

	if w.cfg.Metrics != nil {
		w.cfg.Metrics.NotificationsAccepted.Inc()
	}

	w.cfg.Sink.ApplyBatch(ctx, parsed)
}

func (w *Watcher) reject(reason, signature string) {
	w.logger.Debug("notification rejected",
		zap.String("reason", reason),
		zap.String("signature", signature))
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.NotificationsRejected.WithLabelValues(reason).Inc()
	}
}

// advanceSlot records the highest slot seen.
func (w *Watcher) advanceSlot(slot int64) {
	for {
		cur := w.lastSlot.Load()
		if slot <= cur {
			return
		}
		if w.lastSlot.CompareAndSwap(cur, slot) {
			if w.cfg.Metrics != nil {
				w.cfg.Metrics.HighestSlotSeen.Set(float64(slot))
			}
			return
		}
	}
}
