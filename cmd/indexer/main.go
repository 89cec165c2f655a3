// Package main runs the full indexing service: chain watcher, event
// reconciler, scheduled fee sweeps, sync monitor, and the HTTP/WS gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/broadcast"
	"launchpad-indexer/internal/config"
	"launchpad-indexer/internal/events"
	"launchpad-indexer/internal/fees"
	"launchpad-indexer/internal/gateway"
	"launchpad-indexer/internal/indexer"
	"launchpad-indexer/internal/monitor"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/protocol"
	"launchpad-indexer/internal/rewards"
	"launchpad-indexer/internal/solana"
	"launchpad-indexer/internal/storage"
	chstore "launchpad-indexer/internal/storage/clickhouse"
	"launchpad-indexer/internal/storage/migrations"
	pgstore "launchpad-indexer/internal/storage/postgres"
	"launchpad-indexer/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sharePercent, err := decimal.NewFromString(cfg.DefaultSharePercent)
	if err != nil {
		return fmt.Errorf("invalid default_share_percent %q: %w", cfg.DefaultSharePercent, err)
	}

	metrics := observability.NewMetrics("launchpad_indexer")

	// Storage.
	pool, err := pgstore.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	var ticks storage.PriceTickStore
	if cfg.ClickHouseURL != "" {
		chConn, err := chstore.NewConn(ctx, cfg.ClickHouseURL)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer chConn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		ticks = chstore.NewPriceTickStore(chConn)
	} else {
		logger.Warn("clickhouse_url not set, price tick history disabled")
	}

	tokens := pgstore.NewTokenStore(pool)
	trades := pgstore.NewTradeStore(pool)
	vaults := pgstore.NewFeeVaultStore(pool)
	pools := pgstore.NewPoolConfigStore(pool)
	rewardRows := pgstore.NewCreatorRewardStore(pool)

	// Chain access.
	rpc := solana.NewHTTPClient(cfg.RPCURL)
	ws, err := solana.NewWSClient(ctx, cfg.WSURL, logger, nil)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	signer := solana.NewRemoteSigner(cfg.SignerURL, cfg.SignerPublicKey)

	// Indexing path.
	hub := broadcast.NewHub(logger)
	reconciler := indexer.NewReconciler(indexer.Config{
		Tokens:              tokens,
		Trades:              trades,
		Vaults:              vaults,
		Pools:               pools,
		Ticks:               ticks,
		Hub:                 hub,
		Metrics:             metrics,
		Logger:              logger,
		FeeBps:              cfg.FeeBps,
		DefaultSharePercent: sharePercent,
	})

	chainWatcher, err := watcher.New(watcher.Config{
		WS:        ws,
		RPC:       rpc,
		Parser:    events.NewParser(),
		Sink:      reconciler,
		ProgramID: cfg.ProgramID,
		DeployKey: cfg.DeployKey,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Fee distribution path.
	claimer := protocol.NewClient(rpc, signer, cfg.ProgramID, logger)
	sweeper := fees.NewManager(fees.ManagerConfig{
		Vaults:        vaults,
		Pools:         pools,
		Claimer:       claimer,
		Metrics:       metrics,
		Logger:        logger,
		SweepInterval: cfg.SweepInterval,
		ClaimCooldown: cfg.ClaimCooldown,
	})

	payout := rewards.NewTransferExecutor(rpc, signer, logger)
	rewardSvc := rewards.NewService(rewardRows, payout, metrics, logger)

	syncMonitor := monitor.New(rpc, chainWatcher, metrics, logger, cfg.MonitorInterval)

	srv := gateway.NewServer(gateway.ServerConfig{
		Addr:    cfg.ListenAddr,
		Rewards: rewardSvc,
		Sweeper: sweeper,
		Hub:     hub,
		Watcher: chainWatcher,
		Metrics: metrics,
		Logger:  logger,
	})

	// Start everything.
	if err := chainWatcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	go sweeper.Run(ctx)
	go syncMonitor.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	logger.Info("indexer running",
		zap.String("program_id", cfg.ProgramID),
		zap.String("listen_addr", cfg.ListenAddr))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// Graceful stop, bounded.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	chainWatcher.Stop()
	sweeper.Stop()
	syncMonitor.Stop()
	return nil
}
