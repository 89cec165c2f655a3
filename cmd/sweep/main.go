// Package main runs a single fee-collection pass against every due vault
// and exits. Intended for operators; the indexer service runs the same
// sweep on a schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"launchpad-indexer/internal/config"
	"launchpad-indexer/internal/fees"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/protocol"
	"launchpad-indexer/internal/solana"
	pgstore "launchpad-indexer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	cooldown := flag.Duration("cooldown", 0, "Override claim cooldown (0 uses the configured value)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *cooldown > 0 {
		cfg.ClaimCooldown = *cooldown
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	rpc := solana.NewHTTPClient(cfg.RPCURL)
	signer := solana.NewRemoteSigner(cfg.SignerURL, cfg.SignerPublicKey)
	claimer := protocol.NewClient(rpc, signer, cfg.ProgramID, logger)

	manager := fees.NewManager(fees.ManagerConfig{
		Vaults:        pgstore.NewFeeVaultStore(pool),
		Pools:         pgstore.NewPoolConfigStore(pool),
		Claimer:       claimer,
		Metrics:       observability.NewMetrics("launchpad_sweep"),
		Logger:        logger,
		SweepInterval: cfg.SweepInterval,
		ClaimCooldown: cfg.ClaimCooldown,
	})

	summary, err := manager.Sweep(ctx)
	if err != nil {
		return err
	}

	logger.Info("sweep complete",
		zap.Int("vaults_processed", summary.Processed),
		zap.Int("vaults_claimed", summary.Claimed),
		zap.String("total_sol", summary.TotalAmount.String()))
	return nil
}
