package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-pool-monitor/internal/catalog"
	"solana-pool-monitor/internal/config"
	"solana-pool-monitor/internal/logger"
	"solana-pool-monitor/internal/monitor"
	"solana-pool-monitor/internal/solclient"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "monitor:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(log); err != nil {
			fmt.Fprintln(os.Stderr, "monitor: flush logs:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := solclient.Connect(ctx, cfg.RPCURL, cfg.WSURL, rpc.CommitmentType(cfg.Commitment), log)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		return err
	}

	// The catalogue is advisory: a fetch failure leaves the cache cold but
	// does not keep the live monitors from starting.
	cache := catalog.NewCache(log)
	snap, err := catalog.NewClient(cfg.CatalogBaseURL, log).FetchSnapshot(ctx)
	if err != nil {
		log.Warn("catalogue fetch failed, starting with a cold cache", zap.Error(err))
	} else {
		cache.Write(snap)
	}

	emit := func(m monitor.Metrics) {
		log.Info("amm metrics",
			zap.String("pool", m.Pool.String()),
			zap.String("base_reserve", m.BaseReserve.String()),
			zap.String("quote_reserve", m.QuoteReserve.String()),
			zap.String("price", m.Price.String()))
	}
	onMetrics := monitor.MetricsHandler(emit)
	if cfg.EmitInterval > 0 {
		throttler := monitor.NewMetricsThrottler(cfg.EmitInterval, emit, log)
		go throttler.Run(ctx.Done())
		onMetrics = throttler.Handle
	}

	tracker := monitor.NewTracker(log)
	ammMon := monitor.NewAmmMonitor(client, tracker, monitor.AmmConfig{
		PoolProgram:    config.ProgramKey(cfg.AmmProgram, monitor.RaydiumAmmProgram),
		VaultProgram:   config.ProgramKey(cfg.VaultProgram, monitor.TokenProgram),
		VaultAuthority: config.ProgramKey(cfg.AmmAuthority, monitor.RaydiumAmmAuthority),
		OnMetrics:      onMetrics,
	}, log)

	stopAmm, err := ammMon.Start(ctx)
	if err != nil {
		return fmt.Errorf("start amm monitor: %w", err)
	}
	defer stopAmm()

	if err := ammMon.Seed(ctx, client); err != nil {
		log.Warn("pool seed failed, correlations will fill from the stream", zap.Error(err))
	}

	clmmMon := monitor.NewClmmMonitor(client,
		config.ProgramKey(cfg.ClmmProgram, monitor.RaydiumClmmProgram),
		func(pool solana.PublicKey, price decimal.Decimal) {
			log.Info("clmm price",
				zap.String("pool", pool.String()),
				zap.String("price", price.String()))
		}, log)

	stopClmm, err := clmmMon.Start(ctx)
	if err != nil {
		return fmt.Errorf("start clmm monitor: %w", err)
	}
	defer stopClmm()

	log.Info("monitor running",
		zap.Int("catalogued_amm_pools", len(cache.Read(cfg.CatalogTTL).AmmPools)))

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
