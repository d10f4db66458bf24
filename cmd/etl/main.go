package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kasparro/crypto-etl/internal/config"
	"github.com/kasparro/crypto-etl/internal/csvgen"
	"github.com/kasparro/crypto-etl/internal/database"
	"github.com/kasparro/crypto-etl/internal/etl"
	"github.com/kasparro/crypto-etl/internal/model"
	"github.com/kasparro/crypto-etl/internal/resolver"
	"github.com/kasparro/crypto-etl/internal/scheduler"
	"github.com/kasparro/crypto-etl/internal/server"
	srcpkg "github.com/kasparro/crypto-etl/internal/source"
	"github.com/kasparro/crypto-etl/internal/store"
	"github.com/kasparro/crypto-etl/internal/version"
)

// storeAdapter narrows *store.Store to the orchestrator's transactional
// interface.
type storeAdapter struct {
	*store.Store
}

func (a storeAdapter) Begin(ctx context.Context) (etl.Tx, error) {
	return a.Store.Begin(ctx)
}

func main() {
	configPath := flag.String("config", "configs/etl.yaml", "path to config file")
	bootstrapOnly := flag.Bool("bootstrap-only", false, "run the mapping bootstrap and exit")
	flag.Parse()

	// Environment first, so ${VAR} substitution in the config sees it.
	_ = godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting crypto-etl",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	connStr := database.BuildConnString(cfg.Database)
	if err := database.Migrate(connStr); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := store.New(pool, logger)

	// Provider clients
	client := srcpkg.NewClient(
		srcpkg.WithLogger(logger),
		srcpkg.WithTimeout(cfg.Providers.Timeout),
		srcpkg.WithRetries(cfg.Providers.MaxRetries, cfg.Providers.RetryBackoff),
		srcpkg.WithRateLimit(cfg.Providers.RateLimitRPS),
	)
	coingecko := srcpkg.NewCoinGecko(client, cfg.Providers.CoinGecko.BaseURL, logger)
	coinpaprika := srcpkg.NewCoinPaprika(client, cfg.Providers.CoinPaprika.BaseURL, cfg.Providers.CoinPaprika.APIKey, logger)
	coincap := srcpkg.NewCoinCap(client, cfg.Providers.CoinCap.BaseURL)

	// Identity resolution
	res := resolver.New(st, coingecko, coinpaprika, cfg.ETL.BootstrapTopN, logger)

	// Bootstrap failure is not fatal: the fallback seed or an existing
	// mapping table keeps resolution working.
	boot := res.Bootstrap(ctx)
	if boot.Err != nil {
		logger.Warn("bootstrap degraded", "error", boot.Err, "mappings", boot.Mappings)
	}
	if *bootstrapOnly {
		if boot.Err != nil {
			os.Exit(1)
		}
		return
	}

	// Source adapters in configured sweep order
	var adapters []srcpkg.Adapter
	for _, name := range cfg.Sources() {
		switch name {
		case model.SourceCoinGecko:
			adapters = append(adapters, coingecko)
		case model.SourceCoinPaprika:
			adapters = append(adapters, coinpaprika)
		case model.SourceCSV:
			adapters = append(adapters, srcpkg.NewCSVFile(cfg.CSV.Path, logger))
		}
	}

	orchestrator := etl.New(storeAdapter{st}, res, adapters, logger)

	// CSV drop refresher, seeded once so the csv source has a file on
	// first sweep.
	generator := csvgen.New(coincap, cfg.CSV.Path, cfg.ETL.BootstrapTopN, logger)
	if err := generator.Refresh(ctx); err != nil {
		logger.Warn("initial csv refresh failed", "error", err)
	}

	sched := scheduler.New(scheduler.Config{
		SweepInterval:   cfg.ETL.SweepInterval,
		RefreshInterval: cfg.CSV.RefreshInterval,
	}, orchestrator, generator, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// HTTP API
	handler := server.NewHandler(st, orchestrator, res, logger)
	httpServer := server.NewServer(cfg.Server.Port, handler, logger)
	httpServer.Start()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}
