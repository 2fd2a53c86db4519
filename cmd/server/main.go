// Package main runs the screener as a long-lived service: HTTP API,
// websocket progress streaming, and a cron-driven bar cache refresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-screener-lab/internal/config"
	"stock-screener-lab/internal/fetcher"
	"stock-screener-lab/internal/logger"
	"stock-screener-lab/internal/scheduler"
	"stock-screener-lab/internal/screener"
	"stock-screener-lab/internal/server"
	"stock-screener-lab/internal/storage"
	chstore "stock-screener-lab/internal/storage/clickhouse"
	"stock-screener-lab/internal/storage/memory"
	"stock-screener-lab/internal/storage/migrations"
	pgstore "stock-screener-lab/internal/storage/postgres"
	"stock-screener-lab/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	refreshOnStart := flag.Bool("refresh-on-start", false, "Refresh the bar cache immediately at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}

	strategies, err := strategy.LoadDir(cfg.Screen.StrategiesDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Screen.StrategiesDir).Msg("load strategies")
	}
	log.Info().Int("strategies", len(strategies)).Msg("strategies loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open bar store")
	}
	defer cleanup()

	yahoo := fetcher.NewYahooFetcher()
	loader := fetcher.NewLoader(yahoo, store, cfg.Screen.HistoryDays, log)
	sc := screener.New(loader, log)

	sched := scheduler.New(ctx, yahoo, store, cfg.Screen.Symbols, cfg.Screen.HistoryDays, log)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register refresh schedule")
	}
	sched.Start()
	defer sched.Stop()
	if *refreshOnStart {
		go sched.RunRefreshNow()
	}

	srv := server.New(sc, strategies, cfg.Screen.Symbols, screener.Options{
		Workers:    cfg.Screen.Workers,
		MatchLimit: cfg.Screen.MatchLimit,
	}, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	log.Info().Msg("shutdown complete")
}

// openStore builds the configured bar store backend and applies its
// migrations.
func openStore(ctx context.Context, cfg *config.Config) (storage.BarStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewBarStore(), func() {}, nil
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
		return pgstore.NewBarStore(pool), pool.Close, nil
	case "clickhouse":
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
		}
		return chstore.NewBarStore(conn), func() { conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
