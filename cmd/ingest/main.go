// Package main backfills the daily bar cache for a symbol universe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"stock-screener-lab/internal/config"
	"stock-screener-lab/internal/fetcher"
	"stock-screener-lab/internal/logger"
	"stock-screener-lab/internal/storage"
	chstore "stock-screener-lab/internal/storage/clickhouse"
	"stock-screener-lab/internal/storage/memory"
	"stock-screener-lab/internal/storage/migrations"
	pgstore "stock-screener-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (overrides config)")
	days := flag.Int("days", 0, "History depth in days (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *symbolsFlag != "" {
		cfg.Screen.Symbols = splitSymbols(*symbolsFlag)
	}
	if *days > 0 {
		cfg.Screen.HistoryDays = *days
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

	if len(cfg.Screen.Symbols) == 0 {
		log.Fatal().Msg("no symbols configured; set screen.symbols or pass -symbols")
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open bar store")
	}
	defer cleanup()

	yahoo := fetcher.NewYahooFetcher()
	var cached, skipped, failed int
	for _, symbol := range cfg.Screen.Symbols {
		if err := backfill(ctx, yahoo, store, symbol, cfg.Screen.HistoryDays, log); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Debug().Str("symbol", symbol).Msg("already cached")
				skipped++
				continue
			}
			log.Error().Str("symbol", symbol).Err(err).Msg("backfill failed")
			failed++
			continue
		}
		cached++
	}

	log.Info().Int("cached", cached).Int("skipped", skipped).Int("failed", failed).Msg("backfill finished")
	if failed > 0 {
		os.Exit(1)
	}
}

func backfill(ctx context.Context, f fetcher.Fetcher, store storage.BarStore, symbol string, days int, log zerolog.Logger) error {
	bars, err := f.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return err
	}
	if err := store.InsertDailyBars(ctx, symbol, bars); err != nil {
		return err
	}
	log.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("cached daily bars")
	return nil
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

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
