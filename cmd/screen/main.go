// Package main runs a one-shot screen: load strategies, evaluate them
// over a symbol universe, and render the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"stock-screener-lab/internal/config"
	"stock-screener-lab/internal/fetcher"
	"stock-screener-lab/internal/logger"
	"stock-screener-lab/internal/reporting"
	"stock-screener-lab/internal/screener"
	"stock-screener-lab/internal/storage/memory"
	"stock-screener-lab/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	strategiesDir := flag.String("strategies", "", "Strategy JSON directory (overrides config)")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (overrides config)")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	output := flag.String("out", "", "Output file (default stdout)")
	matchLimit := flag.Int("match-limit", 0, "Stop after this many matches per strategy (0 = no limit)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *strategiesDir != "" {
		cfg.Screen.StrategiesDir = *strategiesDir
	}
	if *symbolsFlag != "" {
		cfg.Screen.Symbols = splitSymbols(*symbolsFlag)
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

	strategies, err := strategy.LoadDir(cfg.Screen.StrategiesDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Screen.StrategiesDir).Msg("load strategies")
	}
	if len(strategies) == 0 {
		log.Fatal().Str("dir", cfg.Screen.StrategiesDir).Msg("no strategies found")
	}

	ctx := context.Background()

	// One-shot runs always screen against a fresh in-memory cache; the
	// long-lived backends are for the server and the nightly refresh.
	store := memory.NewBarStore()
	loader := fetcher.NewLoader(fetcher.NewYahooFetcher(), store, cfg.Screen.HistoryDays, log)
	sc := screener.New(loader, log)

	limit := *matchLimit
	if limit == 0 {
		limit = cfg.Screen.MatchLimit
	}
	reports, err := sc.RunAll(ctx, strategies, cfg.Screen.Symbols, screener.Options{
		Workers:    cfg.Screen.Workers,
		MatchLimit: limit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("screen failed")
	}

	var rendered string
	switch *format {
	case "csv":
		rendered = reporting.RenderCSV(reports)
	case "markdown":
		rendered = reporting.RenderMarkdown(reports)
	default:
		log.Fatal().Str("format", *format).Msg("unknown output format")
	}

	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *output).Msg("write report")
	}
	log.Info().Str("path", *output).Msg("report written")
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
