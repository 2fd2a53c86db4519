// Package scheduler runs the nightly bar-cache refresh on a cron
// schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stock-screener-lab/internal/fetcher"
	"stock-screener-lab/internal/observability"
	"stock-screener-lab/internal/storage"
)

// Scheduler manages the cron-driven refresh task.
type Scheduler struct {
	cron    *cron.Cron
	fetcher fetcher.Fetcher
	store   storage.BarStore
	symbols []string
	days    int
	log     zerolog.Logger
	ctx     context.Context
}

// New creates a Scheduler refreshing the given symbols.
func New(ctx context.Context, f fetcher.Fetcher, store storage.BarStore, symbols []string, days int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		fetcher: f,
		store:   store,
		symbols: symbols,
		days:    days,
		log:     log,
		ctx:     ctx,
	}
}

// Register adds the refresh task under the given cron spec
// (six-field, with seconds).
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// refreshTask fetches fresh history per symbol and appends the bars
// that are newer than the cached tail. A failing symbol is logged and
// skipped; the rest of the universe still refreshes.
func (s *Scheduler) refreshTask() {
	s.log.Info().Int("symbols", len(s.symbols)).Msg("running bar cache refresh")

	var refreshed, failed, appended int
	for _, symbol := range s.symbols {
		n, err := s.refreshSymbol(symbol)
		if err != nil {
			s.log.Error().Str("symbol", symbol).Err(err).Msg("refresh failed")
			failed++
			continue
		}
		refreshed++
		appended += n
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	observability.RecordRefreshRun(status, appended)

	s.log.Info().Int("refreshed", refreshed).Int("failed", failed).Int("bars", appended).Msg("bar cache refresh finished")
}

func (s *Scheduler) refreshSymbol(symbol string) (int, error) {
	bars, err := s.fetcher.FetchDailyBars(s.ctx, symbol, s.days)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	latest, err := s.store.LatestDate(s.ctx, symbol)
	switch {
	case err == nil:
		// Keep only bars strictly after the cached tail.
		cut := 0
		for cut < len(bars) && !bars[cut].Date.After(latest) {
			cut++
		}
		bars = bars[cut:]
	case errors.Is(err, storage.ErrNotFound):
		// Cold symbol, cache the whole history.
	default:
		return 0, fmt.Errorf("read cache tail: %w", err)
	}

	if len(bars) == 0 {
		return 0, nil
	}
	if err := s.store.InsertDailyBars(s.ctx, symbol, bars); err != nil {
		return 0, fmt.Errorf("append bars: %w", err)
	}
	s.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("appended fresh bars")
	return len(bars), nil
}
