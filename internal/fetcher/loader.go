package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/observability"
	"stock-screener-lab/internal/storage"
)

// Loader serves daily series from the bar cache, falling back to the
// fetcher on a miss and writing the result through.
type Loader struct {
	fetcher Fetcher
	store   storage.BarStore
	days    int
	log     zerolog.Logger
}

// NewLoader creates a Loader that fetches `days` bars on a cache miss.
func NewLoader(f Fetcher, store storage.BarStore, days int, log zerolog.Logger) *Loader {
	return &Loader{fetcher: f, store: store, days: days, log: log}
}

// DailySeries returns the cached daily series for a symbol, fetching
// and caching it first when absent.
func (l *Loader) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	series, err := l.store.GetDailySeries(ctx, symbol)
	if err == nil {
		observability.RecordCacheHit()
		return series, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read bar cache: %w", err)
	}
	observability.RecordCacheMiss()

	bars, err := l.fetcher.FetchDailyBars(ctx, symbol, l.days)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
	}
	l.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched daily bars")

	if err := l.store.InsertDailyBars(ctx, symbol, bars); err != nil {
		// A racing refresh may have filled the cache; the fetched bars
		// are still good for this call.
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("cache daily bars for %s: %w", symbol, err)
		}
		l.log.Debug().Str("symbol", symbol).Msg("bars cached concurrently, using fetched copy")
	}

	return &domain.PriceSeries{
		Symbol:    symbol,
		Timeframe: domain.TimeframeDaily,
		Bars:      bars,
	}, nil
}
