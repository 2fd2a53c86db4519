// Package fetcher retrieves daily OHLCV history from market data
// providers and feeds the bar cache.
package fetcher

import (
	"context"
	"errors"

	"stock-screener-lab/internal/domain"
)

// ErrNoData is returned when a provider has no bars for a symbol.
var ErrNoData = errors.New("no data returned for symbol")

// Fetcher retrieves daily bar history for a symbol.
type Fetcher interface {
	// FetchDailyBars fetches up to `days` most recent daily bars,
	// ascending by date. Returns ErrNoData when the provider knows
	// nothing about the symbol.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.PriceBar, error)
}
