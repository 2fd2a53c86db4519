// Package storage defines the bar-cache collaborator used by the
// screening driver. The evaluation core never touches storage; it
// receives fully materialized price series.
package storage

import (
	"context"
	"time"

	"stock-screener-lab/internal/domain"
)

// BarStore provides access to cached daily OHLCV bars.
// Daily bars are the source of truth; weekly/monthly series are derived
// at evaluation time and never persisted.
type BarStore interface {
	// InsertDailyBars appends daily bars for a symbol. Returns
	// ErrDuplicateKey if any (symbol, date) already exists; the batch is
	// rejected as a whole.
	InsertDailyBars(ctx context.Context, symbol string, bars []domain.PriceBar) error

	// GetDailySeries retrieves all daily bars for a symbol in ascending
	// date order. Returns ErrNotFound when the symbol has no bars.
	GetDailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error)

	// Symbols lists every symbol with at least one cached bar, sorted.
	Symbols(ctx context.Context) ([]string, error)

	// LatestDate returns the date of the most recent cached bar for a
	// symbol. Returns ErrNotFound when the symbol has no bars.
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}
