// Package postgres persists the daily bar cache in PostgreSQL. The
// (symbol, bar_date) primary key backs the append-only contract.
package postgres

import (
	"context"
	"fmt"
	"time"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertDailyBars appends daily bars for a symbol inside a single
// transaction. Any duplicate (symbol, bar_date) rejects the whole batch
// with ErrDuplicateKey.
func (s *BarStore) InsertDailyBars(ctx context.Context, symbol string, bars []domain.PriceBar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO daily_bars (
			symbol, bar_date, open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, b := range bars {
		_, err := tx.Exec(ctx, query,
			symbol,
			b.Date,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Volume,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert daily bar: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit daily bars: %w", err)
	}
	return nil
}

// GetDailySeries retrieves all bars for a symbol in ascending date order.
// Returns ErrNotFound when the symbol has no bars.
func (s *BarStore) GetDailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	query := `
		SELECT bar_date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY bar_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	series := &domain.PriceSeries{
		Symbol:    symbol,
		Timeframe: domain.TimeframeDaily,
	}
	for rows.Next() {
		var b domain.PriceBar
		err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan daily bar row: %w", err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily bar rows: %w", err)
	}

	if len(series.Bars) == 0 {
		return nil, storage.ErrNotFound
	}
	return series, nil
}

// Symbols lists every symbol with at least one cached bar, sorted.
func (s *BarStore) Symbols(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM daily_bars
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}

	return symbols, nil
}

// LatestDate returns the most recent bar date for a symbol.
// Returns ErrNotFound when the symbol has no bars.
func (s *BarStore) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT bar_date
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY bar_date DESC
		LIMIT 1
	`

	var latest time.Time
	err := s.pool.QueryRow(ctx, query, symbol).Scan(&latest)
	if err != nil {
		if isNotFoundError(err) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("query latest bar date: %w", err)
	}
	return latest, nil
}
