package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
//
// MergeTree does not enforce uniqueness at insert time, so the
// append-only contract is upheld with explicit existence checks before
// the batch insert.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertDailyBars appends daily bars for a symbol. Any duplicate
// (symbol, bar_date), existing or intra-batch, rejects the whole batch.
func (s *BarStore) InsertDailyBars(ctx context.Context, symbol string, bars []domain.PriceBar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		key := b.Date.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, b := range bars {
		exists, err := s.exists(ctx, symbol, b.Date)
		if err != nil {
			return fmt.Errorf("check bar exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_bars (
			symbol, bar_date, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetDailySeries retrieves all bars for a symbol, ordered by date ASC.
func (s *BarStore) GetDailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	query := `
		SELECT bar_date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = ?
		ORDER BY bar_date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
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

	rows, err := s.conn.Query(ctx, query)
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
func (s *BarStore) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT bar_date
		FROM daily_bars
		WHERE symbol = ?
		ORDER BY bar_date DESC
		LIMIT 1
	`

	var latest time.Time
	err := s.conn.QueryRow(ctx, query, symbol).Scan(&latest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("query latest bar date: %w", err)
	}
	return latest, nil
}

// exists checks whether a bar for (symbol, date) is already cached.
func (s *BarStore) exists(ctx context.Context, symbol string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM daily_bars
		WHERE symbol = ? AND bar_date = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
