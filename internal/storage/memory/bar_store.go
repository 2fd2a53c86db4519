// Package memory provides in-memory storage implementations for tests and
// single-run screening without external dependencies.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.PriceBar // symbol → date key → bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{data: make(map[string]map[string]domain.PriceBar)}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// InsertDailyBars appends daily bars for a symbol. The whole batch is
// rejected on any duplicate (existing or intra-batch).
func (s *BarStore) InsertDailyBars(_ context.Context, symbol string, bars []domain.PriceBar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[symbol]
	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		key := dateKey(b.Date)
		if _, ok := existing[key]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchKeys[key]; ok {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	if existing == nil {
		existing = make(map[string]domain.PriceBar, len(bars))
		s.data[symbol] = existing
	}
	for _, b := range bars {
		existing[dateKey(b.Date)] = b
	}
	return nil
}

// GetDailySeries retrieves all bars for a symbol in ascending date order.
func (s *BarStore) GetDailySeries(_ context.Context, symbol string) (*domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, ok := s.data[symbol]
	if !ok || len(byDate) == 0 {
		return nil, storage.ErrNotFound
	}

	series := &domain.PriceSeries{
		Symbol:    symbol,
		Timeframe: domain.TimeframeDaily,
		Bars:      make([]domain.PriceBar, 0, len(byDate)),
	}
	for _, b := range byDate {
		series.Bars = append(series.Bars, b)
	}
	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	return series, nil
}

// Symbols lists every cached symbol, sorted.
func (s *BarStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.data))
	for sym, bars := range s.data {
		if len(bars) > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// LatestDate returns the most recent bar date for a symbol.
func (s *BarStore) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, ok := s.data[symbol]
	if !ok || len(byDate) == 0 {
		return time.Time{}, storage.ErrNotFound
	}

	var latest time.Time
	for _, b := range byDate {
		if b.Date.After(latest) {
			latest = b.Date
		}
	}
	return latest, nil
}
