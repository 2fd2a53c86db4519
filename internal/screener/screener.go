// Package screener drives strategy evaluation across a symbol universe
// with a bounded worker pool.
package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/eval"
	"stock-screener-lab/internal/fetcher"
	"stock-screener-lab/internal/observability"
	"stock-screener-lab/internal/storage"
)

// SeriesSource supplies daily price series for symbols.
// fetcher.Loader and the raw bar stores both satisfy the shape via
// adapters below.
type SeriesSource interface {
	DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error)
}

// StoreSource adapts a storage.BarStore into a SeriesSource without
// fetch-on-miss behavior.
type StoreSource struct {
	Store storage.BarStore
}

func (s StoreSource) DailySeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	return s.Store.GetDailySeries(ctx, symbol)
}

// Progress is invoked after every evaluated symbol.
type Progress func(done, total int, result domain.SymbolResult)

// Options tune a screening run.
type Options struct {
	// Workers bounds evaluation concurrency. Defaults to 8.
	Workers int
	// MatchLimit stops the run once this many symbols matched.
	// Zero means no limit.
	MatchLimit int
	// OnProgress, when set, receives per-symbol completion events.
	OnProgress Progress
}

// Report is the outcome of one strategy screened over a universe.
type Report struct {
	Strategy   string                `json:"strategy"`
	StartedAt  time.Time             `json:"started_at"`
	Duration   time.Duration         `json:"duration"`
	Matched    int                   `json:"matched"`
	NotMatched int                   `json:"not_matched"`
	Skipped    int                   `json:"skipped"`
	Results    []domain.SymbolResult `json:"results"`
}

// Screener evaluates strategies over symbol universes.
type Screener struct {
	source SeriesSource
	log    zerolog.Logger
}

// New creates a Screener reading series from the given source.
func New(source SeriesSource, log zerolog.Logger) *Screener {
	return &Screener{source: source, log: log}
}

// Run screens every symbol against the strategy. Symbols whose series
// cannot be loaded are reported as skipped with the no_data reason
// rather than failing the run. Returns ctx.Err when cancelled.
func (s *Screener) Run(ctx context.Context, strat *domain.Strategy, symbols []string, opts Options) (*Report, error) {
	if strat == nil {
		return nil, errors.New("nil strategy")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	if workers > len(symbols) && len(symbols) > 0 {
		workers = len(symbols)
	}

	started := time.Now()
	evaluator := eval.New(strat)

	var (
		mu      sync.Mutex
		results []domain.SymbolResult
		matched int
		done    int
	)
	jobs := make(chan string)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				// Drain without evaluating once the run is stopped.
				if runCtx.Err() != nil {
					continue
				}
				result := s.screenSymbol(runCtx, evaluator, symbol)

				mu.Lock()
				results = append(results, result)
				done++
				if result.Verdict == domain.VerdictMatched {
					matched++
					if opts.MatchLimit > 0 && matched >= opts.MatchLimit {
						cancel()
					}
				}
				progress := opts.OnProgress
				doneNow := done
				mu.Unlock()

				if progress != nil {
					progress(doneNow, len(symbols), result)
				}
			}
		}()
	}

feed:
	for _, symbol := range symbols {
		select {
		case jobs <- symbol:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Cancellation from the caller aborts; cancellation from the match
	// limit is a normal early finish.
	if err := ctx.Err(); err != nil {
		observability.RecordScreenRun(strat.Name, "cancelled", time.Since(started).Seconds())
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	report := &Report{
		Strategy:  strat.Name,
		StartedAt: started,
		Duration:  time.Since(started),
		Results:   results,
	}
	for _, r := range results {
		switch r.Verdict {
		case domain.VerdictMatched:
			report.Matched++
		case domain.VerdictNotMatched:
			report.NotMatched++
		default:
			report.Skipped++
		}
	}

	observability.RecordScreenRun(strat.Name, "success", report.Duration.Seconds())

	s.log.Info().
		Str("strategy", strat.Name).
		Int("symbols", len(symbols)).
		Int("matched", report.Matched).
		Int("skipped", report.Skipped).
		Dur("elapsed", report.Duration).
		Msg("screen finished")

	return report, nil
}

func (s *Screener) screenSymbol(ctx context.Context, evaluator *eval.Evaluator, symbol string) domain.SymbolResult {
	series, err := s.source.DailySeries(ctx, symbol)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, fetcher.ErrNoData) {
			s.log.Warn().Str("symbol", symbol).Err(err).Msg("series load failed")
		}
		return domain.SymbolResult{
			Symbol:     symbol,
			Verdict:    domain.VerdictSkipped,
			SkipReason: domain.SkipNoData,
		}
	}

	res := evaluator.Evaluate(series)
	observability.RecordVerdict(string(res.Verdict))
	return domain.SymbolResult{
		Symbol:     symbol,
		Verdict:    res.Verdict,
		SkipReason: res.SkipReason,
		Values:     res.Values,
	}
}

// RunAll screens every strategy in order and returns one report each.
func (s *Screener) RunAll(ctx context.Context, strategies []*domain.Strategy, symbols []string, opts Options) ([]*Report, error) {
	reports := make([]*Report, 0, len(strategies))
	for _, strat := range strategies {
		report, err := s.Run(ctx, strat, symbols, opts)
		if err != nil {
			return nil, fmt.Errorf("screen %s: %w", strat.Name, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
