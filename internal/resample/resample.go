// Package resample derives weekly and monthly OHLCV series from daily bars.
package resample

import (
	"fmt"

	"stock-screener-lab/internal/domain"
)

// Resample aggregates a daily series into the requested timeframe.
//
// Weekly bars group daily bars by ISO calendar week, monthly bars by
// calendar month. Aggregation: open of the first bar, close of the last,
// max high, min low, summed volume. The in-progress (most recent,
// incomplete) period is included as the latest bar, so offset 0 always
// reflects the forming period.
//
// Resampling never fails on short input; it only yields a shorter series.
func Resample(daily *domain.PriceSeries, tf domain.Timeframe) *domain.PriceSeries {
	if tf == domain.TimeframeDaily {
		return daily
	}

	out := &domain.PriceSeries{Symbol: daily.Symbol, Timeframe: tf}
	if len(daily.Bars) == 0 {
		return out
	}

	var (
		cur    domain.PriceBar
		curKey string
		open   bool
	)
	for _, bar := range daily.Bars {
		key := bucketKey(bar, tf)
		if !open || key != curKey {
			if open {
				out.Bars = append(out.Bars, cur)
			}
			cur = bar
			curKey = key
			open = true
			continue
		}
		if bar.High > cur.High {
			cur.High = bar.High
		}
		if bar.Low < cur.Low {
			cur.Low = bar.Low
		}
		cur.Close = bar.Close
		cur.Volume += bar.Volume
		// The bucket keeps the date of its last constituent bar so the
		// forming period carries the freshest timestamp.
		cur.Date = bar.Date
	}
	out.Bars = append(out.Bars, cur)

	return out
}

// bucketKey returns the grouping key of a bar for the given timeframe.
func bucketKey(bar domain.PriceBar, tf domain.Timeframe) string {
	switch tf {
	case domain.TimeframeWeekly:
		year, week := bar.Date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case domain.TimeframeMonthly:
		return bar.Date.Format("2006-01")
	default:
		return bar.Date.Format("2006-01-02")
	}
}
