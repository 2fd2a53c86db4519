package domain

import "time"

// Timeframe identifies the period unit of a price series.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ValidTimeframe reports whether tf is one of the supported timeframes.
func ValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}

// PriceBar is one OHLCV observation.
// Invariant: High >= max(Open, Close, Low); Low <= min(Open, Close, High).
type PriceBar struct {
	Date   time.Time // trading date, unique within a series
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSeries is an ordered sequence of bars for one symbol and one
// timeframe. Dates are strictly increasing. The daily series is the
// source of truth; weekly/monthly series are derived per evaluation run.
type PriceSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []PriceBar
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
