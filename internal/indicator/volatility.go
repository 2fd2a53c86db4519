package indicator

import (
	"math"

	"stock-screener-lab/internal/domain"
)

// defaultBollingerK is the standard deviation multiplier for the bands.
const defaultBollingerK = 2.0

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(cur, prev domain.PriceBar) float64 {
	tr := cur.High - cur.Low
	if d := math.Abs(cur.High - prev.Close); d > tr {
		tr = d
	}
	if d := math.Abs(cur.Low - prev.Close); d > tr {
		tr = d
	}
	return tr
}

// atrIndicator computes the Wilder-smoothed average true range.
// The first bar's true range is high-low (no previous close).
func atrIndicator(s *domain.PriceSeries, p Params) []float64 {
	period := p.Period(14)
	n := len(s.Bars)
	if period < 1 || n < period {
		return nanSlice(n)
	}

	tr := make([]float64, n)
	for i, b := range s.Bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		tr[i] = trueRange(b, s.Bars[i-1])
	}
	return wilderValues(tr, period, 0)
}

// atrRatioIndicator is ATR divided by the close, a scale-free volatility
// measure. Zero close yields NaN at that position.
func atrRatioIndicator(s *domain.PriceSeries, p Params) []float64 {
	atr := atrIndicator(s, p)
	out := nanSlice(len(atr))
	for i, b := range s.Bars {
		if b.Close == 0 {
			continue
		}
		out[i] = atr[i] / b.Close
	}
	return out
}

func bollinger(s *domain.PriceSeries, p Params) (mid, band []float64) {
	period := p.Period(20)
	k := p.floatVal("stddev", defaultBollingerK)
	values := closes(s)

	mid = smaValues(values, period)
	std := rollingStd(values, period)
	band = make([]float64, len(values))
	for i := range band {
		band[i] = k * std[i]
	}
	return mid, band
}

func bbMidIndicator(s *domain.PriceSeries, p Params) []float64 {
	mid, _ := bollinger(s, p)
	return mid
}

func bbHighIndicator(s *domain.PriceSeries, p Params) []float64 {
	mid, band := bollinger(s, p)
	out := make([]float64, len(mid))
	for i := range out {
		out[i] = mid[i] + band[i]
	}
	return out
}

func bbLowIndicator(s *domain.PriceSeries, p Params) []float64 {
	mid, band := bollinger(s, p)
	out := make([]float64, len(mid))
	for i := range out {
		out[i] = mid[i] - band[i]
	}
	return out
}
