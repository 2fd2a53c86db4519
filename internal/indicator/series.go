package indicator

import (
	"math"

	"stock-screener-lab/internal/domain"
)

// Field extractors. Each returns a fresh slice aligned with the bars.

func closes(s *domain.PriceSeries) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func opens(s *domain.PriceSeries) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Open
	}
	return out
}

func highs(s *domain.PriceSeries) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func lows(s *domain.PriceSeries) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

func volumes(s *domain.PriceSeries) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

func openSeries(s *domain.PriceSeries, _ Params) []float64   { return opens(s) }
func highSeries(s *domain.PriceSeries, _ Params) []float64   { return highs(s) }
func lowSeries(s *domain.PriceSeries, _ Params) []float64    { return lows(s) }
func closeSeries(s *domain.PriceSeries, _ Params) []float64  { return closes(s) }
func volumeSeries(s *domain.PriceSeries, _ Params) []float64 { return volumes(s) }

// volumeTurnover is close*volume per bar (traded value).
func volumeTurnover(s *domain.PriceSeries, _ Params) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close * float64(b.Volume)
	}
	return out
}

// nanSlice returns a slice of n NaN values.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// smaValues computes a simple moving average over values.
// Positions before period-1 are NaN.
func smaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// emaValues computes an exponential moving average seeded with the SMA of
// the first period values. Positions before period-1 are NaN.
func emaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / float64(period+1)
	ema := seed
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*k + ema
		out[i] = ema
	}
	return out
}

// wmaValues computes a linearly weighted moving average (weights 1..period,
// most recent bar heaviest). Positions before period-1 are NaN.
func wmaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := period - 1; i < len(values); i++ {
		var sum float64
		for j := 0; j < period; j++ {
			sum += values[i-j] * float64(period-j)
		}
		out[i] = sum / denom
	}
	return out
}

// wilderValues applies Wilder smoothing (weight 1/period) seeded with the
// SMA of the first period values, starting at startIdx within values.
// Positions before startIdx+period-1 are NaN.
func wilderValues(values []float64, period, startIdx int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values)-startIdx < period {
		return out
	}
	var seed float64
	for i := startIdx; i < startIdx+period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[startIdx+period-1] = seed

	smoothed := seed
	for i := startIdx + period; i < len(values); i++ {
		smoothed = (smoothed*float64(period-1) + values[i]) / float64(period)
		out[i] = smoothed
	}
	return out
}

// rollingStd computes the rolling population standard deviation.
// Positions before period-1 are NaN.
func rollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		var mean float64
		for j := i - period + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(period)

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}
