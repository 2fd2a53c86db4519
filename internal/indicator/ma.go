package indicator

import (
	"math"

	"stock-screener-lab/internal/domain"
)

func smaIndicator(s *domain.PriceSeries, p Params) []float64 {
	return smaValues(closes(s), p.Period(20))
}

func emaIndicator(s *domain.PriceSeries, p Params) []float64 {
	return emaValues(closes(s), p.Period(20))
}

func wmaIndicator(s *domain.PriceSeries, p Params) []float64 {
	return wmaValues(closes(s), p.Period(20))
}

// hmaIndicator computes the Hull moving average:
// WMA(2*WMA(period/2) - WMA(period), sqrt(period)).
func hmaIndicator(s *domain.PriceSeries, p Params) []float64 {
	period := p.Period(20)
	values := closes(s)

	half := period / 2
	if half < 1 {
		half = 1
	}
	sqrtP := int(math.Sqrt(float64(period)))
	if sqrtP < 1 {
		sqrtP = 1
	}

	wmaHalf := wmaValues(values, half)
	wmaFull := wmaValues(values, period)

	raw := nanSlice(len(values))
	for i := range values {
		raw[i] = 2*wmaHalf[i] - wmaFull[i]
	}

	// The leading NaNs of raw would poison the final WMA window, so the
	// last smoothing runs on the defined suffix only.
	first := period - 1
	if first >= len(raw) {
		return nanSlice(len(values))
	}
	smoothed := wmaValues(raw[first:], sqrtP)

	out := nanSlice(len(values))
	copy(out[first:], smoothed)
	return out
}

// vwmaIndicator computes the volume weighted moving average:
// sum(close*volume) / sum(volume) over the window.
func vwmaIndicator(s *domain.PriceSeries, p Params) []float64 {
	period := p.Period(20)
	out := nanSlice(len(s.Bars))
	if period < 1 || len(s.Bars) < period {
		return out
	}
	for i := period - 1; i < len(s.Bars); i++ {
		var pv, v float64
		for j := i - period + 1; j <= i; j++ {
			pv += s.Bars[j].Close * float64(s.Bars[j].Volume)
			v += float64(s.Bars[j].Volume)
		}
		if v == 0 {
			// No volume in the window: fall back to the plain mean close.
			var sum float64
			for j := i - period + 1; j <= i; j++ {
				sum += s.Bars[j].Close
			}
			out[i] = sum / float64(period)
			continue
		}
		out[i] = pv / v
	}
	return out
}

func volumeSMAIndicator(s *domain.PriceSeries, p Params) []float64 {
	return smaValues(volumes(s), p.Period(20))
}
