package indicator

import (
	"math"

	"stock-screener-lab/internal/domain"
)

// MACD default parameters (fast/slow EMA and signal EMA periods).
const (
	defaultMACDFast   = 12
	defaultMACDSlow   = 26
	defaultMACDSignal = 9
)

// rsiIndicator computes the Relative Strength Index with Wilder smoothing
// of average gains and losses. The first period positions are NaN. A zero
// average loss saturates to 100.
func rsiIndicator(s *domain.PriceSeries, p Params) []float64 {
	period := p.Period(14)
	values := closes(s)
	out := nanSlice(len(values))
	if period < 1 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// macdLine computes fast EMA minus slow EMA. NaN until the slow EMA is
// defined.
func macdLine(values []float64, fast, slow int) []float64 {
	fastEMA := emaValues(values, fast)
	slowEMA := emaValues(values, slow)
	out := nanSlice(len(values))
	for i := range values {
		out[i] = fastEMA[i] - slowEMA[i] // NaN propagates from either side
	}
	return out
}

func macdIndicator(s *domain.PriceSeries, p Params) []float64 {
	return macdLine(closes(s), p.intVal("fast", defaultMACDFast), p.intVal("slow", defaultMACDSlow))
}

// macdSignalIndicator computes the EMA-smoothed signal line of the MACD.
// Defined once signal-period MACD values exist past the slow EMA warmup.
func macdSignalIndicator(s *domain.PriceSeries, p Params) []float64 {
	slow := p.intVal("slow", defaultMACDSlow)
	signal := p.intVal("signal", defaultMACDSignal)

	macd := macdIndicator(s, p)
	out := nanSlice(len(macd))

	first := slow - 1 // first defined MACD index
	if first < 0 || first >= len(macd) {
		return out
	}
	smoothed := emaValues(macd[first:], signal)
	copy(out[first:], smoothed)
	return out
}

// adxIndicator computes the Average Directional Index in the standard
// Wilder formulation: smoothed +DM/-DM over smoothed true range give the
// directional indices, whose normalized spread (DX) is Wilder-smoothed
// again. Defined from index 2*period-1.
func adxIndicator(s *domain.PriceSeries, p Params) []float64 {
	period := p.Period(14)
	n := len(s.Bars)
	out := nanSlice(n)
	if period < 1 || n < 2*period {
		return out
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		cur, prev := s.Bars[i], s.Bars[i-1]
		tr[i] = trueRange(cur, prev)

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	// Smooth from index 1: index 0 has no preceding bar.
	smTR := wilderValues(tr, period, 1)
	smPlus := wilderValues(plusDM, period, 1)
	smMinus := wilderValues(minusDM, period, 1)

	dx := nanSlice(n)
	for i := period; i < n; i++ {
		if math.IsNaN(smTR[i]) || smTR[i] == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	smoothedDX := wilderValues(dx, period, period)
	copy(out, smoothedDX)
	return out
}
