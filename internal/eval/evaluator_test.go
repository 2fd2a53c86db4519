package eval

import (
	"math"
	"testing"
	"time"

	"stock-screener-lab/internal/domain"
)

// dailySeries builds a weekday-only daily series from closes.
func dailySeries(closes ...float64) *domain.PriceSeries {
	s := &domain.PriceSeries{Symbol: "TEST", Timeframe: domain.TimeframeDaily}
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < len(closes); {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			c := closes[i]
			s.Bars = append(s.Bars, domain.PriceBar{
				Date: d, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
			})
			i++
		}
		d = d.AddDate(0, 0, 1)
	}
	return s
}

// fallingTo builds n bars falling by 2 per bar and ending at last.
func fallingTo(last float64, n int) *domain.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = last + 2*float64(n-1-i)
	}
	return dailySeries(closes...)
}

func indicatorOp(name string, params map[string]float64) domain.Operand {
	return domain.Operand{
		Type:      domain.OperandIndicator,
		Name:      name,
		Params:    params,
		Timeframe: domain.TimeframeDaily,
	}
}

func valueOp(v float64) domain.Operand {
	return domain.Operand{Type: domain.OperandValue, Value: v}
}

// oversoldStrategy: rsi(14) < 30 AND close > 50.
func oversoldStrategy() *domain.Strategy {
	return &domain.Strategy{
		Name: "RSI Oversold",
		Conditions: []domain.Condition{
			{LHS: indicatorOp("rsi", map[string]float64{"period": 14}), Operator: domain.OpLT, RHS: valueOp(30)},
			{LHS: indicatorOp("close", nil), Operator: domain.OpGT, RHS: valueOp(50)},
		},
	}
}

func TestEvaluate_Matched(t *testing.T) {
	// Falling series ending at 60: RSI well below 30, close above 50.
	res := New(oversoldStrategy()).Evaluate(fallingTo(60, 20))

	if res.Verdict != domain.VerdictMatched {
		t.Fatalf("expected Matched, got %s (%s)", res.Verdict, res.SkipReason)
	}
	if len(res.Values) != 2 {
		t.Fatalf("expected 2 condition values, got %d", len(res.Values))
	}
	if res.Values[0].LHS >= 30 {
		t.Errorf("RSI value: expected < 30, got %v", res.Values[0].LHS)
	}
	if res.Values[1].LHS != 60 {
		t.Errorf("close value: expected 60, got %v", res.Values[1].LHS)
	}
}

func TestEvaluate_NotMatched(t *testing.T) {
	// Same shape ending at 40: RSI condition passes, close fails.
	res := New(oversoldStrategy()).Evaluate(fallingTo(40, 20))

	if res.Verdict != domain.VerdictNotMatched {
		t.Fatalf("expected NotMatched, got %s", res.Verdict)
	}
}

func TestEvaluate_SkippedOnShortHistory(t *testing.T) {
	// 10 bars cannot feed RSI(14).
	res := New(oversoldStrategy()).Evaluate(fallingTo(60, 10))

	if res.Verdict != domain.VerdictSkipped {
		t.Fatalf("expected Skipped, got %s", res.Verdict)
	}
	if res.SkipReason != domain.SkipInsufficientData {
		t.Errorf("expected reason %q, got %q", domain.SkipInsufficientData, res.SkipReason)
	}
}

func TestEvaluate_MACDSignalNeedsSlowPlusSignal(t *testing.T) {
	s := &domain.Strategy{
		Name: "MACD turn",
		Conditions: []domain.Condition{
			{LHS: indicatorOp("macd_signal", nil), Operator: domain.OpLT, RHS: valueOp(0)},
		},
	}

	// 33 bars < slow(26) + signal(9) - 1: undecidable.
	if res := New(s).Evaluate(fallingTo(60, 33)); res.Verdict != domain.VerdictSkipped {
		t.Errorf("33 bars: expected Skipped, got %s", res.Verdict)
	}
	// 40 bars: defined; falling series has a negative signal line.
	if res := New(s).Evaluate(fallingTo(60, 40)); res.Verdict != domain.VerdictMatched {
		t.Errorf("40 bars: expected Matched, got %s", res.Verdict)
	}
}

func TestEvaluate_UndecidableNeverFails(t *testing.T) {
	// First condition undecidable, second would fail. The verdict must be
	// Skipped: an undecidable symbol is never classified.
	s := &domain.Strategy{
		Name: "Ordering",
		Conditions: []domain.Condition{
			{LHS: indicatorOp("sma", map[string]float64{"period": 200}), Operator: domain.OpGT, RHS: valueOp(0)},
			{LHS: indicatorOp("close", nil), Operator: domain.OpGT, RHS: valueOp(1e9)},
		},
	}

	res := New(s).Evaluate(fallingTo(60, 20))
	if res.Verdict != domain.VerdictSkipped {
		t.Fatalf("expected Skipped, got %s", res.Verdict)
	}
}

func TestEvaluate_ShortCircuitOnFail(t *testing.T) {
	s := &domain.Strategy{
		Name: "Short circuit",
		Conditions: []domain.Condition{
			{LHS: indicatorOp("close", nil), Operator: domain.OpGT, RHS: valueOp(1e9)},
			{LHS: indicatorOp("close", nil), Operator: domain.OpGT, RHS: valueOp(0)},
		},
	}

	res := New(s).Evaluate(fallingTo(60, 5))
	if res.Verdict != domain.VerdictNotMatched {
		t.Fatalf("expected NotMatched, got %s", res.Verdict)
	}
	if len(res.Values) != 1 {
		t.Errorf("expected evaluation to stop after the failing condition, got %d values", len(res.Values))
	}
}

func TestResolve_OffsetSemantics(t *testing.T) {
	series := dailySeries(10, 20, 30)
	strat := &domain.Strategy{Name: "offsets"}
	ctx := NewContext(series)

	for _, tc := range []struct {
		offset int
		want   float64
	}{
		{0, 30}, {1, 20}, {2, 10},
	} {
		op := indicatorOp("close", nil)
		op.Offset = tc.offset
		r := resolveOperand(strat, &op, ctx, map[string]bool{})
		if !r.decided || r.value != tc.want {
			t.Errorf("offset %d: expected %v, got %v (decided=%v)", tc.offset, tc.want, r.value, r.decided)
		}
	}

	// Offset beyond history is undecidable, not a fault.
	op := indicatorOp("close", nil)
	op.Offset = 3
	if r := resolveOperand(strat, &op, ctx, map[string]bool{}); r.decided {
		t.Errorf("offset beyond history: expected undecidable, got %v", r.value)
	}
}

func TestResolve_WeeklyTimeframe(t *testing.T) {
	// Three ISO weeks of rising closes; weekly close offset 1 must hit the
	// last fully elapsed week before the forming one.
	series := dailySeries(
		1, 2, 3, 4, 5, // week 1
		6, 7, 8, 9, 10, // week 2
		11, 12, // forming week 3
	)
	strat := &domain.Strategy{Name: "weekly"}
	ctx := NewContext(series)

	op := indicatorOp("close", nil)
	op.Timeframe = domain.TimeframeWeekly
	op.Offset = 1
	r := resolveOperand(strat, &op, ctx, map[string]bool{})
	if !r.decided || r.value != 10 {
		t.Errorf("weekly offset 1: expected close 10, got %v (decided=%v)", r.value, r.decided)
	}
}

func TestResolve_RefAndTransforms(t *testing.T) {
	mult := 0.95
	add := 1.5
	strat := &domain.Strategy{
		Name: "refs",
		Operands: map[string]*domain.Operand{
			"last_close": {Type: domain.OperandIndicator, Name: "close", Timeframe: domain.TimeframeDaily},
		},
	}
	ctx := NewContext(dailySeries(10, 20, 40))

	op := domain.Operand{Type: domain.OperandRef, Ref: "last_close", Multiplier: &mult, AddOffset: &add}
	r := resolveOperand(strat, &op, ctx, map[string]bool{})
	if !r.decided {
		t.Fatal("expected decided ref resolution")
	}
	if want := 40*0.95 + 1.5; math.Abs(r.value-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, r.value)
	}

	// Unknown ref resolves as undecidable instead of faulting.
	bad := domain.Operand{Type: domain.OperandRef, Ref: "ghost"}
	if r := resolveOperand(strat, &bad, ctx, map[string]bool{}); r.decided {
		t.Error("unknown ref: expected undecidable")
	}
}

func TestMemoization(t *testing.T) {
	ctx := NewContext(fallingTo(60, 30))
	params := map[string]float64{"period": 14}

	first, err := ctx.IndicatorSeries("rsi", params, domain.TimeframeDaily)
	if err != nil {
		t.Fatalf("IndicatorSeries failed: %v", err)
	}
	second, err := ctx.IndicatorSeries("rsi", params, domain.TimeframeDaily)
	if err != nil {
		t.Fatalf("IndicatorSeries failed: %v", err)
	}

	if ctx.Computations() != 1 {
		t.Errorf("expected exactly 1 computation, got %d", ctx.Computations())
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if math.IsNaN(a) && math.IsNaN(b) {
			continue
		}
		if a != b {
			t.Errorf("position %d: %v != %v", i, a, b)
		}
	}

	// Different params are a separate computation.
	if _, err := ctx.IndicatorSeries("rsi", map[string]float64{"period": 7}, domain.TimeframeDaily); err != nil {
		t.Fatalf("IndicatorSeries failed: %v", err)
	}
	if ctx.Computations() != 2 {
		t.Errorf("expected 2 computations after differing params, got %d", ctx.Computations())
	}
}

func TestCompare_EpsilonEquality(t *testing.T) {
	if !compare(0.1+0.2, domain.OpEQ, 0.3, nil) {
		t.Error("0.1+0.2 == 0.3 should hold under epsilon comparison")
	}
	if compare(0.1+0.2, domain.OpNEQ, 0.3, nil) {
		t.Error("0.1+0.2 != 0.3 should not hold under epsilon comparison")
	}
	if compare(1.0, domain.OpEQ, 1.1, nil) {
		t.Error("1.0 == 1.1 should not hold")
	}
}

func TestCompare_Approx(t *testing.T) {
	// Default tolerance 1%.
	if !compare(100.5, domain.OpApprox, 100, nil) {
		t.Error("100.5 ~= 100 within 1% should hold")
	}
	if compare(102, domain.OpApprox, 100, nil) {
		t.Error("102 ~= 100 within 1% should not hold")
	}
	tol := 5.0
	if !compare(104, domain.OpApprox, 100, &tol) {
		t.Error("104 ~= 100 within 5% should hold")
	}
}

func TestEvaluate_EmptySeries(t *testing.T) {
	res := New(oversoldStrategy()).Evaluate(&domain.PriceSeries{Symbol: "EMPTY", Timeframe: domain.TimeframeDaily})
	if res.Verdict != domain.VerdictSkipped {
		t.Fatalf("expected Skipped on empty series, got %s", res.Verdict)
	}
}
