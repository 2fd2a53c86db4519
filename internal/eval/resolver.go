package eval

import (
	"math"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/indicator"
)

// resolved is the outcome of resolving one operand. Undecided covers
// every insufficient-data case: offset beyond available history, NaN
// warmup positions, or an unresolvable reference.
type resolved struct {
	value   float64
	decided bool
}

func undecided() resolved        { return resolved{value: math.NaN()} }
func decided(v float64) resolved { return resolved{value: v, decided: true} }

// resolveOperand resolves an operand to a scalar as of the latest bar.
// visited guards reference chains; load-time validation already rejects
// cycles, so a repeat visit here only defends against hand-built
// strategies that skipped validation.
func resolveOperand(s *domain.Strategy, op *domain.Operand, ctx *Context, visited map[string]bool) resolved {
	var r resolved
	switch op.Type {
	case domain.OperandValue:
		r = decided(op.Value)

	case domain.OperandRef:
		target, ok := s.Operands[op.Ref]
		if !ok || visited[op.Ref] {
			return undecided()
		}
		visited[op.Ref] = true
		r = resolveOperand(s, target, ctx, visited)

	case domain.OperandIndicator:
		r = resolveIndicator(op, ctx)

	default:
		return undecided()
	}

	if !r.decided {
		return r
	}
	// RHS-only transforms, applied after resolution.
	if op.Multiplier != nil {
		r.value *= *op.Multiplier
	}
	if op.AddOffset != nil {
		r.value += *op.AddOffset
	}
	return r
}

// resolveIndicator indexes the indicator series at length-1-offset.
func resolveIndicator(op *domain.Operand, ctx *Context) resolved {
	tf := op.Timeframe
	if tf == "" {
		tf = domain.TimeframeDaily
	}

	values, err := ctx.IndicatorSeries(op.Name, indicator.Params(op.Params), tf)
	if err != nil {
		// Unknown indicators are rejected at load time; an error here
		// means the strategy bypassed validation. Treat as undecidable
		// rather than faulting the whole run.
		return undecided()
	}

	idx := len(values) - 1 - op.Offset
	if idx < 0 {
		return undecided()
	}
	v := values[idx]
	if math.IsNaN(v) {
		return undecided()
	}
	return decided(v)
}
