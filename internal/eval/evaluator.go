package eval

import (
	"math"

	"stock-screener-lab/internal/domain"
)

// MatchResult is the outcome of one condition.
type MatchResult string

const (
	Pass        MatchResult = "PASS"
	Fail        MatchResult = "FAIL"
	Undecidable MatchResult = "UNDECIDABLE"
)

// epsilon is the relative tolerance for == and != comparisons.
const epsilon = 1e-9

// defaultApproxTolerance is the percent tolerance for ~= when the
// condition does not carry one.
const defaultApproxTolerance = 1.0

// Result is the verdict of one strategy evaluation for one symbol.
type Result struct {
	Verdict    domain.Verdict
	SkipReason string
	// Values holds the resolved sides of each condition evaluated, in
	// declaration order. Short-circuiting means it may be shorter than
	// the strategy's condition list; unresolved sides are NaN.
	Values []domain.ConditionValue
}

// Evaluator decides whether symbols satisfy a strategy. It is stateless
// across symbols and safe for concurrent use: every Evaluate call builds
// its own Context.
type Evaluator struct {
	strategy *domain.Strategy
}

// New creates an evaluator for a parsed, validated strategy.
func New(s *domain.Strategy) *Evaluator {
	return &Evaluator{strategy: s}
}

// Strategy returns the strategy under evaluation.
func (e *Evaluator) Strategy() *domain.Strategy { return e.strategy }

// Evaluate runs every condition in declaration order against the symbol's
// daily series. The combine rule is AND with short-circuiting: the first
// Undecidable condition yields Skipped (an undecidable symbol is never
// treated as a pass or a fail), the first Fail yields NotMatched, and a
// full pass yields Matched.
func (e *Evaluator) Evaluate(daily *domain.PriceSeries) Result {
	ctx := NewContext(daily)
	res := Result{Verdict: domain.VerdictMatched}

	for i := range e.strategy.Conditions {
		outcome, values := e.evaluateCondition(&e.strategy.Conditions[i], ctx)
		res.Values = append(res.Values, values)

		switch outcome {
		case Undecidable:
			res.Verdict = domain.VerdictSkipped
			res.SkipReason = domain.SkipInsufficientData
			return res
		case Fail:
			res.Verdict = domain.VerdictNotMatched
			return res
		}
	}
	return res
}

// EvaluateCondition evaluates a single condition against a context.
// Exposed for condition-level testing; Evaluate is the normal entry point.
func (e *Evaluator) EvaluateCondition(c *domain.Condition, ctx *Context) MatchResult {
	outcome, _ := e.evaluateCondition(c, ctx)
	return outcome
}

func (e *Evaluator) evaluateCondition(c *domain.Condition, ctx *Context) (MatchResult, domain.ConditionValue) {
	lhs := resolveOperand(e.strategy, &c.LHS, ctx, map[string]bool{})
	rhs := resolveOperand(e.strategy, &c.RHS, ctx, map[string]bool{})
	values := domain.ConditionValue{LHS: lhs.value, RHS: rhs.value}

	if !lhs.decided || !rhs.decided {
		return Undecidable, values
	}
	if compare(lhs.value, c.Operator, rhs.value, c.Tolerance) {
		return Pass, values
	}
	return Fail, values
}

// compare applies the operator with float semantics: == and != use a
// relative epsilon, ~= uses a percent tolerance of the RHS.
func compare(lhs float64, op domain.Operator, rhs float64, tolerance *float64) bool {
	switch op {
	case domain.OpGT:
		return lhs > rhs
	case domain.OpLT:
		return lhs < rhs
	case domain.OpGTE:
		return lhs >= rhs
	case domain.OpLTE:
		return lhs <= rhs
	case domain.OpEQ:
		return almostEqual(lhs, rhs)
	case domain.OpNEQ:
		return !almostEqual(lhs, rhs)
	case domain.OpApprox:
		tol := defaultApproxTolerance
		if tolerance != nil {
			tol = *tolerance
		}
		bound := math.Abs(rhs) * tol / 100
		return math.Abs(lhs-rhs) <= bound
	default:
		return false
	}
}

// almostEqual compares with relative epsilon, falling back to absolute
// for magnitudes below 1.
func almostEqual(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(a-b) <= epsilon*scale
}
