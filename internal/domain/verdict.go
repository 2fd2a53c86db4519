package domain

// Verdict is the per-symbol screening outcome.
type Verdict string

const (
	VerdictMatched    Verdict = "MATCHED"
	VerdictNotMatched Verdict = "NOT_MATCHED"
	VerdictSkipped    Verdict = "SKIPPED"
)

// Skip reasons attached to VerdictSkipped.
const (
	SkipInsufficientData = "insufficient_data"
	SkipNoData           = "no_data"
)

// ConditionValue captures the resolved sides of one condition, kept for
// result display. NaN marks a side that did not resolve.
type ConditionValue struct {
	LHS float64 `json:"lhs"`
	RHS float64 `json:"rhs"`
}

// SymbolResult is one row of a screening run.
type SymbolResult struct {
	Symbol     string           `json:"symbol"`
	Verdict    Verdict          `json:"verdict"`
	SkipReason string           `json:"skip_reason,omitempty"`
	Values     []ConditionValue `json:"values,omitempty"` // per condition, in declaration order
}
