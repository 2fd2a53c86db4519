package domain

// OperandType discriminates the Operand tagged variant.
type OperandType string

const (
	OperandIndicator OperandType = "indicator"
	OperandValue     OperandType = "value"
	OperandRef       OperandType = "ref"
)

// Operand is one side of a comparison condition.
//
// Exactly one variant applies, selected by Type:
//   - indicator: Name/Params/Timeframe/Offset describe an indicator value.
//     Offset counts bars back from the most recent bar of the operand's
//     own timeframe (offset 0 = latest bar).
//   - value: Value holds a numeric literal.
//   - ref: Ref names an operand declared in the strategy's Operands map.
//
// Multiplier and AddOffset are RHS-only transforms applied after
// resolution: resolved*Multiplier + AddOffset.
type Operand struct {
	Type       OperandType        `json:"type"`
	Name       string             `json:"name,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
	Timeframe  Timeframe          `json:"timeframe,omitempty"`
	Offset     int                `json:"offset,omitempty"`
	Value      float64            `json:"value,omitempty"`
	Ref        string             `json:"ref,omitempty"`
	Multiplier *float64           `json:"multiplier,omitempty"`
	AddOffset  *float64           `json:"add_offset,omitempty"`
}

// Operator is a comparison operator in a condition.
type Operator string

const (
	OpGT     Operator = ">"
	OpLT     Operator = "<"
	OpGTE    Operator = ">="
	OpLTE    Operator = "<="
	OpEQ     Operator = "=="
	OpNEQ    Operator = "!="
	OpApprox Operator = "~=" // equal within a percent tolerance
)

// ValidOperator reports whether op is a supported comparison operator.
func ValidOperator(op Operator) bool {
	switch op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ, OpApprox:
		return true
	}
	return false
}

// Condition compares two resolved operands.
// Tolerance applies to the ~= operator only, as a percentage of the RHS
// (default 1.0 when omitted).
type Condition struct {
	LHS       Operand  `json:"lhs"`
	Operator  Operator `json:"operator"`
	RHS       Operand  `json:"rhs"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

// Strategy is a declarative screening rule: a set of conditions combined
// by logical AND. Strategies are immutable after load; the same parsed
// strategy is shared by all concurrent symbol evaluations.
type Strategy struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Operands    map[string]*Operand `json:"operands,omitempty"`
	Conditions  []Condition         `json:"conditions" validate:"required,min=1"`
}
