// Package strategy loads screening strategies from JSON and validates them
// into strongly typed definitions before any symbol is screened.
//
// Validation is eager: unknown indicators, malformed params, empty
// condition lists and cyclic operand references are all DefinitionErrors
// raised at load time, never during evaluation.
package strategy

import (
	"errors"
	"fmt"
)

// Definition error causes. All are wrapped in *DefinitionError.
var (
	ErrNoConditions       = errors.New("strategy must define at least one condition")
	ErrMissingName        = errors.New("strategy must have a non-empty name")
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrUnknownTimeframe   = errors.New("unknown timeframe")
	ErrNegativeOffset     = errors.New("offset must be non-negative")
	ErrUnknownOperandType = errors.New("unknown operand type")
	ErrUnknownRef         = errors.New("operand references an undeclared id")
	ErrCyclicRef          = errors.New("cyclic operand reference")
	ErrLHSTransform       = errors.New("multiplier/add_offset are only valid on the RHS")
	ErrInvalidTolerance   = errors.New("tolerance must be positive")
)

// DefinitionError marks a malformed strategy. It is fatal to the strategy:
// the screening run is never started, and nothing is retried.
type DefinitionError struct {
	Strategy string
	Err      error
}

func (e *DefinitionError) Error() string {
	if e.Strategy == "" {
		return fmt.Sprintf("strategy definition: %v", e.Err)
	}
	return fmt.Sprintf("strategy %q: %v", e.Strategy, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

func definitionErr(name string, err error) error {
	return &DefinitionError{Strategy: name, Err: err}
}

// operandSide tells validation which transforms an operand may carry.
type operandSide string

const (
	sideLHS     operandSide = "lhs"
	sideRHS     operandSide = "rhs"
	sideDeclare operandSide = "operands" // entries of the named-operand map
)
