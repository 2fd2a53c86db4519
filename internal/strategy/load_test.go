package strategy

import (
	"errors"
	"testing"

	"stock-screener-lab/internal/domain"
)

const oversoldJSON = `{
	"name": "RSI Oversold",
	"description": "RSI below 30 with price above 50",
	"conditions": [
		{
			"lhs": {"type": "indicator", "name": "rsi", "params": {"period": 14}, "timeframe": "daily", "offset": 0},
			"operator": "<",
			"rhs": {"type": "value", "value": 30}
		},
		{
			"lhs": {"type": "indicator", "name": "close"},
			"operator": ">",
			"rhs": {"type": "value", "value": 50}
		}
	]
}`

func TestParse_Valid(t *testing.T) {
	s, err := Parse([]byte(oversoldJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Name != "RSI Oversold" {
		t.Errorf("name: got %q", s.Name)
	}
	if len(s.Conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(s.Conditions))
	}
	// Missing timeframe defaults to daily.
	if s.Conditions[1].LHS.Timeframe != domain.TimeframeDaily {
		t.Errorf("expected daily default timeframe, got %q", s.Conditions[1].LHS.Timeframe)
	}
}

func TestParse_DefinitionErrors(t *testing.T) {
	cases := []struct {
		name string
		json string
		want error
	}{
		{
			"zero conditions",
			`{"name": "Empty", "conditions": []}`,
			ErrNoConditions,
		},
		{
			"missing name",
			`{"conditions": [{"lhs": {"type": "value", "value": 1}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrMissingName,
		},
		{
			"unknown indicator",
			`{"name": "S", "conditions": [{"lhs": {"type": "indicator", "name": "zigzag"}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			nil, // any DefinitionError; cause checked via errors.As below
		},
		{
			"unknown operator",
			`{"name": "S", "conditions": [{"lhs": {"type": "value", "value": 1}, "operator": "<>", "rhs": {"type": "value", "value": 0}}]}`,
			ErrUnknownOperator,
		},
		{
			"unknown operand type",
			`{"name": "S", "conditions": [{"lhs": {"type": "column", "name": "close"}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrUnknownOperandType,
		},
		{
			"bad timeframe",
			`{"name": "S", "conditions": [{"lhs": {"type": "indicator", "name": "close", "timeframe": "hourly"}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrUnknownTimeframe,
		},
		{
			"negative offset",
			`{"name": "S", "conditions": [{"lhs": {"type": "indicator", "name": "close", "offset": -1}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrNegativeOffset,
		},
		{
			"multiplier on lhs",
			`{"name": "S", "conditions": [{"lhs": {"type": "indicator", "name": "close", "multiplier": 2}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrLHSTransform,
		},
		{
			"unknown ref",
			`{"name": "S", "conditions": [{"lhs": {"type": "ref", "ref": "ghost"}, "operator": ">", "rhs": {"type": "value", "value": 0}}]}`,
			ErrUnknownRef,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.json))
			if err == nil {
				t.Fatal("expected a definition error")
			}
			var defErr *DefinitionError
			if !errors.As(err, &defErr) {
				t.Fatalf("expected *DefinitionError, got %T: %v", err, err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("expected cause %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParse_CyclicRefs(t *testing.T) {
	cyclic := `{
		"name": "Cycle",
		"operands": {
			"a": {"type": "ref", "ref": "b"},
			"b": {"type": "ref", "ref": "a"}
		},
		"conditions": [
			{"lhs": {"type": "ref", "ref": "a"}, "operator": ">", "rhs": {"type": "value", "value": 0}}
		]
	}`

	_, err := Parse([]byte(cyclic))
	if !errors.Is(err, ErrCyclicRef) {
		t.Fatalf("expected ErrCyclicRef, got %v", err)
	}
}

func TestParse_SelfRef(t *testing.T) {
	selfRef := `{
		"name": "Self",
		"operands": {"a": {"type": "ref", "ref": "a"}},
		"conditions": [
			{"lhs": {"type": "ref", "ref": "a"}, "operator": ">", "rhs": {"type": "value", "value": 0}}
		]
	}`

	_, err := Parse([]byte(selfRef))
	if !errors.Is(err, ErrCyclicRef) {
		t.Fatalf("expected ErrCyclicRef, got %v", err)
	}
}

func TestParse_NamedOperandChain(t *testing.T) {
	chain := `{
		"name": "Chain",
		"operands": {
			"sma200w": {"type": "indicator", "name": "sma", "params": {"period": 200}, "timeframe": "weekly"},
			"alias": {"type": "ref", "ref": "sma200w"}
		},
		"conditions": [
			{"lhs": {"type": "indicator", "name": "close"}, "operator": ">", "rhs": {"type": "ref", "ref": "alias"}}
		]
	}`

	s, err := Parse([]byte(chain))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Operands["sma200w"].Timeframe != domain.TimeframeWeekly {
		t.Errorf("named operand timeframe: got %q", s.Operands["sma200w"].Timeframe)
	}
}

func TestParse_TransformedRefOnLHS(t *testing.T) {
	// A named operand may carry a multiplier for RHS use, but referencing
	// it from an LHS must be rejected like a direct LHS transform.
	lhsRef := `{
		"name": "Discounted",
		"operands": {
			"discounted_close": {"type": "indicator", "name": "close", "multiplier": 0.95}
		},
		"conditions": [
			{"lhs": {"type": "ref", "ref": "discounted_close"}, "operator": ">", "rhs": {"type": "value", "value": 100}}
		]
	}`
	if _, err := Parse([]byte(lhsRef)); !errors.Is(err, ErrLHSTransform) {
		t.Fatalf("expected ErrLHSTransform for transformed LHS ref, got %v", err)
	}

	rhsRef := `{
		"name": "Discounted",
		"operands": {
			"discounted_close": {"type": "indicator", "name": "close", "multiplier": 0.95}
		},
		"conditions": [
			{"lhs": {"type": "indicator", "name": "close"}, "operator": ">", "rhs": {"type": "ref", "ref": "discounted_close"}}
		]
	}`
	if _, err := Parse([]byte(rhsRef)); err != nil {
		t.Fatalf("transformed RHS ref should be valid, got %v", err)
	}

	// The chain case: an untransformed alias of a transformed operand is
	// just as illegal on the LHS.
	chained := `{
		"name": "Discounted",
		"operands": {
			"discounted_close": {"type": "indicator", "name": "close", "multiplier": 0.95},
			"alias": {"type": "ref", "ref": "discounted_close"}
		},
		"conditions": [
			{"lhs": {"type": "ref", "ref": "alias"}, "operator": ">", "rhs": {"type": "value", "value": 100}}
		]
	}`
	if _, err := Parse([]byte(chained)); !errors.Is(err, ErrLHSTransform) {
		t.Fatalf("expected ErrLHSTransform for chained LHS ref, got %v", err)
	}
}

func TestParse_ApproxTolerance(t *testing.T) {
	bad := `{
		"name": "Approx",
		"conditions": [
			{"lhs": {"type": "indicator", "name": "close"}, "operator": "~=", "rhs": {"type": "value", "value": 100}, "tolerance": -2}
		]
	}`
	if _, err := Parse([]byte(bad)); !errors.Is(err, ErrInvalidTolerance) {
		t.Fatalf("expected ErrInvalidTolerance, got %v", err)
	}

	good := `{
		"name": "Approx",
		"conditions": [
			{"lhs": {"type": "indicator", "name": "close"}, "operator": "~=", "rhs": {"type": "value", "value": 100}, "tolerance": 0.5}
		]
	}`
	if _, err := Parse([]byte(good)); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"name": `))
	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected *DefinitionError for invalid JSON, got %v", err)
	}
}
