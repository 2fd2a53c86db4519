package strategy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/indicator"
)

var validate = validator.New()

// Load reads and validates a strategy JSON file.
func Load(path string) (*domain.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a strategy from JSON bytes. The returned
// strategy has defaults applied (daily timeframe, default periods left to
// the indicator layer) and is safe to share across concurrent evaluations.
func Parse(data []byte) (*domain.Strategy, error) {
	var s domain.Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, definitionErr("", fmt.Errorf("invalid JSON: %w", err))
	}

	if err := validate.Struct(&s); err != nil {
		// Map the struct-shape failures onto the definition taxonomy.
		if strings.TrimSpace(s.Name) == "" {
			return nil, definitionErr(s.Name, ErrMissingName)
		}
		if len(s.Conditions) == 0 {
			return nil, definitionErr(s.Name, ErrNoConditions)
		}
		return nil, definitionErr(s.Name, err)
	}

	if err := validateStrategy(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDir loads every *.json strategy in dir, sorted by file name.
func LoadDir(dir string) ([]*domain.Strategy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read strategy dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	strategies := make([]*domain.Strategy, 0, len(names))
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// validateStrategy applies the semantic checks the struct validator cannot
// express: operand union shape, indicator registry, reference graph.
func validateStrategy(s *domain.Strategy) error {
	if strings.TrimSpace(s.Name) == "" {
		return definitionErr(s.Name, ErrMissingName)
	}
	if len(s.Conditions) == 0 {
		return definitionErr(s.Name, ErrNoConditions)
	}

	for id, op := range s.Operands {
		if op == nil {
			return definitionErr(s.Name, fmt.Errorf("operand %q: %w", id, ErrUnknownOperandType))
		}
		if err := validateOperand(s, op, sideDeclare); err != nil {
			return definitionErr(s.Name, fmt.Errorf("operand %q: %w", id, err))
		}
	}
	if err := checkRefCycles(s); err != nil {
		return definitionErr(s.Name, err)
	}

	for i := range s.Conditions {
		c := &s.Conditions[i]
		if !domain.ValidOperator(c.Operator) {
			return definitionErr(s.Name, fmt.Errorf("condition %d: %w: %q", i+1, ErrUnknownOperator, c.Operator))
		}
		if c.Tolerance != nil && *c.Tolerance <= 0 {
			return definitionErr(s.Name, fmt.Errorf("condition %d: %w", i+1, ErrInvalidTolerance))
		}
		if err := validateOperand(s, &c.LHS, sideLHS); err != nil {
			return definitionErr(s.Name, fmt.Errorf("condition %d lhs: %w", i+1, err))
		}
		if err := validateOperand(s, &c.RHS, sideRHS); err != nil {
			return definitionErr(s.Name, fmt.Errorf("condition %d rhs: %w", i+1, err))
		}
	}
	return nil
}

// validateOperand checks one operand in place, applying defaults.
func validateOperand(s *domain.Strategy, op *domain.Operand, side operandSide) error {
	if side == sideLHS && (op.Multiplier != nil || op.AddOffset != nil) {
		return ErrLHSTransform
	}

	switch op.Type {
	case domain.OperandValue:
		return nil

	case domain.OperandRef:
		if _, ok := s.Operands[op.Ref]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRef, op.Ref)
		}
		// A transform reached through an LHS ref would slip past the
		// RHS-only rule.
		if side == sideLHS && refCarriesTransform(s, op.Ref) {
			return ErrLHSTransform
		}
		return nil

	case domain.OperandIndicator:
		if op.Timeframe == "" {
			op.Timeframe = domain.TimeframeDaily
		}
		if !domain.ValidTimeframe(op.Timeframe) {
			return fmt.Errorf("%w: %q", ErrUnknownTimeframe, op.Timeframe)
		}
		if op.Offset < 0 {
			return ErrNegativeOffset
		}
		return indicator.Validate(op.Name, indicator.Params(op.Params))

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperandType, op.Type)
	}
}

// refCarriesTransform reports whether the named operand, or any operand
// it references, carries a multiplier/add_offset.
func refCarriesTransform(s *domain.Strategy, id string) bool {
	visited := map[string]bool{}
	for cur := id; !visited[cur]; {
		visited[cur] = true
		op := s.Operands[cur]
		if op == nil {
			return false
		}
		if op.Multiplier != nil || op.AddOffset != nil {
			return true
		}
		if op.Type != domain.OperandRef {
			return false
		}
		cur = op.Ref
	}
	return false
}

// checkRefCycles walks the named-operand reference graph with a visited
// set, failing fast on repeat visitation instead of recursing forever.
func checkRefCycles(s *domain.Strategy) error {
	for id := range s.Operands {
		visited := map[string]bool{}
		cur := id
		for {
			if visited[cur] {
				return fmt.Errorf("%w: starting at %q", ErrCyclicRef, id)
			}
			visited[cur] = true

			op := s.Operands[cur]
			if op == nil || op.Type != domain.OperandRef {
				break
			}
			if _, ok := s.Operands[op.Ref]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownRef, op.Ref)
			}
			cur = op.Ref
		}
	}
	return nil
}
