package fdsearch

import "fmt"

// DecisionOperator is the branching relation applied by the search driver:
// the left branch applies it, the right branch applies its negation.
type DecisionOperator int

const (
	OpEq           DecisionOperator = iota // x = v  /  x ≠ v
	OpNeq                                  // x ≠ v  /  x = v
	OpSplit                                // x ≤ v  /  x ≥ v+1
	OpReverseSplit                         // x ≥ v  /  x ≤ v-1
)

func (op DecisionOperator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpSplit:
		return "<="
	case OpReverseSplit:
		return ">="
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// ParseDecisionOperator accepts "eq", "neq", "split" and "reverse-split".
func ParseDecisionOperator(s string) (DecisionOperator, error) {
	switch s {
	case "eq", "":
		return OpEq, nil
	case "neq":
		return OpNeq, nil
	case "split":
		return OpSplit, nil
	case "reverse-split":
		return OpReverseSplit, nil
	}
	return 0, fmt.Errorf("unknown decision operator %q: %w", s, ErrInvalidArgument)
}

// Apply narrows x according to the decision.
func (op DecisionOperator) Apply(x *IntVar, v int) error {
	var err error
	switch op {
	case OpEq:
		_, err = x.InstantiateTo(v, nil)
	case OpNeq:
		_, err = x.RemoveValue(v, nil)
	case OpSplit:
		_, err = x.UpdateUpperBound(v, nil)
	case OpReverseSplit:
		_, err = x.UpdateLowerBound(v, nil)
	}
	return err
}

// Unapply narrows x according to the negated decision.
func (op DecisionOperator) Unapply(x *IntVar, v int) error {
	var err error
	switch op {
	case OpEq:
		_, err = x.RemoveValue(v, nil)
	case OpNeq:
		_, err = x.InstantiateTo(v, nil)
	case OpSplit:
		_, err = x.UpdateLowerBound(v+1, nil)
	case OpReverseSplit:
		_, err = x.UpdateUpperBound(v-1, nil)
	}
	return err
}
