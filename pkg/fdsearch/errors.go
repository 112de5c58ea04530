package fdsearch

import (
	"errors"
	"fmt"
)

var (
	// ErrContradiction is the sentinel every *Contradiction matches with errors.Is.
	ErrContradiction = errors.New("contradiction")

	// ErrInvalidArgument is returned by constructors given malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoObjective means an objective-directed component was used on a
	// model without an objective variable.
	ErrNoObjective = errors.New("model has no objective")

	// ErrSatisfactionPolicy means a component that needs an optimisation
	// direction was used on a satisfaction model.
	ErrSatisfactionPolicy = errors.New("objective-directed selection requires MINIMIZE or MAXIMIZE")

	// ErrSearchLimitReached indicates a search terminated due to a configured
	// node or solution limit. The incumbent, if any, is still valid.
	ErrSearchLimitReached = errors.New("search limit reached")
)

// Contradiction signals that a domain became empty or that a constraint
// cannot be satisfied in the current state. It is an expected, local
// failure: the search driver backtracks on it.
type Contradiction struct {
	Cause *Propagator // nil when raised by a decision or a selector
	Var   *IntVar     // variable whose domain would have been wiped out, if any
	Msg   string
}

func (c *Contradiction) Error() string {
	switch {
	case c.Cause != nil && c.Var != nil:
		return fmt.Sprintf("contradiction: %s on %s: %s", c.Cause, c.Var.Name(), c.Msg)
	case c.Var != nil:
		return fmt.Sprintf("contradiction on %s: %s", c.Var.Name(), c.Msg)
	case c.Cause != nil:
		return fmt.Sprintf("contradiction: %s: %s", c.Cause, c.Msg)
	}
	return "contradiction: " + c.Msg
}

// Is makes errors.Is(err, ErrContradiction) hold.
func (c *Contradiction) Is(target error) bool { return target == ErrContradiction }

// IsContradiction reports whether err is, or wraps, a contradiction.
func IsContradiction(err error) bool { return errors.Is(err, ErrContradiction) }

func contradiction(cause *Propagator, v *IntVar, format string, args ...any) *Contradiction {
	return &Contradiction{Cause: cause, Var: v, Msg: fmt.Sprintf(format, args...)}
}

// ConfigurationError is a usage error that cannot be recovered at run time,
// such as asking for objective-directed selection on a model without an
// objective. Searches abort on it instead of backtracking.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ConfigurationError) Unwrap() error { return e.Err }
