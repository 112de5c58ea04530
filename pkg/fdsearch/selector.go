package fdsearch

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// IntValueSelector picks the value the search driver branches on for a
// chosen variable. The returned value must belong to the variable's domain
// when SelectValue returns. A *Contradiction return fails the current node.
type IntValueSelector interface {
	// Init prepares the selector before search. Returning false reports an
	// inconsistency detected during preparation.
	Init() bool
	SelectValue(x *IntVar) (int, error)
	// Remove releases whatever Init acquired.
	Remove()
}

// MinValue selects the lower bound.
type MinValue struct{}

func (MinValue) Init() bool                         { return true }
func (MinValue) SelectValue(x *IntVar) (int, error) { return x.LB(), nil }
func (MinValue) Remove()                            {}

// MaxValue selects the upper bound.
type MaxValue struct{}

func (MaxValue) Init() bool                         { return true }
func (MaxValue) SelectValue(x *IntVar) (int, error) { return x.UB(), nil }
func (MaxValue) Remove()                            {}

// MidValue selects the domain value closest to the middle of the bounds,
// preferring the lower one on ties.
type MidValue struct{}

func (MidValue) Init() bool { return true }
func (MidValue) Remove()    {}

func (MidValue) SelectValue(x *IntVar) (int, error) {
	mid := x.LB() + (x.UB()-x.LB())/2
	if x.Contains(mid) {
		return mid, nil
	}
	lo, hi := x.PreviousValue(mid), x.NextValue(mid)
	if mid-lo <= hi-mid {
		return lo, nil
	}
	return hi, nil
}

// Trigger decides whether an objective-directed selector does its work for
// x or hands over to its fallback.
type Trigger func(x *IntVar) bool

// Always never throttles.
func Always(*IntVar) bool { return true }

// DomainAtMost triggers only for variables with at most n values.
func DomainAtMost(n int) Trigger {
	return func(x *IntVar) bool { return x.Size() <= n }
}

// TieBreak is consulted when a candidate costs exactly as much as the
// retained one; returning true makes the candidate the new retained value.
type TieBreak func(x *IntVar, candidate int) bool

// NeverReplace keeps the first candidate found among equal costs.
func NeverReplace(*IntVar, int) bool { return false }

// PropagationMode selects how a speculative decision is propagated.
type PropagationMode int

const (
	// FullPropagation runs the engine fixpoint over the whole model.
	FullPropagation PropagationMode = iota
	// PathPropagation executes only the constraints on the shortest paths
	// between the variable and the objective, level by level.
	PathPropagation
	// SubsetPropagation deactivates every constraint off those paths, then
	// runs the engine fixpoint over what remains.
	SubsetPropagation
)

func (m PropagationMode) String() string {
	switch m {
	case PathPropagation:
		return "path"
	case SubsetPropagation:
		return "subset"
	}
	return "full"
}

// ParsePropagationMode accepts "full", "path" (or "manual") and "subset".
func ParsePropagationMode(s string) (PropagationMode, error) {
	switch s {
	case "full", "":
		return FullPropagation, nil
	case "path", "manual":
		return PathPropagation, nil
	case "subset":
		return SubsetPropagation, nil
	}
	return 0, fmt.Errorf("unknown propagation mode %q: %w", s, ErrInvalidArgument)
}

// SelectorOption configures the objective-directed selectors.
type SelectorOption func(*selectorConfig)

type selectorConfig struct {
	maxDomain        int
	pruning          bool
	op               DecisionOperator
	fallback         IntValueSelector
	trigger          Trigger
	tieBreak         TieBreak
	failureThreshold int
	logger           *log.Logger
	metrics          *Metrics
}

// DefaultMaxDomain is the domain size from which lookahead only evaluates
// the two bounds.
const DefaultMaxDomain = 100

// DefaultFailureThreshold is the number of consecutive failures after which
// the relaxation step of future calls doubles.
const DefaultFailureThreshold = 10000

func defaultSelectorConfig() *selectorConfig {
	return &selectorConfig{
		maxDomain:        DefaultMaxDomain,
		pruning:          true,
		op:               OpEq,
		fallback:         MinValue{},
		trigger:          Always,
		tieBreak:         NeverReplace,
		failureThreshold: DefaultFailureThreshold,
		logger:           log.New(io.Discard),
	}
}

func newSelectorConfig(opts []SelectorOption) *selectorConfig {
	cfg := defaultSelectorConfig()
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	return cfg
}

// WithMaxDomain sets the size from which only the bounds are evaluated.
func WithMaxDomain(n int) SelectorOption {
	return func(c *selectorConfig) { c.maxDomain = n }
}

// WithPruning enables or disables permanent removal of values found
// infeasible during lookahead.
func WithPruning(enabled bool) SelectorOption {
	return func(c *selectorConfig) { c.pruning = enabled }
}

// WithOperator sets the decision operator the lookahead applies. It must
// match the operator the search branches with.
func WithOperator(op DecisionOperator) SelectorOption {
	return func(c *selectorConfig) { c.op = op }
}

// WithFallback sets the selector used when the trigger declines and, for
// relaxation, to pick within the narrowed domain.
func WithFallback(s IntValueSelector) SelectorOption {
	return func(c *selectorConfig) {
		if s != nil {
			c.fallback = s
		}
	}
}

// WithTrigger throttles the selector.
func WithTrigger(t Trigger) SelectorOption {
	return func(c *selectorConfig) {
		if t != nil {
			c.trigger = t
		}
	}
}

// WithTieBreak sets the predicate consulted on exactly equal costs.
func WithTieBreak(t TieBreak) SelectorOption {
	return func(c *selectorConfig) {
		if t != nil {
			c.tieBreak = t
		}
	}
}

// WithFailureThreshold sets how many consecutive failures double the
// relaxation step used by future calls.
func WithFailureThreshold(n int) SelectorOption {
	return func(c *selectorConfig) { c.failureThreshold = n }
}

// WithSelectorLogger routes debug records to l.
func WithSelectorLogger(l *log.Logger) SelectorOption {
	return func(c *selectorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSelectorMetrics records selector counters in m.
func WithSelectorMetrics(m *Metrics) SelectorOption {
	return func(c *selectorConfig) { c.metrics = m }
}
