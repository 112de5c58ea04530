package fdsearch

// search.go: depth-first branch-and-bound driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// VariableHeuristic chooses the next decision variable.
type VariableHeuristic int

const (
	InputOrder VariableHeuristic = iota // first unfixed variable
	MinDomain                           // smallest domain first
	DomOverDeg                          // smallest domain/(1+degree) first
)

func (h VariableHeuristic) String() string {
	switch h {
	case MinDomain:
		return "dom"
	case DomOverDeg:
		return "domdeg"
	}
	return "input"
}

// ParseVariableHeuristic accepts "input", "dom" and "domdeg".
func ParseVariableHeuristic(s string) (VariableHeuristic, error) {
	switch s {
	case "input", "":
		return InputOrder, nil
	case "dom":
		return MinDomain, nil
	case "domdeg":
		return DomOverDeg, nil
	}
	return 0, fmt.Errorf("unknown variable heuristic %q: %w", s, ErrInvalidArgument)
}

// Strategy is what the driver branches with.
type Strategy struct {
	Vars      []*IntVar
	Heuristic VariableHeuristic
	Selector  IntValueSelector
	Operator  DecisionOperator
}

// SearchOption configures a Solver.
type SearchOption func(*searchConfig)

type searchConfig struct {
	timeLimit     time.Duration
	nodeLimit     int
	solutionLimit int
	logger        *log.Logger
	metrics       *Metrics
	monitors      []SearchMonitor
}

// WithTimeLimit bounds the wall time. When reached, the incumbent is
// returned together with context.DeadlineExceeded.
func WithTimeLimit(d time.Duration) SearchOption {
	return func(c *searchConfig) { c.timeLimit = d }
}

// WithNodeLimit bounds the number of nodes. When reached, the incumbent is
// returned together with ErrSearchLimitReached.
func WithNodeLimit(n int) SearchOption {
	return func(c *searchConfig) { c.nodeLimit = n }
}

// WithSolutionLimit stops the search after n solutions. The default is 1 on
// satisfaction models and unlimited otherwise; 0 means unlimited.
func WithSolutionLimit(n int) SearchOption {
	return func(c *searchConfig) { c.solutionLimit = n }
}

// WithLogger routes search records to l.
func WithLogger(l *log.Logger) SearchOption {
	return func(c *searchConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records node, failure and solution counters in m.
func WithMetrics(m *Metrics) SearchOption {
	return func(c *searchConfig) { c.metrics = m }
}

// WithMonitor plugs an additional monitor.
func WithMonitor(m SearchMonitor) SearchOption {
	return func(c *searchConfig) {
		if m != nil {
			c.monitors = append(c.monitors, m)
		}
	}
}

// Solution is a snapshot of a complete assignment.
type Solution struct {
	Values    map[string]int
	Objective int
}

// Result is the outcome of a search.
type Result struct {
	Solutions []Solution
	Best      *Solution
	// Proven is set when the search space was exhausted: the best solution
	// is optimal, or the model is infeasible if there is none.
	Proven bool
	Stats  SearchStats
}

// errStop unwinds the recursion when the solution limit is reached.
var errStop = errors.New("stop search")

// Solver explores the binary search tree of a model: at each node it
// propagates, asks the strategy for a variable and a value, and branches
// on the decision (left) and its negation (right), each inside a
// checkpoint. On optimisation models every solution tightens the objective
// for the rest of the search.
type Solver struct {
	model      *Model
	strategy   Strategy
	cfg        *searchConfig
	monitors   []SearchMonitor
	completion []*IntVar
	rec        statsRecorder
	result     *Result
}

// NewSolver validates the strategy and creates a solver. Strategy variables
// must belong to m; sum views cannot be decision variables because fixing
// their value does not fix their operands.
func NewSolver(m *Model, st Strategy, opts ...SearchOption) (*Solver, error) {
	cfg := &searchConfig{logger: log.New(io.Discard)}
	if m.Policy() == Satisfaction {
		cfg.solutionLimit = 1
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if st.Selector == nil {
		st.Selector = MinValue{}
	}
	for i, v := range st.Vars {
		if v == nil || v.model != m {
			return nil, fmt.Errorf("strategy variable %d does not belong to model %q: %w", i, m.name, ErrInvalidArgument)
		}
		if _, ok := v.view.(*sumView); ok {
			return nil, fmt.Errorf("strategy variable %s is a sum view: %w", v.name, ErrInvalidArgument)
		}
	}

	s := &Solver{model: m, strategy: st, cfg: cfg}
	s.monitors = append(s.monitors, cfg.monitors...)
	if mon, ok := st.Selector.(SearchMonitor); ok {
		s.monitors = append(s.monitors, mon)
	}
	for _, v := range m.vars {
		if v.view == nil && !v.constant {
			s.completion = append(s.completion, v)
		}
	}
	return s, nil
}

// Stats returns the counters of the running or last search. It is safe to
// call from another goroutine.
func (s *Solver) Stats() SearchStats { return s.rec.snapshot() }

// Solve runs the search. The model is restored to its pre-search state
// when Solve returns. On a time limit or a cancelled context the incumbent
// is returned together with ctx.Err(); on a node limit, with
// ErrSearchLimitReached. A ConfigurationError aborts the search.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	if s.cfg.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.timeLimit)
		defer cancel()
	}
	s.result = &Result{}
	s.rec.begin()

	sel := s.strategy.Selector
	if !sel.Init() {
		s.result.Proven = true
		s.result.Stats = s.rec.finish(s.model)
		return s.result, nil
	}
	defer sel.Remove()

	root := s.model.Checkpoint()
	s.model.engine.ScheduleAll(s.model.props)
	err := s.explore(ctx, 0)
	root.Close()

	s.result.Stats = s.rec.finish(s.model)
	log := s.cfg.logger.With("model", s.model.name)
	switch {
	case err == nil:
		s.result.Proven = true
	case errors.Is(err, errStop):
		err = nil
	}
	if s.result.Best != nil {
		log.Info("search finished", "objective", s.result.Best.Objective, "proven", s.result.Proven, "stats", s.result.Stats)
	} else {
		log.Info("search finished", "solutions", 0, "proven", s.result.Proven, "stats", s.result.Stats)
	}
	return s.result, err
}

func (s *Solver) explore(ctx context.Context, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.nodeLimit > 0 && s.rec.nodes() >= s.cfg.nodeLimit {
		return ErrSearchLimitReached
	}
	s.rec.node(depth)
	s.cfg.metrics.node()

	if err := s.applyCut(); err != nil {
		return s.fail(err)
	}
	if err := s.model.engine.Propagate(); err != nil {
		return s.fail(err)
	}

	x, sel, op := s.nextVariable()
	if x == nil {
		return s.leaf()
	}
	val, err := sel.SelectValue(x)
	if err != nil {
		return s.fail(err)
	}
	if !x.Contains(val) {
		return fmt.Errorf("selector returned %d outside the domain of %v: %w", val, x, ErrInvalidArgument)
	}
	// A split on a bound changes nothing; branch on equality instead.
	if (op == OpSplit && val >= x.UB()) || (op == OpReverseSplit && val <= x.LB()) {
		op = OpEq
	}
	// A bounds-only domain cannot lose an interior value.
	if (op == OpEq || op == OpNeq) && !x.Enumerated() && val > x.LB() && val < x.UB() {
		op = OpSplit
	}

	if err := s.branch(ctx, depth, func() error { return op.Apply(x, val) }); err != nil {
		return err
	}
	return s.branch(ctx, depth, func() error { return op.Unapply(x, val) })
}

func (s *Solver) branch(ctx context.Context, depth int, decide func() error) error {
	cp := s.model.Checkpoint()
	defer cp.Close()
	if err := decide(); err != nil {
		return s.fail(err)
	}
	return s.explore(ctx, depth+1)
}

// fail absorbs a contradiction as a failed node and passes anything else up.
func (s *Solver) fail(err error) error {
	if !IsContradiction(err) {
		return err
	}
	s.rec.fail()
	s.cfg.metrics.fail()
	for _, m := range s.monitors {
		m.OnContradiction(err)
	}
	return nil
}

// applyCut requires the next solution to improve on the incumbent.
func (s *Solver) applyCut() error {
	obj := s.model.objective
	if s.result.Best == nil || obj == nil {
		return nil
	}
	var err error
	switch s.model.policy {
	case Minimize:
		_, err = obj.UpdateUpperBound(s.result.Best.Objective-1, nil)
	case Maximize:
		_, err = obj.UpdateLowerBound(s.result.Best.Objective+1, nil)
	}
	return err
}

func (s *Solver) nextVariable() (*IntVar, IntValueSelector, DecisionOperator) {
	if x := pickVariable(s.strategy.Vars, s.strategy.Heuristic); x != nil {
		return x, s.strategy.Selector, s.strategy.Operator
	}
	if x := pickVariable(s.completion, InputOrder); x != nil {
		return x, MinValue{}, OpEq
	}
	return nil, nil, OpEq
}

func pickVariable(vars []*IntVar, h VariableHeuristic) *IntVar {
	var best *IntVar
	bestScore := 0.0
	for _, v := range vars {
		if v.IsInstantiated() {
			continue
		}
		if h == InputOrder {
			return v
		}
		score := float64(v.Size())
		if h == DomOverDeg {
			score /= float64(1 + v.Degree())
		}
		if best == nil || score < bestScore {
			best, bestScore = v, score
		}
	}
	return best
}

// leaf re-runs every propagator on the complete assignment before
// accepting it.
func (s *Solver) leaf() error {
	s.model.engine.ScheduleAll(s.model.props)
	if err := s.model.engine.Propagate(); err != nil {
		return s.fail(err)
	}
	sol := Solution{Values: s.model.Snapshot()}
	if obj := s.model.objective; obj != nil {
		sol.Objective = obj.Value()
		if s.result.Best != nil && !s.improves(sol.Objective) {
			return s.fail(contradiction(nil, obj, "objective %d does not improve on %d", sol.Objective, s.result.Best.Objective))
		}
	}
	s.result.Solutions = append(s.result.Solutions, sol)
	best := sol
	s.result.Best = &best

	s.rec.solution()
	s.cfg.metrics.solution()
	s.cfg.logger.Debug("solution", "objective", sol.Objective, "n", len(s.result.Solutions))
	for _, m := range s.monitors {
		m.OnSolutionFound()
	}
	if s.cfg.solutionLimit > 0 && len(s.result.Solutions) >= s.cfg.solutionLimit {
		return errStop
	}
	return nil
}

// improves reports whether obj beats the incumbent in the model's direction.
func (s *Solver) improves(obj int) bool {
	if s.model.policy == Maximize {
		return obj > s.result.Best.Objective
	}
	return obj < s.result.Best.Objective
}
