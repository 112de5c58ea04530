package fdsearch

// relaxation.go: objective-bound relaxation value selection ("reverse best" family)

// RelaxationSelector picks a value by narrowing the objective first and
// letting propagation narrow the decision variable. Each attempt tightens
// the objective to within delta of its best possible bound inside a
// checkpoint; if propagation survives, the fallback chooses among what is
// left of the variable's domain. A failed attempt proves the target
// unreachable, so the known bound moves permanently past it and delta
// doubles before the next attempt.
//
// The selector is also a SearchMonitor: consecutive search failures make
// later calls start with a larger delta and every solution resets it.
type RelaxationSelector struct {
	model    *Model
	mode     PropagationMode
	cfg      *selectorConfig
	graph    *ObjectiveGraph
	filter   *PathSubsetFilter
	esc      *Escalation
	lb, ub   int
	attempts []int
}

// NewRelaxationSelector creates a relaxation selector for m.
func NewRelaxationSelector(m *Model, mode PropagationMode, opts ...SelectorOption) *RelaxationSelector {
	cfg := newSelectorConfig(opts)
	return &RelaxationSelector{
		model: m,
		mode:  mode,
		cfg:   cfg,
		esc:   NewEscalation(0, cfg.failureThreshold),
	}
}

// Init caps the escalation step at the objective's domain size.
func (s *RelaxationSelector) Init() bool {
	if obj := s.model.Objective(); obj != nil {
		s.esc.SetCap(obj.Size())
	}
	return true
}

// Remove is a no-op.
func (s *RelaxationSelector) Remove() {}

// Mode returns the propagation mode.
func (s *RelaxationSelector) Mode() PropagationMode { return s.mode }

// Escalation exposes the step controller.
func (s *RelaxationSelector) Escalation() *Escalation { return s.esc }

// Attempts returns the deltas tried by the last call, in order.
func (s *RelaxationSelector) Attempts() []int {
	return append([]int(nil), s.attempts...)
}

// Bounds returns the objective bounds known after the last call.
func (s *RelaxationSelector) Bounds() (lb, ub int) { return s.lb, s.ub }

// OnSolutionFound implements SearchMonitor.
func (s *RelaxationSelector) OnSolutionFound() { s.esc.OnSolution() }

// OnContradiction implements SearchMonitor.
func (s *RelaxationSelector) OnContradiction(error) {
	if s.esc.OnFailure() {
		s.cfg.metrics.escalated()
		s.cfg.logger.Debug("relaxation escalated", "initial", s.esc.Initial())
	}
}

// SelectValue implements IntValueSelector.
func (s *RelaxationSelector) SelectValue(x *IntVar) (int, error) {
	if !s.cfg.trigger(x) {
		return s.cfg.fallback.SelectValue(x)
	}
	obj := s.model.Objective()
	if obj == nil {
		return 0, &ConfigurationError{Op: "relaxation select", Err: ErrNoObjective}
	}
	if s.model.Policy() == Satisfaction {
		return 0, &ConfigurationError{Op: "relaxation select", Err: ErrSatisfactionPolicy}
	}
	if s.mode != FullPropagation {
		g, err := s.model.ObjectiveGraph()
		if err != nil {
			return 0, err
		}
		if g != s.graph {
			s.graph = g
			s.filter = NewPathSubsetFilter(g)
		}
	}
	if s.mode == SubsetPropagation {
		return s.selectRestricted(x, obj)
	}
	return s.relax(x, obj)
}

// selectRestricted relaxes with off-path propagators switched off, then
// carries the bounds learnt in there back to the real objective. When the
// objective cannot be reached from x the fallback chooses directly.
func (s *RelaxationSelector) selectRestricted(x, obj *IntVar) (int, error) {
	value, reached, err := func() (int, bool, error) {
		cp := s.model.Checkpoint()
		defer cp.Close()
		if !s.filter.RestrictToShortestPath(x) {
			return 0, false, nil
		}
		v, err := s.relax(x, obj)
		return v, true, err
	}()
	if err != nil {
		return 0, err
	}
	if !reached {
		s.attempts = s.attempts[:0]
		s.lb, s.ub = obj.LB(), obj.UB()
		s.cfg.logger.Debug("relaxation skipped: objective unreachable", "var", x.Name())
		return s.cfg.fallback.SelectValue(x)
	}
	if _, err := obj.UpdateLowerBound(s.lb, nil); err != nil {
		return 0, err
	}
	if _, err := obj.UpdateUpperBound(s.ub, nil); err != nil {
		return 0, err
	}
	if err := s.model.engine.Propagate(); err != nil {
		return 0, err
	}
	return s.settle(x, value)
}

func (s *RelaxationSelector) relax(x, obj *IntVar) (int, error) {
	if s.esc.Cap() <= 1 {
		s.esc.SetCap(obj.Size())
	}
	minimize := s.model.Policy() == Minimize
	delta := s.esc.Initial()
	s.attempts = s.attempts[:0]
	for {
		var target int
		if minimize {
			target = obj.LB() - 1 + delta
		} else {
			target = obj.UB() + 1 - delta
		}
		s.attempts = append(s.attempts, delta)
		s.cfg.metrics.relaxAttempt()

		var value int
		err := s.model.Speculate(func() error {
			var err error
			if minimize {
				_, err = obj.UpdateUpperBound(target, nil)
			} else {
				_, err = obj.UpdateLowerBound(target, nil)
			}
			if err != nil {
				return err
			}
			if err = s.propagate(x); err != nil {
				return err
			}
			if x.IsInstantiated() {
				value = x.Value()
				return nil
			}
			value, err = s.cfg.fallback.SelectValue(x)
			return err
		})
		if err == nil {
			s.lb, s.ub = obj.LB(), obj.UB()
			s.cfg.logger.Debug("relaxation", "var", x.Name(), "value", value, "delta", delta, "target", target)
			return s.settle(x, value)
		}
		if !IsContradiction(err) {
			return 0, err
		}
		s.cfg.metrics.absorbed("reverse")
		s.cfg.logger.Debug("relaxation failed", "var", x.Name(), "delta", delta, "target", target)

		if minimize {
			_, err = obj.UpdateLowerBound(target+1, nil)
		} else {
			_, err = obj.UpdateUpperBound(target-1, nil)
		}
		if err == nil {
			err = s.model.engine.Propagate()
		}
		s.lb, s.ub = obj.LB(), obj.UB()
		if err != nil {
			return 0, err
		}
		delta = s.esc.Grow(delta)
	}
}

// propagate runs the attempt's propagation. In path mode the shortest-path
// levels are executed from the objective side toward x.
func (s *RelaxationSelector) propagate(x *IntVar) error {
	if s.mode != PathPropagation {
		return s.model.engine.Propagate()
	}
	eng := s.model.engine
	defer eng.Flush()
	levels := s.graph.PathLevels(x)
	for i := len(levels) - 1; i >= 0; i-- {
		for _, p := range levels[i] {
			if !p.IsActive() {
				continue
			}
			if err := eng.Execute(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// settle guarantees the returned value is still in x's domain.
func (s *RelaxationSelector) settle(x *IntVar, value int) (int, error) {
	if x.Contains(value) {
		return value, nil
	}
	return s.cfg.fallback.SelectValue(x)
}
