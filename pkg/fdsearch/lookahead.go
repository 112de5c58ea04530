package fdsearch

// lookahead.go: bounded lookahead value selection ("best" family)

// LookaheadStats counts what a LookaheadSelector did.
type LookaheadStats struct {
	Calls          int // SelectValue invocations
	Evaluations    int // speculative candidate evaluations
	Contradictions int // evaluations that failed and were absorbed
	Pruned         int // values permanently removed
	Shortcuts      int // subset calls answered without lookahead
}

type candidate struct {
	value int
	cost  int
}

// LookaheadSelector chooses, for a decision variable, the value whose
// tentative assignment yields the best bound on the objective. Each
// candidate is assigned inside its own checkpoint, propagated with the
// selector's PropagationMode, scored from the objective bound, and rolled
// back. Candidates whose assignment fails are (optionally) pruned for good
// once all candidates have been scored.
//
// Cost is the objective lower bound when minimizing, the negated upper bound
// when maximizing, and 1 on satisfaction models. Domains smaller than the
// configured maximum are enumerated; larger ones only have their two
// bounds scored.
type LookaheadSelector struct {
	model     *Model
	mode      PropagationMode
	cfg       *selectorConfig
	graph     *ObjectiveGraph
	filter    *PathSubsetFilter
	invalid   []int
	evaluated []candidate
	done      map[*Propagator]struct{}
	stats     LookaheadStats
}

// NewLookaheadSelector creates a lookahead selector for m.
func NewLookaheadSelector(m *Model, mode PropagationMode, opts ...SelectorOption) *LookaheadSelector {
	return &LookaheadSelector{
		model: m,
		mode:  mode,
		cfg:   newSelectorConfig(opts),
		done:  make(map[*Propagator]struct{}),
	}
}

// Init is a no-op: the objective graph is built on the first call.
func (s *LookaheadSelector) Init() bool { return true }

// Remove is a no-op.
func (s *LookaheadSelector) Remove() {}

// Mode returns the propagation mode.
func (s *LookaheadSelector) Mode() PropagationMode { return s.mode }

// Stats returns the selector counters.
func (s *LookaheadSelector) Stats() LookaheadStats { return s.stats }

// SelectValue implements IntValueSelector.
func (s *LookaheadSelector) SelectValue(x *IntVar) (int, error) {
	s.stats.Calls++
	if x.Size() == 1 {
		return x.LB(), nil
	}
	if !s.cfg.trigger(x) {
		return s.cfg.fallback.SelectValue(x)
	}
	if err := s.prepare(); err != nil {
		return 0, err
	}
	s.invalid = s.invalid[:0]
	s.evaluated = s.evaluated[:0]

	var (
		best int
		err  error
	)
	if s.mode == SubsetPropagation {
		best, err = s.selectRestricted(x)
	} else {
		best, err = s.evaluate(x)
	}
	if err != nil {
		return 0, err
	}
	return s.commit(x, best)
}

func (s *LookaheadSelector) prepare() error {
	if s.mode == FullPropagation {
		return nil
	}
	g, err := s.model.ObjectiveGraph()
	if err != nil {
		return err
	}
	if g != s.graph {
		s.graph = g
		s.filter = NewPathSubsetFilter(g)
	}
	return nil
}

// selectRestricted evaluates candidates with every propagator off the
// shortest paths to the objective switched off. If the objective cannot be
// reached from x the lower bound is returned without any lookahead.
func (s *LookaheadSelector) selectRestricted(x *IntVar) (int, error) {
	cp := s.model.Checkpoint()
	defer cp.Close()
	if !s.filter.RestrictToShortestPath(x) {
		s.stats.Shortcuts++
		return x.LB(), nil
	}
	return s.evaluate(x)
}

func (s *LookaheadSelector) evaluate(x *IntVar) (int, error) {
	lb, ub := x.LB(), x.UB()
	best := lb
	if s.cfg.op == OpReverseSplit {
		best = ub
	}

	if x.Enumerated() && x.Size() < s.cfg.maxDomain {
		bestCost := infiniteCost
		for v := lb; v <= ub; v = x.NextValue(v) {
			c, err := s.cost(x, v, true)
			if err != nil {
				return 0, err
			}
			if c < bestCost || (c == bestCost && s.cfg.tieBreak(x, v)) {
				best, bestCost = v, c
			}
		}
		return best, nil
	}

	lc, err := s.cost(x, lb, false)
	if err != nil {
		return 0, err
	}
	uc, err := s.cost(x, ub, false)
	if err != nil {
		return 0, err
	}
	switch {
	case lc < uc:
		return lb, nil
	case uc < lc:
		return ub, nil
	}
	return best, nil
}

// cost scores x=v (or whichever decision the operator applies) inside a
// checkpoint. A contradiction is absorbed as an infinite cost and, when
// record is set and pruning enabled, v is remembered for removal.
func (s *LookaheadSelector) cost(x *IntVar, v int, record bool) (int, error) {
	if (s.cfg.op == OpSplit && v == x.UB()) || (s.cfg.op == OpReverseSplit && v == x.LB()) {
		return infiniteCost, nil
	}
	s.stats.Evaluations++
	s.cfg.metrics.lookahead(s.mode)

	var c int
	err := s.model.Speculate(func() error {
		if err := s.cfg.op.Apply(x, v); err != nil {
			return err
		}
		if err := s.propagate(x); err != nil {
			return err
		}
		c = s.model.objectiveCost()
		return nil
	})
	if err == nil {
		s.evaluated = append(s.evaluated, candidate{value: v, cost: c})
		s.cfg.logger.Debug("lookahead", "var", x.Name(), "value", v, "cost", c, "mode", s.mode)
		return c, nil
	}
	if !IsContradiction(err) {
		return 0, err
	}
	s.stats.Contradictions++
	s.cfg.metrics.absorbed("best")
	s.cfg.logger.Debug("lookahead failed", "var", x.Name(), "value", v, "err", err)
	if record && s.cfg.pruning {
		s.invalid = append(s.invalid, v)
	}
	return infiniteCost, nil
}

func (s *LookaheadSelector) propagate(x *IntVar) error {
	if s.mode == PathPropagation {
		return s.propagatePath(x)
	}
	return s.model.engine.Propagate()
}

// propagatePath walks the shortest-path levels from x toward the objective
// and runs each scheduled propagator once, bypassing the queue. Events left
// behind are dropped.
func (s *LookaheadSelector) propagatePath(x *IntVar) error {
	eng := s.model.engine
	defer eng.Flush()
	clear(s.done)
	for _, level := range s.graph.PathLevels(x) {
		for _, p := range level {
			if _, ok := s.done[p]; ok || !p.IsActive() || !p.IsScheduled() {
				continue
			}
			s.done[p] = struct{}{}
			if err := eng.Execute(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// commit removes the values that failed lookahead, propagates the removals
// for real, and makes sure the returned value survived them.
func (s *LookaheadSelector) commit(x *IntVar, best int) (int, error) {
	if len(s.invalid) > 0 {
		for _, v := range s.invalid {
			if err := s.cfg.op.Unapply(x, v); err != nil {
				return 0, err
			}
		}
		s.stats.Pruned += len(s.invalid)
		s.cfg.metrics.prunedValues(len(s.invalid))
		s.cfg.logger.Debug("pruned", "var", x.Name(), "values", s.invalid)
		if err := s.model.engine.Propagate(); err != nil {
			return 0, err
		}
	}
	if x.Contains(best) {
		return best, nil
	}
	found, bestCost := false, 0
	for _, c := range s.evaluated {
		if x.Contains(c.value) && (!found || c.cost < bestCost) {
			best, bestCost, found = c.value, c.cost, true
		}
	}
	if found {
		return best, nil
	}
	return s.cfg.fallback.SelectValue(x)
}
