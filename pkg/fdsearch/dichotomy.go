package fdsearch

// DichotomySelector bisects the objective's interval. Each half is imposed
// on the objective inside a checkpoint and propagated; the half closer to
// the optimisation direction is tried first and recursed into until the
// interval is a single value. The variable's value is then read off, or
// chosen by the fallback if propagation did not fix it.
//
// Halves that fail prove a bound on the objective, which is applied
// permanently once a value has been found.
type DichotomySelector struct {
	model  *Model
	cfg    *selectorConfig
	bestLB int
	bestUB int
}

// NewDichotomySelector creates a dichotomy selector for m. The fallback
// option sets the selector used on ties.
func NewDichotomySelector(m *Model, opts ...SelectorOption) *DichotomySelector {
	return &DichotomySelector{model: m, cfg: newSelectorConfig(opts)}
}

func (s *DichotomySelector) Init() bool { return true }
func (s *DichotomySelector) Remove()    {}

// SelectValue implements IntValueSelector.
func (s *DichotomySelector) SelectValue(x *IntVar) (int, error) {
	if !s.cfg.trigger(x) {
		return s.cfg.fallback.SelectValue(x)
	}
	obj := s.model.Objective()
	if obj == nil || s.model.Policy() == Satisfaction {
		return 0, &ConfigurationError{Op: "dichotomy select", Err: ErrSatisfactionPolicy}
	}
	s.bestLB, s.bestUB = obj.LB(), obj.UB()
	value, err := s.bisect(x, obj, s.bestLB, s.bestUB)
	if err != nil {
		return 0, err
	}
	if s.model.Policy() == Minimize {
		_, err = obj.UpdateLowerBound(s.bestLB, nil)
	} else {
		_, err = obj.UpdateUpperBound(s.bestUB, nil)
	}
	if err == nil {
		err = s.model.engine.Propagate()
	}
	if err != nil {
		return 0, err
	}
	if x.Contains(value) {
		return value, nil
	}
	return s.cfg.fallback.SelectValue(x)
}

func (s *DichotomySelector) bisect(x, obj *IntVar, lb, ub int) (int, error) {
	if _, err := obj.UpdateLowerBound(lb, nil); err != nil {
		return 0, err
	}
	if _, err := obj.UpdateUpperBound(ub, nil); err != nil {
		return 0, err
	}
	if err := s.model.engine.Propagate(); err != nil {
		return 0, err
	}
	s.bestLB = max(s.bestLB, lb)
	s.bestUB = min(s.bestUB, ub)
	if lb >= ub {
		if x.IsInstantiated() {
			return x.Value(), nil
		}
		return s.cfg.fallback.SelectValue(x)
	}

	pivot := lb + (ub-lb)/2
	halves := [2][2]int{{lb, pivot}, {pivot + 1, ub}}
	if s.model.Policy() == Maximize {
		halves[0], halves[1] = halves[1], halves[0]
	}
	var last error
	for _, h := range halves {
		var value int
		err := s.model.Speculate(func() error {
			var err error
			value, err = s.bisect(x, obj, h[0], h[1])
			return err
		})
		if err == nil {
			return value, nil
		}
		if !IsContradiction(err) {
			return 0, err
		}
		s.cfg.metrics.absorbed("dichotomy")
		last = err
	}
	return 0, last
}
