package fdsearch

import (
	"fmt"
	"math"
)

// view computes a variable's domain from other variables. Updates on a view
// are translated into updates on its dependencies.
type view interface {
	deps() []*IntVar
	lb() int
	ub() int
	size() int
	enumerated() bool
	contains(x int) bool
	next(x int) int
	prev(x int) int
	updateLB(x int, cause *Propagator) (bool, error)
	updateUB(x int, cause *Propagator) (bool, error)
	remove(x int, cause *Propagator) (bool, error)
	instantiate(x int, cause *Propagator) (bool, error)
}

// offsetView is x + c.
type offsetView struct {
	x *IntVar
	c int
}

func (o *offsetView) deps() []*IntVar     { return []*IntVar{o.x} }
func (o *offsetView) lb() int             { return o.x.LB() + o.c }
func (o *offsetView) ub() int             { return o.x.UB() + o.c }
func (o *offsetView) size() int           { return o.x.Size() }
func (o *offsetView) enumerated() bool    { return o.x.Enumerated() }
func (o *offsetView) contains(x int) bool { return o.x.Contains(x - o.c) }

func (o *offsetView) next(x int) int {
	n := o.x.NextValue(x - o.c)
	if n == math.MaxInt {
		return n
	}
	return n + o.c
}

func (o *offsetView) prev(x int) int {
	n := o.x.PreviousValue(x - o.c)
	if n == math.MinInt {
		return n
	}
	return n + o.c
}

func (o *offsetView) updateLB(x int, cause *Propagator) (bool, error) {
	return o.x.UpdateLowerBound(x-o.c, cause)
}

func (o *offsetView) updateUB(x int, cause *Propagator) (bool, error) {
	return o.x.UpdateUpperBound(x-o.c, cause)
}

func (o *offsetView) remove(x int, cause *Propagator) (bool, error) {
	return o.x.RemoveValue(x-o.c, cause)
}

func (o *offsetView) instantiate(x int, cause *Propagator) (bool, error) {
	return o.x.InstantiateTo(x-o.c, cause)
}

// minusView is -x.
type minusView struct {
	x *IntVar
}

func (m *minusView) deps() []*IntVar     { return []*IntVar{m.x} }
func (m *minusView) lb() int             { return -m.x.UB() }
func (m *minusView) ub() int             { return -m.x.LB() }
func (m *minusView) size() int           { return m.x.Size() }
func (m *minusView) enumerated() bool    { return m.x.Enumerated() }
func (m *minusView) contains(x int) bool { return m.x.Contains(-x) }

func (m *minusView) next(x int) int {
	p := m.x.PreviousValue(-x)
	if p == math.MinInt {
		return math.MaxInt
	}
	return -p
}

func (m *minusView) prev(x int) int {
	n := m.x.NextValue(-x)
	if n == math.MaxInt {
		return math.MinInt
	}
	return -n
}

func (m *minusView) updateLB(x int, cause *Propagator) (bool, error) {
	return m.x.UpdateUpperBound(-x, cause)
}

func (m *minusView) updateUB(x int, cause *Propagator) (bool, error) {
	return m.x.UpdateLowerBound(-x, cause)
}

func (m *minusView) remove(x int, cause *Propagator) (bool, error) {
	return m.x.RemoveValue(-x, cause)
}

func (m *minusView) instantiate(x int, cause *Propagator) (bool, error) {
	return m.x.InstantiateTo(-x, cause)
}

// sumView is a + b over bounds only. Bounds imposed on the view are kept
// in the view variable's own interval domain, trailed like any other
// domain, so they outlive the operand updates they cause. Once the view is
// bound (see Model.SetObjective), a sumBounds propagator re-imposes them
// whenever the operands move.
type sumView struct {
	a, b  *IntVar
	self  *IntVar
	bound bool
}

func (s *sumView) deps() []*IntVar     { return []*IntVar{s.a, s.b} }
func (s *sumView) lb() int             { return max(s.self.dom.Min(), s.a.LB()+s.b.LB()) }
func (s *sumView) ub() int             { return min(s.self.dom.Max(), s.a.UB()+s.b.UB()) }
func (s *sumView) size() int           { return max(s.ub()-s.lb()+1, 0) }
func (s *sumView) enumerated() bool    { return false }
func (s *sumView) contains(x int) bool { return x >= s.lb() && x <= s.ub() }

func (s *sumView) next(x int) int {
	switch {
	case x >= s.ub():
		return math.MaxInt
	case x < s.lb():
		return s.lb()
	}
	return x + 1
}

func (s *sumView) prev(x int) int {
	switch {
	case x <= s.lb():
		return math.MinInt
	case x > s.ub():
		return s.ub()
	}
	return x - 1
}

// updateLB stores lb on the view and enforces a + b >= lb on the operands.
func (s *sumView) updateLB(x int, cause *Propagator) (bool, error) {
	if x <= s.lb() {
		return false, nil
	}
	if x > s.ub() {
		return false, contradiction(cause, s.self, "lower bound %d exceeds %d", x, s.ub())
	}
	s.store(s.self.dom.RemoveBelow(x), cause)
	return true, s.narrow(cause)
}

// updateUB stores ub on the view and enforces a + b <= ub.
func (s *sumView) updateUB(x int, cause *Propagator) (bool, error) {
	if x >= s.ub() {
		return false, nil
	}
	if x < s.lb() {
		return false, contradiction(cause, s.self, "upper bound %d below %d", x, s.lb())
	}
	s.store(s.self.dom.RemoveAbove(x), cause)
	return true, s.narrow(cause)
}

func (s *sumView) store(d Domain, cause *Propagator) {
	v := s.self
	v.model.env.saveDomain(v)
	v.dom = d
	v.model.engine.notify(v, cause)
}

// narrow filters the operand bounds against the stored bounds until
// nothing changes.
func (s *sumView) narrow(cause *Propagator) error {
	lo, hi := s.self.dom.Min(), s.self.dom.Max()
	for {
		if s.a.LB()+s.b.LB() > hi || s.a.UB()+s.b.UB() < lo {
			return contradiction(cause, s.self, "%s+%s cannot stay within [%d..%d]", s.a.name, s.b.name, lo, hi)
		}
		changed := false
		for _, u := range [...]func() (bool, error){
			func() (bool, error) { return s.a.UpdateLowerBound(lo-s.b.UB(), cause) },
			func() (bool, error) { return s.b.UpdateLowerBound(lo-s.a.UB(), cause) },
			func() (bool, error) { return s.a.UpdateUpperBound(hi-s.b.LB(), cause) },
			func() (bool, error) { return s.b.UpdateUpperBound(hi-s.a.LB(), cause) },
		} {
			c, err := u()
			if err != nil {
				return err
			}
			changed = changed || c
		}
		if !changed {
			return nil
		}
	}
}

func (s *sumView) remove(x int, cause *Propagator) (bool, error) {
	switch {
	case s.lb() == s.ub() && x == s.lb():
		return false, contradiction(cause, s.self, "removing last value %d", x)
	case x == s.lb():
		return s.updateLB(x+1, cause)
	case x == s.ub():
		return s.updateUB(x-1, cause)
	}
	return false, nil
}

func (s *sumView) instantiate(x int, cause *Propagator) (bool, error) {
	if !s.contains(x) {
		return false, contradiction(cause, s.self, "value %d outside [%d..%d]", x, s.lb(), s.ub())
	}
	c1, err := s.updateLB(x, cause)
	if err != nil {
		return c1, err
	}
	c2, err := s.updateUB(x, cause)
	return c1 || c2, err
}

// sumBounds keeps the operands of a bound sum view within the bounds stored
// on the view.
type sumBounds struct {
	v *IntVar
	s *sumView
}

func (c *sumBounds) Variables() []*IntVar          { return []*IntVar{c.v} }
func (c *sumBounds) Type() string                  { return "SumBounds" }
func (c *sumBounds) String() string                { return fmt.Sprintf("SumBounds(%s)", c.v.name) }
func (c *sumBounds) Propagate(p *Propagator) error { return c.s.narrow(p) }

// bindSumViews posts a sumBounds propagator on every sum view v is built
// from, v included.
func (m *Model) bindSumViews(v *IntVar) {
	if v.view == nil {
		return
	}
	if sv, ok := v.view.(*sumView); ok && !sv.bound {
		sv.bound = true
		m.Post(&sumBounds{v: v, s: sv})
	}
	for _, d := range v.view.deps() {
		m.bindSumViews(d)
	}
}
