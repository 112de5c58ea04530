package fdsearch

import (
	"fmt"
	"math"
)

// IntVar is an integer decision or auxiliary variable. A concrete variable
// owns a Domain; a view derives its domain from other variables and owns no
// storage. Both kinds expose the same read and update API, so propagators
// and selectors never need to tell them apart.
//
// Update operations take the propagator responsible for the change (nil for
// decisions and selectors), report whether the domain changed, and return
// a *Contradiction instead of ever leaving a domain empty.
type IntVar struct {
	id       int
	name     string
	model    *Model
	dom      Domain
	view     view
	constant bool
	props    []*Propagator
	stamp    uint64
}

// ID returns the variable's index in its model.
func (v *IntVar) ID() int { return v.id }

// Name returns the variable's name.
func (v *IntVar) Name() string { return v.name }

// Model returns the owning model.
func (v *IntVar) Model() *Model { return v.model }

// IsView reports whether the variable is derived from other variables.
func (v *IntVar) IsView() bool { return v.view != nil }

// IsConstant reports whether the variable was created by Model.Constant.
func (v *IntVar) IsConstant() bool { return v.constant }

// Dependencies returns the variables a view is computed from, or nil for a
// concrete variable.
func (v *IntVar) Dependencies() []*IntVar {
	if v.view == nil {
		return nil
	}
	return v.view.deps()
}

// Propagators returns the propagators attached to the variable. For a
// concrete variable this includes propagators posted on views over it.
func (v *IntVar) Propagators() []*Propagator { return v.props }

// Degree is the number of attached propagators.
func (v *IntVar) Degree() int { return len(v.props) }

func (v *IntVar) LB() int {
	if v.view != nil {
		return v.view.lb()
	}
	return v.dom.Min()
}

func (v *IntVar) UB() int {
	if v.view != nil {
		return v.view.ub()
	}
	return v.dom.Max()
}

// Size returns the domain cardinality. Bounds-only domains report ub-lb+1.
func (v *IntVar) Size() int {
	if v.view != nil {
		return v.view.size()
	}
	return v.dom.Size()
}

// Enumerated reports whether holes in the domain are represented.
func (v *IntVar) Enumerated() bool {
	if v.view != nil {
		return v.view.enumerated()
	}
	return v.dom.Enumerated()
}

func (v *IntVar) Contains(x int) bool {
	if v.view != nil {
		return v.view.contains(x)
	}
	return v.dom.Contains(x)
}

// NextValue returns the smallest domain value strictly greater than x, or
// math.MaxInt when there is none. Iterating from LB with NextValue visits
// the domain in ascending order.
func (v *IntVar) NextValue(x int) int {
	if v.view != nil {
		return v.view.next(x)
	}
	return v.dom.Next(x)
}

// PreviousValue returns the largest domain value strictly smaller than x,
// or math.MinInt when there is none.
func (v *IntVar) PreviousValue(x int) int {
	if v.view != nil {
		return v.view.prev(x)
	}
	return v.dom.Prev(x)
}

func (v *IntVar) IsInstantiated() bool { return v.LB() == v.UB() }

// Value returns the assigned value. Only meaningful when IsInstantiated.
func (v *IntVar) Value() int { return v.LB() }

// Domain returns a snapshot of a concrete variable's domain. For views it
// returns an interval over the current bounds.
func (v *IntVar) Domain() Domain {
	if v.view != nil {
		if v.view.enumerated() {
			vals := make([]int, 0, v.view.size())
			for x := v.LB(); x != math.MaxInt; x = v.NextValue(x) {
				vals = append(vals, x)
			}
			return NewBitSetDomainFromValues(vals...)
		}
		return NewIntervalDomain(v.LB(), v.UB())
	}
	return v.dom
}

// UpdateLowerBound removes every value below lb.
func (v *IntVar) UpdateLowerBound(lb int, cause *Propagator) (bool, error) {
	if v.view != nil {
		return v.view.updateLB(lb, cause)
	}
	if lb <= v.dom.Min() {
		return false, nil
	}
	if lb > v.dom.Max() {
		return false, contradiction(cause, v, "lower bound %d exceeds %d", lb, v.dom.Max())
	}
	return true, v.setDomain(v.dom.RemoveBelow(lb), cause)
}

// UpdateUpperBound removes every value above ub.
func (v *IntVar) UpdateUpperBound(ub int, cause *Propagator) (bool, error) {
	if v.view != nil {
		return v.view.updateUB(ub, cause)
	}
	if ub >= v.dom.Max() {
		return false, nil
	}
	if ub < v.dom.Min() {
		return false, contradiction(cause, v, "upper bound %d below %d", ub, v.dom.Min())
	}
	return true, v.setDomain(v.dom.RemoveAbove(ub), cause)
}

// RemoveValue removes x. On a bounds-only domain only the bounds can be
// removed; interior values are left in place.
func (v *IntVar) RemoveValue(x int, cause *Propagator) (bool, error) {
	if v.view != nil {
		return v.view.remove(x, cause)
	}
	if !v.dom.Contains(x) {
		return false, nil
	}
	if v.dom.Size() == 1 {
		return false, contradiction(cause, v, "removing last value %d", x)
	}
	nd := v.dom.RemoveValue(x)
	if nd.Size() == v.dom.Size() {
		return false, nil
	}
	return true, v.setDomain(nd, cause)
}

// InstantiateTo reduces the domain to {x}.
func (v *IntVar) InstantiateTo(x int, cause *Propagator) (bool, error) {
	if v.view != nil {
		return v.view.instantiate(x, cause)
	}
	if !v.dom.Contains(x) {
		return false, contradiction(cause, v, "value %d not in %s", x, v.dom)
	}
	if v.dom.Size() == 1 {
		return false, nil
	}
	return true, v.setDomain(v.dom.Fix(x), cause)
}

func (v *IntVar) setDomain(d Domain, cause *Propagator) error {
	if d.Size() == 0 {
		return contradiction(cause, v, "domain wiped out")
	}
	v.model.env.saveDomain(v)
	v.dom = d
	v.model.engine.notify(v, cause)
	return nil
}

// attach registers p on v and, for views, on every dependency.
func (v *IntVar) attach(p *Propagator) {
	if n := len(v.props); n > 0 && v.props[n-1] == p {
		return
	}
	v.props = append(v.props, p)
	if v.view != nil {
		for _, d := range v.view.deps() {
			d.attach(p)
		}
	}
}

func (v *IntVar) String() string {
	if v.view != nil {
		return fmt.Sprintf("%s=[%d..%d]", v.name, v.LB(), v.UB())
	}
	return fmt.Sprintf("%s=%s", v.name, v.dom)
}
