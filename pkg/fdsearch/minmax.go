// Package fdsearch: global constraints - Maximum (bounds propagation)
package fdsearch

import "fmt"

// Maximum enforces r = max(vars) with bounds reasoning:
//   - r ∈ [max(lb_i), max(ub_i)]
//   - ub_i ≤ ub(r) for every i
//   - if a single x_i can still reach lb(r), then lb_i ≥ lb(r)
//
// A minimum is expressed as Maximum over Minus views.
type Maximum struct {
	vars []*IntVar
	r    *IntVar
}

// NewMaximum creates r = max(vars).
func NewMaximum(vars []*IntVar, r *IntVar) (*Maximum, error) {
	if len(vars) == 0 || r == nil {
		return nil, fmt.Errorf("Maximum: need at least one variable and a result: %w", ErrInvalidArgument)
	}
	for i, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("Maximum: vars[%d] is nil: %w", i, ErrInvalidArgument)
		}
	}
	return &Maximum{vars: append([]*IntVar(nil), vars...), r: r}, nil
}

func (c *Maximum) Variables() []*IntVar {
	return append(append([]*IntVar(nil), c.vars...), c.r)
}

func (c *Maximum) Type() string { return "Maximum" }

func (c *Maximum) String() string {
	return fmt.Sprintf("Maximum(%s = max of %d vars)", c.r.Name(), len(c.vars))
}

func (c *Maximum) Propagate(p *Propagator) error {
	for {
		maxLB, maxUB := c.vars[0].LB(), c.vars[0].UB()
		for _, v := range c.vars[1:] {
			maxLB = max(maxLB, v.LB())
			maxUB = max(maxUB, v.UB())
		}
		ch1, err := c.r.UpdateLowerBound(maxLB, p)
		if err != nil {
			return err
		}
		ch2, err := c.r.UpdateUpperBound(maxUB, p)
		if err != nil {
			return err
		}
		changed := ch1 || ch2

		rUB, rLB := c.r.UB(), c.r.LB()
		var support *IntVar
		supports := 0
		for _, v := range c.vars {
			ch, err := v.UpdateUpperBound(rUB, p)
			if err != nil {
				return err
			}
			changed = changed || ch
			if v.UB() >= rLB {
				support = v
				supports++
			}
		}
		switch supports {
		case 0:
			return contradiction(p, c.r, "no variable reaches %d", rLB)
		case 1:
			ch, err := support.UpdateLowerBound(rLB, p)
			if err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			return nil
		}
	}
}
