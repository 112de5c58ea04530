// Package fdsearch: global constraints - LinearSum (bounds propagation)
//
// LinearSum enforces Σ a[i]*x[i] = t with bounds-consistent propagation.
//
// Propagation:
//   - Prune t to [SumMin..SumMax], where
//     SumMin = Σ (a[i]>0 ? a[i]*min(x[i]) : a[i]*max(x[i]))
//     SumMax = Σ (a[i]>0 ? a[i]*max(x[i]) : a[i]*min(x[i]))
//   - For each x[k], a[k]*x[k] ∈ [t.min - OtherMax, t.max - OtherMin];
//     convert to bounds on x[k] with sign-aware ceil/floor division.
//   - Repeat until no bound moves, since the propagator is not rescheduled by
//     its own changes.
package fdsearch

import (
	"fmt"
	"strings"
)

// LinearSum is a bounds-consistent weighted sum constraint: Σ a[i]*x[i] = t.
type LinearSum struct {
	vars   []*IntVar
	coeffs []int
	total  *IntVar
}

// NewLinearSum constructs a new LinearSum constraint.
//
// Contract:
//   - len(vars) > 0, len(vars) == len(coeffs)
//   - coeffs[i] can be positive, negative, or zero
//   - total != nil
func NewLinearSum(vars []*IntVar, coeffs []int, total *IntVar) (*LinearSum, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("LinearSum: vars cannot be empty: %w", ErrInvalidArgument)
	}
	if len(vars) != len(coeffs) {
		return nil, fmt.Errorf("LinearSum: len(vars)=%d != len(coeffs)=%d: %w", len(vars), len(coeffs), ErrInvalidArgument)
	}
	if total == nil {
		return nil, fmt.Errorf("LinearSum: total cannot be nil: %w", ErrInvalidArgument)
	}
	for i, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("LinearSum: vars[%d] is nil: %w", i, ErrInvalidArgument)
		}
	}
	return &LinearSum{
		vars:   append([]*IntVar(nil), vars...),
		coeffs: append([]int(nil), coeffs...),
		total:  total,
	}, nil
}

// NewSumEquals is NewLinearSum with every coefficient equal to 1.
func NewSumEquals(vars []*IntVar, total *IntVar) (*LinearSum, error) {
	coeffs := make([]int, len(vars))
	for i := range coeffs {
		coeffs[i] = 1
	}
	return NewLinearSum(vars, coeffs, total)
}

func (s *LinearSum) Variables() []*IntVar {
	out := make([]*IntVar, 0, len(s.vars)+1)
	out = append(out, s.vars...)
	return append(out, s.total)
}

func (s *LinearSum) Type() string { return "LinearSum" }

func (s *LinearSum) String() string {
	var b strings.Builder
	for i, v := range s.vars {
		if i > 0 {
			b.WriteString(" + ")
		}
		if s.coeffs[i] != 1 {
			fmt.Fprintf(&b, "%d*", s.coeffs[i])
		}
		b.WriteString(v.Name())
	}
	return fmt.Sprintf("LinearSum(%s = %s)", b.String(), s.total.Name())
}

func (s *LinearSum) bounds() (sumMin, sumMax int) {
	for i, x := range s.vars {
		lo, hi := contribution(s.coeffs[i], x)
		sumMin += lo
		sumMax += hi
	}
	return sumMin, sumMax
}

// contribution returns the range of c*x.
func contribution(c int, x *IntVar) (int, int) {
	switch {
	case c > 0:
		return c * x.LB(), c * x.UB()
	case c < 0:
		return c * x.UB(), c * x.LB()
	}
	return 0, 0
}

// Propagate applies bounds-consistent pruning until a fixpoint.
func (s *LinearSum) Propagate(p *Propagator) error {
	for {
		changed := false
		sumMin, sumMax := s.bounds()

		ch, err := s.total.UpdateLowerBound(sumMin, p)
		if err != nil {
			return err
		}
		changed = changed || ch
		if ch, err = s.total.UpdateUpperBound(sumMax, p); err != nil {
			return err
		}
		changed = changed || ch

		tMin, tMax := s.total.LB(), s.total.UB()
		for i, x := range s.vars {
			c := s.coeffs[i]
			if c == 0 {
				continue
			}
			myMin, myMax := contribution(c, x)
			otherMin := sumMin - myMin
			otherMax := sumMax - myMax
			// c*x ∈ [lo, hi]
			lo, hi := tMin-otherMax, tMax-otherMin
			var newLB, newUB int
			if c > 0 {
				newLB, newUB = ceilDiv(lo, c), floorDiv(hi, c)
			} else {
				newLB, newUB = ceilDiv(hi, c), floorDiv(lo, c)
			}
			if ch, err = x.UpdateLowerBound(newLB, p); err != nil {
				return err
			}
			changed = changed || ch
			if ch, err = x.UpdateUpperBound(newUB, p); err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			return nil
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
