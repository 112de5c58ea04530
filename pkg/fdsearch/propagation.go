// Package fdsearch: core propagators - Arithmetic, Inequality, AllDifferent
//
// Every propagator here works through the IntVar update API, so it runs
// unchanged on concrete variables and on views.
package fdsearch

import (
	"fmt"
	"math"
)

// Arithmetic enforces dst = src + offset. Bounds are always filtered; when
// both sides are enumerated, unsupported values are removed as well.
type Arithmetic struct {
	src    *IntVar
	dst    *IntVar
	offset int
}

// NewArithmetic creates dst = src + offset.
func NewArithmetic(src, dst *IntVar, offset int) (*Arithmetic, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("Arithmetic: src and dst must be non-nil: %w", ErrInvalidArgument)
	}
	return &Arithmetic{src: src, dst: dst, offset: offset}, nil
}

func (a *Arithmetic) Variables() []*IntVar { return []*IntVar{a.src, a.dst} }
func (a *Arithmetic) Type() string         { return "Arithmetic" }

func (a *Arithmetic) String() string {
	return fmt.Sprintf("Arithmetic(%s = %s + %d)", a.dst.Name(), a.src.Name(), a.offset)
}

func (a *Arithmetic) Propagate(p *Propagator) error {
	for {
		changed := false
		steps := []func() (bool, error){
			func() (bool, error) { return a.dst.UpdateLowerBound(a.src.LB()+a.offset, p) },
			func() (bool, error) { return a.dst.UpdateUpperBound(a.src.UB()+a.offset, p) },
			func() (bool, error) { return a.src.UpdateLowerBound(a.dst.LB()-a.offset, p) },
			func() (bool, error) { return a.src.UpdateUpperBound(a.dst.UB()-a.offset, p) },
		}
		for _, step := range steps {
			ch, err := step()
			if err != nil {
				return err
			}
			changed = changed || ch
		}
		if a.src.Enumerated() && a.dst.Enumerated() {
			ch, err := filterSupport(a.src, a.dst, a.offset, p)
			if err != nil {
				return err
			}
			changed = changed || ch
			if ch, err = filterSupport(a.dst, a.src, -a.offset, p); err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			return nil
		}
	}
}

// filterSupport removes every x in from with x+off not in to.
func filterSupport(from, to *IntVar, off int, p *Propagator) (bool, error) {
	changed := false
	for v := from.LB(); v != math.MaxInt; v = from.NextValue(v) {
		if to.Contains(v + off) {
			continue
		}
		ch, err := from.RemoveValue(v, p)
		if err != nil {
			return changed, err
		}
		changed = changed || ch
	}
	return changed, nil
}

// InequalityKind specifies the type of inequality.
type InequalityKind int

const (
	LessThan     InequalityKind = iota // X < Y
	LessEqual                          // X ≤ Y
	GreaterThan                        // X > Y
	GreaterEqual                       // X ≥ Y
	NotEqual                           // X ≠ Y
)

// String returns the operator symbol.
func (ik InequalityKind) String() string {
	switch ik {
	case LessThan:
		return "<"
	case LessEqual:
		return "≤"
	case GreaterThan:
		return ">"
	case GreaterEqual:
		return "≥"
	case NotEqual:
		return "≠"
	default:
		return "?"
	}
}

// Inequality is the bounds-consistent binary relation X op Y.
type Inequality struct {
	x, y *IntVar
	kind InequalityKind
}

// NewInequality creates X op Y.
func NewInequality(x, y *IntVar, kind InequalityKind) (*Inequality, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("Inequality: x and y must be non-nil: %w", ErrInvalidArgument)
	}
	if kind < LessThan || kind > NotEqual {
		return nil, fmt.Errorf("Inequality: unknown kind %d: %w", kind, ErrInvalidArgument)
	}
	return &Inequality{x: x, y: y, kind: kind}, nil
}

func (c *Inequality) Variables() []*IntVar { return []*IntVar{c.x, c.y} }
func (c *Inequality) Type() string         { return "Inequality" }

func (c *Inequality) String() string {
	return fmt.Sprintf("%s %s %s", c.x.Name(), c.kind, c.y.Name())
}

func (c *Inequality) Propagate(p *Propagator) error {
	switch c.kind {
	case LessThan:
		return lessEqual(c.x, c.y, 1, p)
	case LessEqual:
		return lessEqual(c.x, c.y, 0, p)
	case GreaterThan:
		return lessEqual(c.y, c.x, 1, p)
	case GreaterEqual:
		return lessEqual(c.y, c.x, 0, p)
	}
	return notEqual(c.x, c.y, p)
}

// lessEqual enforces x + gap ≤ y. One pass reaches the fixpoint.
func lessEqual(x, y *IntVar, gap int, p *Propagator) error {
	if _, err := x.UpdateUpperBound(y.UB()-gap, p); err != nil {
		return err
	}
	_, err := y.UpdateLowerBound(x.LB()+gap, p)
	return err
}

func notEqual(x, y *IntVar, p *Propagator) error {
	if x.IsInstantiated() {
		if _, err := y.RemoveValue(x.Value(), p); err != nil {
			return err
		}
	}
	if y.IsInstantiated() {
		if _, err := x.RemoveValue(y.Value(), p); err != nil {
			return err
		}
	}
	if x.IsInstantiated() && y.IsInstantiated() && x.Value() == y.Value() {
		return contradiction(p, x, "%s = %s = %d", x.Name(), y.Name(), x.Value())
	}
	return nil
}

// AllDifferent requires pairwise distinct values. Filtering is forward
// checking plus a pigeonhole test on the union of the bounds.
type AllDifferent struct {
	vars []*IntVar
}

// NewAllDifferent creates the constraint over vars.
func NewAllDifferent(vars []*IntVar) (*AllDifferent, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("AllDifferent: vars cannot be empty: %w", ErrInvalidArgument)
	}
	for i, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("AllDifferent: vars[%d] is nil: %w", i, ErrInvalidArgument)
		}
	}
	return &AllDifferent{vars: append([]*IntVar(nil), vars...)}, nil
}

func (a *AllDifferent) Variables() []*IntVar { return a.vars }
func (a *AllDifferent) Type() string         { return "AllDifferent" }

func (a *AllDifferent) String() string {
	return fmt.Sprintf("AllDifferent(%d vars)", len(a.vars))
}

func (a *AllDifferent) Propagate(p *Propagator) error {
	lo, hi := math.MaxInt, math.MinInt
	for _, v := range a.vars {
		lo = min(lo, v.LB())
		hi = max(hi, v.UB())
	}
	if hi-lo+1 < len(a.vars) {
		return contradiction(p, nil, "%d variables share %d values", len(a.vars), hi-lo+1)
	}

	done := make([]bool, len(a.vars))
	for {
		changed := false
		for i, x := range a.vars {
			if done[i] || !x.IsInstantiated() {
				continue
			}
			done[i] = true
			val := x.Value()
			for j, y := range a.vars {
				if j == i {
					continue
				}
				if y.IsInstantiated() && y.Value() == val {
					return contradiction(p, y, "value %d used twice", val)
				}
				ch, err := y.RemoveValue(val, p)
				if err != nil {
					return err
				}
				changed = changed || ch
			}
		}
		if !changed {
			return nil
		}
	}
}
