// Package fdsearch: global constraint - Element (table element)
//
// Element enforces result = values[index] over a constant table:
//   - index is clamped to [0, len(values)-1].
//   - result keeps only values some admissible index maps to.
//   - index keeps only positions whose value result can still take.
//
// Duplicate table entries are allowed. A bounds-only result is narrowed to
// the smallest and largest supported value.
package fdsearch

import "fmt"

// Element links an index variable, a constant table and a result variable.
type Element struct {
	index  *IntVar
	values []int
	result *IntVar
}

// NewElement creates result = values[index].
func NewElement(index *IntVar, values []int, result *IntVar) (*Element, error) {
	if index == nil || result == nil {
		return nil, fmt.Errorf("Element: index and result must be non-nil: %w", ErrInvalidArgument)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("Element: values cannot be empty: %w", ErrInvalidArgument)
	}
	return &Element{index: index, values: append([]int(nil), values...), result: result}, nil
}

func (e *Element) Variables() []*IntVar { return []*IntVar{e.index, e.result} }
func (e *Element) Type() string         { return "Element" }

func (e *Element) String() string {
	return fmt.Sprintf("Element(%s = values[%s], n=%d)", e.result.Name(), e.index.Name(), len(e.values))
}

func (e *Element) Propagate(p *Propagator) error {
	if _, err := e.index.UpdateLowerBound(0, p); err != nil {
		return err
	}
	if _, err := e.index.UpdateUpperBound(len(e.values)-1, p); err != nil {
		return err
	}
	for {
		changed, err := e.filterResult(p)
		if err != nil {
			return err
		}
		idxChanged, err := e.filterIndex(p)
		if err != nil {
			return err
		}
		if !changed && !idxChanged {
			return nil
		}
	}
}

func (e *Element) filterResult(p *Propagator) (bool, error) {
	supported := make(map[int]struct{})
	lo, hi := 0, 0
	for i := e.index.LB(); i <= e.index.UB(); i = e.index.NextValue(i) {
		v := e.values[i]
		if len(supported) == 0 || v < lo {
			lo = v
		}
		if len(supported) == 0 || v > hi {
			hi = v
		}
		supported[v] = struct{}{}
	}
	c1, err := e.result.UpdateLowerBound(lo, p)
	if err != nil {
		return false, err
	}
	c2, err := e.result.UpdateUpperBound(hi, p)
	if err != nil {
		return false, err
	}
	changed := c1 || c2
	if !e.result.Enumerated() {
		return changed, nil
	}
	for r := e.result.LB(); r <= e.result.UB(); r = e.result.NextValue(r) {
		if _, ok := supported[r]; ok {
			continue
		}
		c, err := e.result.RemoveValue(r, p)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

func (e *Element) filterIndex(p *Propagator) (bool, error) {
	changed := false
	for i := e.index.LB(); i <= e.index.UB(); i = e.index.NextValue(i) {
		if e.result.Contains(e.values[i]) {
			continue
		}
		c, err := e.index.RemoveValue(i, p)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}
