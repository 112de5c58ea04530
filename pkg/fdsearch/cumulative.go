// Package fdsearch: global constraint - Cumulative (time-table filtering)
//
// Cumulative models one renewable resource of fixed capacity consumed by
// tasks with start variables, fixed durations and fixed demands. A task
// started at s occupies [s, s+dur).
//
// Propagation uses compulsory parts:
//   - est = min(start), lst = max(start). When lst < est+dur the task runs
//     over [lst, est+dur) whatever its exact start.
//   - Summing demands over compulsory parts gives a profile; a profile above
//     capacity is a contradiction.
//   - A start s is removed when placing the task on [s, s+dur) would push the
//     profile above capacity, not counting the task's own compulsory part.
//
// A capacity of 1 makes it a disjunctive (no-overlap) resource.
package fdsearch

import "fmt"

// Cumulative is a time-table resource constraint.
type Cumulative struct {
	starts    []*IntVar
	durations []int
	demands   []int
	capacity  int
}

// NewCumulative creates a Cumulative constraint. Durations must be positive,
// demands non-negative and capacity positive.
func NewCumulative(starts []*IntVar, durations, demands []int, capacity int) (*Cumulative, error) {
	n := len(starts)
	if n == 0 {
		return nil, fmt.Errorf("Cumulative: requires at least one task: %w", ErrInvalidArgument)
	}
	if len(durations) != n || len(demands) != n {
		return nil, fmt.Errorf("Cumulative: mismatched lengths (starts=%d, durations=%d, demands=%d): %w",
			n, len(durations), len(demands), ErrInvalidArgument)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("Cumulative: capacity must be > 0: %w", ErrInvalidArgument)
	}
	for i := range starts {
		switch {
		case starts[i] == nil:
			return nil, fmt.Errorf("Cumulative: starts[%d] is nil: %w", i, ErrInvalidArgument)
		case durations[i] <= 0:
			return nil, fmt.Errorf("Cumulative: durations[%d] must be > 0: %w", i, ErrInvalidArgument)
		case demands[i] < 0:
			return nil, fmt.Errorf("Cumulative: demands[%d] must be >= 0: %w", i, ErrInvalidArgument)
		}
	}
	return &Cumulative{
		starts:    append([]*IntVar(nil), starts...),
		durations: append([]int(nil), durations...),
		demands:   append([]int(nil), demands...),
		capacity:  capacity,
	}, nil
}

// NewDisjunctive creates a no-overlap resource: unit demands, capacity 1.
func NewDisjunctive(starts []*IntVar, durations []int) (*Cumulative, error) {
	demands := make([]int, len(starts))
	for i := range demands {
		demands[i] = 1
	}
	return NewCumulative(starts, durations, demands, 1)
}

func (c *Cumulative) Variables() []*IntVar { return c.starts }
func (c *Cumulative) Type() string         { return "Cumulative" }

func (c *Cumulative) String() string {
	return fmt.Sprintf("Cumulative(n=%d, capacity=%d)", len(c.starts), c.capacity)
}

func (c *Cumulative) Propagate(p *Propagator) error {
	for {
		changed, err := c.filter(p)
		if err != nil || !changed {
			return err
		}
	}
}

func (c *Cumulative) filter(p *Propagator) (bool, error) {
	n := len(c.starts)
	origin, horizon := c.starts[0].LB(), 0
	for i, v := range c.starts {
		origin = min(origin, v.LB())
		horizon = max(horizon, v.UB()+c.durations[i])
	}
	if horizon <= origin {
		return false, nil
	}

	// profile[t-origin] sums the demands of tasks that must run at t.
	profile := make([]int, horizon-origin)
	cpStart := make([]int, n)
	cpEnd := make([]int, n)
	for i, v := range c.starts {
		cpStart[i], cpEnd[i] = v.UB(), v.LB()+c.durations[i]
		if c.demands[i] == 0 {
			continue
		}
		for t := cpStart[i]; t < cpEnd[i]; t++ {
			profile[t-origin] += c.demands[i]
			if profile[t-origin] > c.capacity {
				return false, contradiction(p, v, "capacity %d exceeded at t=%d", c.capacity, t)
			}
		}
	}

	changed := false
	for i, v := range c.starts {
		dem := c.demands[i]
		if dem == 0 {
			continue
		}
		for s := v.LB(); s <= v.UB(); s = v.NextValue(s) {
			if c.fits(profile, origin, i, s, cpStart[i], cpEnd[i]) {
				continue
			}
			ch, err := v.RemoveValue(s, p)
			if err != nil {
				return false, err
			}
			changed = changed || ch
		}
	}
	return changed, nil
}

func (c *Cumulative) fits(profile []int, origin, i, s, cpStart, cpEnd int) bool {
	dem := c.demands[i]
	for t := s; t < s+c.durations[i] && t-origin < len(profile); t++ {
		load := profile[t-origin]
		if cpStart <= t && t < cpEnd {
			load -= dem
		}
		if load+dem > c.capacity {
			return false
		}
	}
	return true
}
