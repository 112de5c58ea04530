// Package models holds the small benchmark models used by the command line
// and by the cross-mode tests. Every builder returns a fresh model, so
// instances can be searched concurrently.
package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

// ErrUnknownModel is returned by Build for a name with no builder.
var ErrUnknownModel = errors.New("unknown model")

// Instance is a built model with its decision variables and known optimum.
type Instance struct {
	Name        string
	Description string
	Model       *fdsearch.Model
	Decisions   []*fdsearch.IntVar
	Optimum     int
}

// Builder creates a fresh instance.
type Builder func() (*Instance, error)

var registry = map[string]Builder{
	"sum":        Sum,
	"knapsack":   Knapsack,
	"jobshop":    JobShop,
	"assignment": Assignment,
	"maxflowcut": MaxFlowCut,
}

// Names returns the registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build creates the named instance.
func Build(name string) (*Instance, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownModel, name, Names())
	}
	return b()
}

// poster posts constraints until the first construction error.
type poster struct {
	m   *fdsearch.Model
	err error
}

func (p *poster) post(c fdsearch.PropagationConstraint, err error) {
	if p.err != nil {
		return
	}
	if err != nil {
		p.err = err
		return
	}
	p.m.Post(c)
}

// Sum minimises z = x + y with x != y and z >= 3. A third variable w is tied
// to x by a constraint that has nothing to do with the objective.
func Sum() (*Instance, error) {
	m := fdsearch.NewModel("sum")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	w := m.IntVar("w", 0, 5)
	z := m.BoundedVar("z", 0, 10)

	p := &poster{m: m}
	p.post(fdsearch.NewSumEquals([]*fdsearch.IntVar{x, y}, z))
	p.post(fdsearch.NewInequality(x, y, fdsearch.NotEqual))
	p.post(fdsearch.NewInequality(z, m.Constant(3), fdsearch.GreaterEqual))
	p.post(fdsearch.NewInequality(w, x, fdsearch.NotEqual))
	if p.err != nil {
		return nil, p.err
	}
	m.SetObjective(fdsearch.Minimize, z)
	return &Instance{
		Name:        "sum",
		Description: "minimise x+y, x != y, x+y >= 3",
		Model:       m,
		Decisions:   []*fdsearch.IntVar{x, y, w},
		Optimum:     3,
	}, nil
}

// Knapsack maximises the value of 0/1 items under a weight capacity.
func Knapsack() (*Instance, error) {
	weights := []int{3, 4, 5, 8, 9}
	values := []int{4, 5, 6, 10, 11}
	const capacity = 13

	m := fdsearch.NewModel("knapsack")
	take := m.IntVars("take", len(weights), 0, 1)
	total := 0
	for _, v := range values {
		total += v
	}
	weight := m.BoundedVar("weight", 0, capacity)
	value := m.BoundedVar("value", 0, total)

	p := &poster{m: m}
	p.post(fdsearch.NewLinearSum(take, weights, weight))
	p.post(fdsearch.NewLinearSum(take, values, value))
	if p.err != nil {
		return nil, p.err
	}
	m.SetObjective(fdsearch.Maximize, value)
	return &Instance{
		Name:        "knapsack",
		Description: "0/1 knapsack, 5 items, capacity 13",
		Model:       m,
		Decisions:   take,
		Optimum:     16,
	}, nil
}

// JobShop minimises the makespan of three two-operation jobs on two
// machines.
func JobShop() (*Instance, error) {
	// jobs[j] lists (machine, duration) per operation, in order.
	jobs := [][][2]int{
		{{0, 3}, {1, 2}},
		{{1, 2}, {0, 4}},
		{{0, 2}, {1, 3}},
	}
	horizon := 0
	for _, ops := range jobs {
		for _, op := range ops {
			horizon += op[1]
		}
	}

	m := fdsearch.NewModel("jobshop")
	p := &poster{m: m}
	machines := make([][]*fdsearch.IntVar, 2)
	durations := make([][]int, 2)
	var starts, ends []*fdsearch.IntVar
	for j, ops := range jobs {
		var prev *fdsearch.IntVar
		for k, op := range ops {
			s := m.IntVar(fmt.Sprintf("s[%d][%d]", j, k), 0, horizon-op[1])
			starts = append(starts, s)
			machines[op[0]] = append(machines[op[0]], s)
			durations[op[0]] = append(durations[op[0]], op[1])
			if prev != nil {
				p.post(fdsearch.NewInequality(prev, s, fdsearch.LessEqual))
			}
			prev = m.Offset(s, op[1])
		}
		ends = append(ends, prev)
	}
	for i := range machines {
		p.post(fdsearch.NewDisjunctive(machines[i], durations[i]))
	}
	makespan := m.BoundedVar("makespan", 0, horizon)
	p.post(fdsearch.NewMaximum(ends, makespan))
	if p.err != nil {
		return nil, p.err
	}
	m.SetObjective(fdsearch.Minimize, makespan)
	return &Instance{
		Name:        "jobshop",
		Description: "3x2 job shop, minimise makespan",
		Model:       m,
		Decisions:   starts,
		Optimum:     9,
	}, nil
}

// Assignment minimises the total cost of assigning four workers to four
// tasks.
func Assignment() (*Instance, error) {
	costs := [][]int{
		{9, 2, 7, 8},
		{6, 4, 3, 7},
		{5, 8, 1, 8},
		{7, 6, 9, 4},
	}
	n := len(costs)

	m := fdsearch.NewModel("assignment")
	task := m.IntVars("task", n, 0, n-1)
	cost := make([]*fdsearch.IntVar, n)
	p := &poster{m: m}
	for i, row := range costs {
		cost[i] = m.IntVarFromValues(fmt.Sprintf("cost[%d]", i), row...)
		p.post(fdsearch.NewElement(task[i], row, cost[i]))
	}
	p.post(fdsearch.NewAllDifferent(task))
	total := m.BoundedVar("total", 0, 40)
	p.post(fdsearch.NewSumEquals(cost, total))
	if p.err != nil {
		return nil, p.err
	}
	m.SetObjective(fdsearch.Minimize, total)
	return &Instance{
		Name:        "assignment",
		Description: "4x4 assignment, minimise total cost",
		Model:       m,
		Decisions:   task,
		Optimum:     13,
	}, nil
}

// MaxFlowCut maximises the flow out of the source of a five-arc network.
// The objective is a sum view over the two source arcs.
func MaxFlowCut() (*Instance, error) {
	m := fdsearch.NewModel("maxflowcut")
	sa := m.IntVar("f[s,a]", 0, 3)
	sb := m.IntVar("f[s,b]", 0, 2)
	ab := m.IntVar("f[a,b]", 0, 1)
	at := m.IntVar("f[a,t]", 0, 2)
	bt := m.IntVar("f[b,t]", 0, 3)
	zero := m.Constant(0)

	p := &poster{m: m}
	p.post(fdsearch.NewLinearSum([]*fdsearch.IntVar{sa, ab, at}, []int{1, -1, -1}, zero))
	p.post(fdsearch.NewLinearSum([]*fdsearch.IntVar{sb, ab, bt}, []int{1, 1, -1}, zero))
	if p.err != nil {
		return nil, p.err
	}
	m.SetObjective(fdsearch.Maximize, m.Sum(sa, sb))
	return &Instance{
		Name:        "maxflowcut",
		Description: "max s-t flow over 5 arcs",
		Model:       m,
		Decisions:   []*fdsearch.IntVar{sa, sb, ab, at, bt},
		Optimum:     5,
	}, nil
}
