// Package fdsearch is a finite-domain constraint solver with
// objective-directed value selection.
//
// This file defines the Model: variables, posted constraints, the optional
// objective, and the trail environment and propagation engine they share.
package fdsearch

import (
	"fmt"
	"math"
)

// ResolutionPolicy says whether a model is solved for any solution or for
// an optimal one.
type ResolutionPolicy int

const (
	// Satisfaction accepts any feasible assignment.
	Satisfaction ResolutionPolicy = iota
	// Minimize searches for the smallest objective value.
	Minimize
	// Maximize searches for the largest objective value.
	Maximize
)

func (p ResolutionPolicy) String() string {
	switch p {
	case Minimize:
		return "MINIMIZE"
	case Maximize:
		return "MAXIMIZE"
	}
	return "SATISFACTION"
}

// Model holds the variables and propagators of one problem instance together
// with the environment that trails their state and the engine that runs them.
//
// A Model is not safe for concurrent use. Parallel portfolios build one model
// per worker.
type Model struct {
	name      string
	vars      []*IntVar
	props     []*Propagator
	env       *Environment
	engine    *Engine
	objective *IntVar
	policy    ResolutionPolicy

	graph      *ObjectiveGraph
	graphProps int
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	m := &Model{
		name:   name,
		env:    NewEnvironment(),
		engine: newEngine(),
	}
	m.env.onClose = m.engine.Flush
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// IntVar creates an enumerated variable over [lo, hi].
func (m *Model) IntVar(name string, lo, hi int) *IntVar {
	return m.newVar(name, NewBitSetDomain(lo, hi))
}

// IntVarFromValues creates an enumerated variable over the given values.
func (m *Model) IntVarFromValues(name string, values ...int) *IntVar {
	return m.newVar(name, NewBitSetDomainFromValues(values...))
}

// BoundedVar creates a bounds-only variable over [lo, hi]. Use it for wide
// ranges such as objectives and sums where holes are irrelevant.
func (m *Model) BoundedVar(name string, lo, hi int) *IntVar {
	return m.newVar(name, NewIntervalDomain(lo, hi))
}

// IntVars creates n enumerated variables named prefix[i].
func (m *Model) IntVars(prefix string, n, lo, hi int) []*IntVar {
	vs := make([]*IntVar, n)
	for i := range vs {
		vs[i] = m.IntVar(fmt.Sprintf("%s[%d]", prefix, i), lo, hi)
	}
	return vs
}

// Constant creates a fixed variable. Constants are ignored by the
// objective graph and by view resolution.
func (m *Model) Constant(value int) *IntVar {
	v := m.newVar(fmt.Sprintf("cst(%d)", value), NewBitSetDomain(value, value))
	v.constant = true
	return v
}

func (m *Model) newVar(name string, d Domain) *IntVar {
	if d.Size() == 0 {
		panic(fmt.Sprintf("fdsearch: variable %q created with an empty domain", name))
	}
	v := &IntVar{id: len(m.vars), name: name, model: m, dom: d}
	m.vars = append(m.vars, v)
	return v
}

// Offset returns the view x + c.
func (m *Model) Offset(x *IntVar, c int) *IntVar {
	m.mustOwn(x)
	return m.newView(fmt.Sprintf("(%s+%d)", x.name, c), &offsetView{x: x, c: c})
}

// Minus returns the view -x.
func (m *Model) Minus(x *IntVar) *IntVar {
	m.mustOwn(x)
	return m.newView(fmt.Sprintf("-%s", x.name), &minusView{x: x})
}

// Sum returns the bounds-only view a + b.
func (m *Model) Sum(a, b *IntVar) *IntVar {
	m.mustOwn(a)
	m.mustOwn(b)
	sv := &sumView{a: a, b: b}
	v := m.newView(fmt.Sprintf("(%s+%s)", a.name, b.name), sv)
	v.dom = NewIntervalDomain(a.LB()+b.LB(), a.UB()+b.UB())
	sv.self = v
	return v
}

func (m *Model) newView(name string, vw view) *IntVar {
	v := &IntVar{id: len(m.vars), name: name, model: m, view: vw}
	m.vars = append(m.vars, v)
	return v
}

// Post attaches c to its variables and schedules its first run. Posting a
// constraint over a variable of another model is a programming error and
// panics.
func (m *Model) Post(c PropagationConstraint) *Propagator {
	p := &Propagator{id: len(m.props), constraint: c, model: m, active: true}
	for _, v := range c.Variables() {
		m.mustOwn(v)
		v.attach(p)
	}
	m.props = append(m.props, p)
	m.engine.schedule(p)
	return p
}

func (m *Model) mustOwn(v *IntVar) {
	if v == nil || v.model != m {
		panic(fmt.Sprintf("fdsearch: variable %v does not belong to model %q", v, m.name))
	}
}

// SetObjective declares the objective variable and the direction. Passing
// Satisfaction clears the objective. A cached objective graph is dropped.
// Bounds later imposed on a sum-view objective, such as the incumbent cut,
// are enforced by a propagator posted here.
func (m *Model) SetObjective(policy ResolutionPolicy, obj *IntVar) {
	m.graph = nil
	if policy == Satisfaction {
		m.objective, m.policy = nil, Satisfaction
		return
	}
	m.mustOwn(obj)
	m.bindSumViews(obj)
	m.objective, m.policy = obj, policy
}

// Objective returns the objective variable, or nil.
func (m *Model) Objective() *IntVar { return m.objective }

// Policy returns the resolution policy.
func (m *Model) Policy() ResolutionPolicy { return m.policy }

// Variables returns every variable, views and constants included, in
// creation order.
func (m *Model) Variables() []*IntVar { return m.vars }

// Propagators returns every posted propagator in posting order.
func (m *Model) Propagators() []*Propagator { return m.props }

// Env returns the trail environment.
func (m *Model) Env() *Environment { return m.env }

// Engine returns the propagation engine.
func (m *Model) Engine() *Engine { return m.engine }

// Checkpoint opens a checkpoint. Closing it flushes pending propagation
// events and restores every domain and activity flag changed since.
func (m *Model) Checkpoint() *Checkpoint { return m.env.Open() }

// Speculate runs fn inside a checkpoint and always rolls back, whatever fn
// returns. It is the building block of every lookahead.
func (m *Model) Speculate(fn func() error) error {
	cp := m.env.Open()
	defer cp.Close()
	return fn()
}

// Propagate runs the engine to a fixpoint.
func (m *Model) Propagate() error { return m.engine.Propagate() }

// ObjectiveGraph returns the graph of shortest constraint paths to the
// objective, building it on first use. The cached graph is rebuilt only if
// constraints were posted since it was built.
func (m *Model) ObjectiveGraph() (*ObjectiveGraph, error) {
	if m.graph != nil && m.graphProps == len(m.props) {
		return m.graph, nil
	}
	g, err := BuildObjectiveGraph(m)
	if err != nil {
		return nil, err
	}
	m.graph, m.graphProps = g, len(m.props)
	return g, nil
}

// infiniteCost is the cost of an infeasible candidate.
const infiniteCost = math.MaxInt

// objectiveCost maps the objective to a smaller-is-better scale: its lower
// bound when minimizing, its negated upper bound when maximizing, 1 otherwise.
func (m *Model) objectiveCost() int {
	switch {
	case m.objective == nil:
		return 1
	case m.policy == Minimize:
		return m.objective.LB()
	case m.policy == Maximize:
		return -m.objective.UB()
	}
	return 1
}

// Snapshot returns the current value (lower bound) of every concrete,
// non-constant variable, keyed by name.
func (m *Model) Snapshot() map[string]int {
	out := make(map[string]int, len(m.vars))
	for _, v := range m.vars {
		if v.view == nil && !v.constant {
			out[v.name] = v.LB()
		}
	}
	return out
}
