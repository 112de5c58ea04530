package fdsearch

import "fmt"

// PropagationConstraint is a filtering rule over a fixed set of variables.
// Propagate narrows the domains of Variables() to a consistent state, or
// returns a *Contradiction. It is given the Propagator handle so domain
// updates can name their cause.
type PropagationConstraint interface {
	Variables() []*IntVar
	Propagate(p *Propagator) error
	Type() string
	String() string
}

// Propagator is the handle of a constraint posted to a model. It carries
// the run-time status the engine and the selectors act on: active/passive
// (trailed, so a passive propagator becomes active again on rollback) and
// scheduled/unscheduled (engine-owned, not trailed).
type Propagator struct {
	id         int
	constraint PropagationConstraint
	model      *Model
	active     bool
	scheduled  bool
}

// ID returns the propagator's index in its model.
func (p *Propagator) ID() int { return p.id }

// Constraint returns the posted rule.
func (p *Propagator) Constraint() PropagationConstraint { return p.constraint }

// Variables returns the variables of the posted rule.
func (p *Propagator) Variables() []*IntVar { return p.constraint.Variables() }

// IsActive reports whether the propagator takes part in propagation.
func (p *Propagator) IsActive() bool { return p.active }

// IsScheduled reports whether the propagator is waiting in the engine queue.
func (p *Propagator) IsScheduled() bool { return p.scheduled }

// SetPassive deactivates the propagator until the enclosing checkpoint is
// closed. At the root world the change is permanent.
func (p *Propagator) SetPassive() {
	if !p.active {
		return
	}
	p.model.env.saveActive(p)
	p.active = false
}

func (p *Propagator) String() string {
	return fmt.Sprintf("%s#%d", p.constraint.Type(), p.id)
}
