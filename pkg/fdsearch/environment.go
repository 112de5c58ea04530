package fdsearch

// environment.go: trail-based checkpoint/rollback of variable and propagator state

// trailEntry records one undoable change: either a variable's previous domain
// or a propagator's previous active flag.
type trailEntry struct {
	v      *IntVar
	dom    Domain
	p      *Propagator
	active bool
}

// CheckpointStats reports how many checkpoints were opened and closed over
// the lifetime of an environment. The two are equal whenever no scope is open.
type CheckpointStats struct {
	Opened int
	Closed int
}

// Environment owns the undo trail of a model. Changes made after a
// checkpoint is opened are undone, in reverse order, when it is closed.
//
// The environment is not safe for concurrent use; it belongs to exactly one
// model, which belongs to exactly one search.
type Environment struct {
	trail   []trailEntry
	marks   []int
	worlds  []uint64
	nextID  uint64
	stats   CheckpointStats
	onClose func()
}

// NewEnvironment creates an environment positioned at the root world.
func NewEnvironment() *Environment {
	return &Environment{worlds: []uint64{0}}
}

// Checkpoint is the guard returned by Open. Close restores everything that
// changed since Open; it is safe to call more than once.
type Checkpoint struct {
	env    *Environment
	depth  int
	closed bool
}

// Open pushes a new world and returns its guard. Typical use:
//
//	cp := env.Open()
//	defer cp.Close()
func (e *Environment) Open() *Checkpoint {
	e.marks = append(e.marks, len(e.trail))
	e.nextID++
	e.worlds = append(e.worlds, e.nextID)
	e.stats.Opened++
	return &Checkpoint{env: e, depth: len(e.marks)}
}

// Close rolls the environment back to the state at Open. Checkpoints must be
// closed in the reverse order they were opened; violating that is a
// programming error and panics.
func (c *Checkpoint) Close() {
	if c.closed {
		return
	}
	e := c.env
	if len(e.marks) != c.depth {
		panic("fdsearch: checkpoint closed out of order")
	}
	if e.onClose != nil {
		e.onClose()
	}
	mark := e.marks[len(e.marks)-1]
	e.undo(mark)
	e.marks = e.marks[:len(e.marks)-1]
	e.worlds = e.worlds[:len(e.worlds)-1]
	e.stats.Closed++
	c.closed = true
}

// Depth returns the number of currently open checkpoints.
func (e *Environment) Depth() int { return len(e.marks) }

// Stats returns the open/close counters.
func (e *Environment) Stats() CheckpointStats { return e.stats }

// TrailSize returns the number of pending undo entries.
func (e *Environment) TrailSize() int { return len(e.trail) }

func (e *Environment) world() uint64 { return e.worlds[len(e.worlds)-1] }

// saveDomain trails v's domain unless it was already saved in this world.
// Changes made at the root world are permanent and are not trailed.
func (e *Environment) saveDomain(v *IntVar) {
	if len(e.marks) == 0 {
		return
	}
	w := e.world()
	if v.stamp == w {
		return
	}
	v.stamp = w
	e.trail = append(e.trail, trailEntry{v: v, dom: v.dom})
}

func (e *Environment) saveActive(p *Propagator) {
	if len(e.marks) == 0 {
		return
	}
	e.trail = append(e.trail, trailEntry{p: p, active: p.active})
}

func (e *Environment) undo(to int) {
	for i := len(e.trail) - 1; i >= to; i-- {
		en := e.trail[i]
		if en.v != nil {
			en.v.dom = en.dom
			en.v.stamp = 0
		} else {
			en.p.active = en.active
		}
		e.trail[i] = trailEntry{}
	}
	e.trail = e.trail[:to]
}
