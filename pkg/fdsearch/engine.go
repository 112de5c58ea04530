package fdsearch

// engine.go: propagation queue and fixpoint loop

// EngineStats counts propagator executions.
type EngineStats struct {
	Executions int
	Fixpoints  int
}

// Engine schedules propagators whose variables changed and runs them to a
// fixpoint. Passive propagators are never scheduled and are skipped if they
// became passive while queued.
type Engine struct {
	queue []*Propagator
	head  int
	stats EngineStats
}

func newEngine() *Engine { return &Engine{} }

// notify schedules every active propagator attached to v except the cause.
func (e *Engine) notify(v *IntVar, cause *Propagator) {
	for _, p := range v.props {
		if p != cause {
			e.schedule(p)
		}
	}
}

func (e *Engine) schedule(p *Propagator) {
	if p.scheduled || !p.active {
		return
	}
	p.scheduled = true
	e.queue = append(e.queue, p)
}

// Schedule enqueues p if it is active and not already queued.
func (e *Engine) Schedule(p *Propagator) { e.schedule(p) }

// ScheduleAll enqueues every active propagator of ps.
func (e *Engine) ScheduleAll(ps []*Propagator) {
	for _, p := range ps {
		e.schedule(p)
	}
}

// Propagate runs queued propagators until the queue is empty. On failure the
// remaining queue is flushed and the error returned, so the engine is always
// idle when Propagate returns.
func (e *Engine) Propagate() error {
	e.stats.Fixpoints++
	for e.head < len(e.queue) {
		p := e.queue[e.head]
		e.queue[e.head] = nil
		e.head++
		p.scheduled = false
		if !p.active {
			continue
		}
		e.stats.Executions++
		if err := p.constraint.Propagate(p); err != nil {
			e.Flush()
			return err
		}
	}
	e.queue = e.queue[:0]
	e.head = 0
	return nil
}

// Execute runs a single propagator immediately, bypassing the queue. Events
// it generates are queued as usual; callers that do not want them processed
// must Flush.
func (e *Engine) Execute(p *Propagator) error {
	e.stats.Executions++
	return p.constraint.Propagate(p)
}

// Flush drops all pending events.
func (e *Engine) Flush() {
	for i := e.head; i < len(e.queue); i++ {
		e.queue[i].scheduled = false
		e.queue[i] = nil
	}
	e.queue = e.queue[:0]
	e.head = 0
}

// Pending returns the number of queued propagators.
func (e *Engine) Pending() int { return len(e.queue) - e.head }

// Stats returns the execution counters.
func (e *Engine) Stats() EngineStats { return e.stats }
