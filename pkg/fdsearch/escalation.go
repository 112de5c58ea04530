package fdsearch

// Escalation controls the relaxation step of a RelaxationSelector. Within a
// call the step doubles after every failed tightening; across calls the
// initial step doubles every Threshold consecutive search failures, and a
// solution resets it to 1. Every step is capped.
type Escalation struct {
	initial   int
	limit     int
	failures  int
	threshold int
}

// NewEscalation creates a controller whose steps never exceed maxStep and
// whose initial step doubles every threshold consecutive failures.
// A threshold <= 0 disables the doubling.
func NewEscalation(maxStep, threshold int) *Escalation {
	return &Escalation{initial: 1, limit: max(maxStep, 1), threshold: threshold}
}

// SetCap changes the maximum step and clamps the current initial step.
func (e *Escalation) SetCap(maxStep int) {
	e.limit = max(maxStep, 1)
	e.initial = min(e.initial, e.limit)
}

// Cap returns the maximum step.
func (e *Escalation) Cap() int { return e.limit }

// Initial returns the step a new call starts from.
func (e *Escalation) Initial() int { return e.initial }

// Failures returns the consecutive failures counted since the last solution.
func (e *Escalation) Failures() int { return e.failures }

// Grow returns the step following delta within a call.
func (e *Escalation) Grow(delta int) int {
	if delta > e.limit/2 {
		return e.limit
	}
	return delta * 2
}

// OnFailure counts a search failure and reports whether the initial step
// was doubled.
func (e *Escalation) OnFailure() bool {
	e.failures++
	if e.threshold <= 0 || e.failures%e.threshold != 0 {
		return false
	}
	next := e.Grow(e.initial)
	grown := next != e.initial
	e.initial = next
	return grown
}

// OnSolution resets the failure counter and the initial step.
func (e *Escalation) OnSolution() {
	e.failures = 0
	e.initial = 1
}
