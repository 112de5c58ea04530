package fdsearch

// monitor.go: search monitors and statistics

import (
	"fmt"
	"sync"
	"time"
)

// SearchMonitor is notified by the search driver. Value selectors that
// implement it are plugged into the search automatically.
type SearchMonitor interface {
	OnSolutionFound()
	OnContradiction(err error)
}

// MonitorFuncs adapts plain functions to SearchMonitor. Nil fields are
// ignored.
type MonitorFuncs struct {
	Solution      func()
	Contradiction func(err error)
}

func (m MonitorFuncs) OnSolutionFound() {
	if m.Solution != nil {
		m.Solution()
	}
}

func (m MonitorFuncs) OnContradiction(err error) {
	if m.Contradiction != nil {
		m.Contradiction(err)
	}
}

// SearchStats holds statistics about one search.
type SearchStats struct {
	Nodes     int           // search nodes explored
	Fails     int           // failed nodes
	Solutions int           // solutions found
	MaxDepth  int           // deepest decision level reached
	Time      time.Duration // wall time of the search

	Executions int // propagator executions, speculative ones included
	Checkpoint CheckpointStats
}

func (s SearchStats) String() string {
	return fmt.Sprintf("nodes=%d fails=%d solutions=%d depth=%d executions=%d time=%s",
		s.Nodes, s.Fails, s.Solutions, s.MaxDepth, s.Executions, s.Time.Round(time.Microsecond))
}

// statsRecorder keeps the counters of a running search. It is guarded by a
// mutex so a portfolio can report progress while workers are searching.
type statsRecorder struct {
	mu    sync.Mutex
	stats SearchStats
	start time.Time
}

func (r *statsRecorder) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = SearchStats{}
	r.start = time.Now()
}

func (r *statsRecorder) node(depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Nodes++
	if depth > r.stats.MaxDepth {
		r.stats.MaxDepth = depth
	}
}

func (r *statsRecorder) fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Fails++
}

func (r *statsRecorder) solution() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Solutions++
}

func (r *statsRecorder) nodes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Nodes
}

func (r *statsRecorder) finish(m *Model) SearchStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Time = time.Since(r.start)
	r.stats.Executions = m.engine.Stats().Executions
	r.stats.Checkpoint = m.env.Stats()
	return r.stats
}

func (r *statsRecorder) snapshot() SearchStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Time = time.Since(r.start)
	return s
}
