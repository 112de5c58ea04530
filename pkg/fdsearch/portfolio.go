package fdsearch

// portfolio.go: concurrent runs of independently built models

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gitrdm/gokanbest/internal/parallel"
)

// PortfolioEntry builds one model and the strategy to search it with. Build
// is called on the worker goroutine, so each entry owns its model.
type PortfolioEntry struct {
	Name  string
	Build func() (*Model, Strategy, error)
}

// PortfolioRun is the outcome of one entry.
type PortfolioRun struct {
	Name   string
	Policy ResolutionPolicy
	Result *Result
	Err    error
}

// PortfolioResult collects every run of a portfolio.
type PortfolioResult struct {
	RunID string
	Runs  []PortfolioRun
}

// Best returns the run holding the best solution, or nil if no run found
// one. Proven runs win ties.
func (r *PortfolioResult) Best() *PortfolioRun {
	var best *PortfolioRun
	for i := range r.Runs {
		run := &r.Runs[i]
		if run.Result == nil || run.Result.Best == nil {
			continue
		}
		if best == nil || better(run, best) {
			best = run
		}
	}
	return best
}

func better(a, b *PortfolioRun) bool {
	ao, bo := a.Result.Best.Objective, b.Result.Best.Objective
	switch {
	case a.Policy == Minimize && ao != bo:
		return ao < bo
	case a.Policy == Maximize && ao != bo:
		return ao > bo
	}
	return a.Result.Proven && !b.Result.Proven
}

// Agree reports whether every run that proved its result reached the same
// objective value (or the same infeasibility).
func (r *PortfolioResult) Agree() bool {
	var ref *PortfolioRun
	for i := range r.Runs {
		run := &r.Runs[i]
		if run.Err != nil || run.Result == nil || !run.Result.Proven {
			continue
		}
		if ref == nil {
			ref = run
			continue
		}
		if (ref.Result.Best == nil) != (run.Result.Best == nil) {
			return false
		}
		if ref.Result.Best != nil && ref.Policy != Satisfaction &&
			ref.Result.Best.Objective != run.Result.Best.Objective {
			return false
		}
	}
	return true
}

// Portfolio runs several entries concurrently on a bounded worker pool.
// Search options are shared by every run, so monitors passed through them
// must be safe for concurrent use.
type Portfolio struct {
	entries []PortfolioEntry
	pool    *parallel.WorkerPool
	logger  *log.Logger
	opts    []SearchOption
}

// NewPortfolio creates a portfolio running at most workers entries at a
// time; 0 means one per CPU. A nil logger discards.
func NewPortfolio(workers int, logger *log.Logger, opts ...SearchOption) *Portfolio {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Portfolio{
		pool:   parallel.NewWorkerPool(workers),
		logger: logger,
		opts:   opts,
	}
}

// Add registers an entry.
func (p *Portfolio) Add(name string, build func() (*Model, Strategy, error)) *Portfolio {
	p.entries = append(p.entries, PortfolioEntry{Name: name, Build: build})
	return p
}

// Entries returns the registered entries.
func (p *Portfolio) Entries() []PortfolioEntry { return p.entries }

// Run searches every entry and waits for all of them. Search errors are
// reported per run; Run itself fails only when ctx is done before every
// entry could start.
func (p *Portfolio) Run(ctx context.Context) (*PortfolioResult, error) {
	res := &PortfolioResult{
		RunID: uuid.NewString(),
		Runs:  make([]PortfolioRun, len(p.entries)),
	}
	tasks := make([]parallel.Task, len(p.entries))
	for i, e := range p.entries {
		res.Runs[i].Name = e.Name
		tasks[i] = func(ctx context.Context) error {
			res.Runs[i] = p.runEntry(ctx, res.RunID, e)
			return nil
		}
	}
	if err := p.pool.Run(ctx, tasks...); err != nil {
		return res, err
	}
	return res, ctx.Err()
}

func (p *Portfolio) runEntry(ctx context.Context, runID string, e PortfolioEntry) PortfolioRun {
	run := PortfolioRun{Name: e.Name}
	logger := p.logger.With("run", runID, "entry", e.Name)

	m, st, err := e.Build()
	if err != nil {
		run.Err = err
		logger.Error("build failed", "err", err)
		return run
	}
	run.Policy = m.Policy()

	opts := append(append([]SearchOption(nil), p.opts...), WithLogger(logger))
	s, err := NewSolver(m, st, opts...)
	if err != nil {
		run.Err = err
		logger.Error("invalid strategy", "err", err)
		return run
	}
	run.Result, run.Err = s.Solve(ctx)
	if run.Err != nil {
		logger.Warn("search stopped", "err", run.Err)
	}
	return run
}
