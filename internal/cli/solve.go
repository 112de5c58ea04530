package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanbest/internal/config"
	"github.com/gitrdm/gokanbest/internal/models"
	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

// searchFlags override the loaded configuration when set explicitly.
type searchFlags struct {
	family    string
	mode      string
	operator  string
	heuristic string
	maxDomain int
	noPruning bool
	timeout   time.Duration
	nodeLimit int
}

func (f *searchFlags) register(cmd *cobra.Command, selectors bool) {
	fl := cmd.Flags()
	if selectors {
		fl.StringVar(&f.family, "family", "", "value selector family: best|reverse|dichotomy|min|max")
		fl.StringVar(&f.mode, "mode", "", "propagation mode: full|path|subset")
	}
	fl.StringVar(&f.operator, "operator", "", "decision operator: eq|neq|split|reverse-split")
	fl.StringVar(&f.heuristic, "heuristic", "", "variable heuristic: input|dom|domdeg")
	fl.IntVar(&f.maxDomain, "max-domain", 0, "domain size from which only bounds are evaluated")
	fl.BoolVar(&f.noPruning, "no-pruning", false, "keep values that fail lookahead")
	fl.DurationVar(&f.timeout, "timeout", 0, "search time limit per run (0 = none)")
	fl.IntVar(&f.nodeLimit, "node-limit", 0, "search node limit per run (0 = none)")
}

func (f *searchFlags) apply(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	fl := cmd.Flags()
	if fl.Changed("family") {
		cfg.Family = f.family
	}
	if fl.Changed("mode") {
		cfg.Mode = f.mode
	}
	if fl.Changed("operator") {
		cfg.Operator = f.operator
	}
	if fl.Changed("heuristic") {
		cfg.Heuristic = f.heuristic
	}
	if fl.Changed("max-domain") {
		cfg.MaxDomain = f.maxDomain
	}
	if f.noPruning {
		cfg.Pruning = false
	}
	if fl.Changed("timeout") {
		cfg.TimeLimit = f.timeout
	}
	if fl.Changed("node-limit") {
		cfg.NodeLimit = f.nodeLimit
	}
	return cfg, cfg.Validate()
}

func newSolveCmd(a *app) *cobra.Command {
	var (
		flags      searchFlags
		metricsOut string
	)
	cmd := &cobra.Command{
		Use:       "solve <model>",
		Short:     "Solve a built-in model with one selector configuration",
		Args:      cobra.ExactArgs(1),
		ValidArgs: models.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.apply(cmd, a.cfg)
			if err != nil {
				return err
			}
			return runSolve(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, metricsOut)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write search metrics in Prometheus text format to this file")
	return cmd
}

func runSolve(ctx context.Context, w io.Writer, name string, cfg config.Config, metricsOut string) error {
	logger := loggerFromContext(ctx).With("run", uuid.NewString()[:8], "model", name)

	inst, err := models.Build(name)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	metrics := fdsearch.NewMetrics(reg)

	st, err := cfg.Strategy(inst.Model, inst.Decisions,
		fdsearch.WithSelectorLogger(logger), fdsearch.WithSelectorMetrics(metrics))
	if err != nil {
		return err
	}
	opts := append(cfg.SearchOptions(), fdsearch.WithLogger(logger), fdsearch.WithMetrics(metrics))
	solver, err := fdsearch.NewSolver(inst.Model, st, opts...)
	if err != nil {
		return err
	}

	logger.Debug("searching", "family", cfg.Family, "mode", cfg.Mode, "operator", cfg.Operator)
	p := newProgress(logger)
	res, err := solver.Solve(ctx)
	limited := errors.Is(err, fdsearch.ErrSearchLimitReached) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !limited {
		return err
	}
	p.done("search finished")

	printResult(w, inst, cfg, res, limited)

	if metricsOut != "" {
		if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		printDetail(w, "metrics written to %s", metricsOut)
	}
	return nil
}

func printResult(w io.Writer, inst *models.Instance, cfg config.Config, res *fdsearch.Result, limited bool) {
	printTitle(w, "%s (%s)", inst.Name, inst.Description)
	printKeyValue(w, "selector", cfg.Family+"/"+cfg.Mode+" "+cfg.Operator)
	if res.Best == nil {
		if res.Proven {
			printError(w, "infeasible")
		} else {
			printError(w, "no solution found before the limit")
		}
	} else {
		printKeyValue(w, "objective", strconv.Itoa(res.Best.Objective))
		printKeyValue(w, "proven", strconv.FormatBool(res.Proven))
		printKeyValue(w, "solutions", strconv.Itoa(len(res.Solutions)))
	}
	if limited {
		printDetail(w, "search stopped by a limit")
	}
	printKeyValue(w, "stats", res.Stats.String())
}
