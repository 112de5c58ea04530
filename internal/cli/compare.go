package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanbest/internal/config"
	"github.com/gitrdm/gokanbest/internal/models"
	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

// ErrDisagreement is returned by compare when proven optima differ.
var ErrDisagreement = errors.New("proven optima disagree")

func newCompareCmd(a *app) *cobra.Command {
	var (
		flags   searchFlags
		workers int
	)
	cmd := &cobra.Command{
		Use:       "compare <model>",
		Short:     "Run every selector family and mode on a model in parallel",
		Args:      cobra.ExactArgs(1),
		ValidArgs: models.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.apply(cmd, a.cfg)
			if err != nil {
				return err
			}
			return runCompare(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, workers)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent runs (0 = one per CPU)")
	return cmd
}

// variants lists the family/mode pairs compared. Modes only matter to the
// lookahead and relaxation families.
func variants() [][2]string {
	var out [][2]string
	for _, family := range config.Families {
		switch family {
		case config.FamilyBest, config.FamilyReverse:
			for _, mode := range []string{"full", "path", "subset"} {
				out = append(out, [2]string{family, mode})
			}
		default:
			out = append(out, [2]string{family, "full"})
		}
	}
	return out
}

func runCompare(ctx context.Context, w io.Writer, name string, cfg config.Config, workers int) error {
	logger := loggerFromContext(ctx)
	if _, err := models.Build(name); err != nil {
		return err
	}

	pf := fdsearch.NewPortfolio(workers, logger.With("model", name), cfg.SearchOptions()...)
	for _, v := range variants() {
		c := cfg
		c.Family, c.Mode = v[0], v[1]
		pf.Add(v[0]+"/"+v[1], func() (*fdsearch.Model, fdsearch.Strategy, error) {
			inst, err := models.Build(name)
			if err != nil {
				return nil, fdsearch.Strategy{}, err
			}
			st, err := c.Strategy(inst.Model, inst.Decisions)
			return inst.Model, st, err
		})
	}

	p := newProgress(logger)
	res, err := pf.Run(ctx)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("compared %d configurations", len(res.Runs)))

	printTitle(w, "%s: %d configurations (run %s)", name, len(res.Runs), res.RunID)
	fmt.Fprintln(w, renderTable(
		[]string{"selector", "objective", "proven", "nodes", "fails", "time", "error"},
		compareRows(res),
	))

	if !res.Agree() {
		printError(w, "proven optima disagree")
		return ErrDisagreement
	}
	if best := res.Best(); best != nil {
		printSuccess(w, "all proven runs agree; best objective %d (%s)", best.Result.Best.Objective, best.Name)
	} else {
		printSuccess(w, "all proven runs agree: no solution")
	}
	return nil
}

func compareRows(res *fdsearch.PortfolioResult) [][]string {
	rows := make([][]string, 0, len(res.Runs))
	for _, run := range res.Runs {
		row := []string{run.Name, "-", "-", "-", "-", "-", ""}
		if r := run.Result; r != nil {
			if r.Best != nil {
				row[1] = strconv.Itoa(r.Best.Objective)
			}
			row[2] = strconv.FormatBool(r.Proven)
			row[3] = strconv.Itoa(r.Stats.Nodes)
			row[4] = strconv.Itoa(r.Stats.Fails)
			row[5] = r.Stats.Time.Round(time.Microsecond).String()
		}
		if run.Err != nil {
			row[6] = run.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}
