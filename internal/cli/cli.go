// Package cli implements the gokanbest command-line interface.
//
// The commands run the built-in benchmark models with a chosen value
// selector family and propagation mode:
//   - solve: search one model with one configuration
//   - compare: search one model with every family and mode in parallel and
//     check that the proven optima agree
//   - graph: print the objective graph of a model
//
// All commands accept --verbose (-v) for debug logging and --config (-c)
// for a YAML or TOML settings file. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanbest/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// app is the state shared by every command of one invocation.
type app struct {
	verbose    bool
	configPath string
	cfg        config.Config
	logOut     io.Writer
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Logs go to logOut.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	a := &app{cfg: config.Default(), logOut: logOut}

	root := &cobra.Command{
		Use:          "gokanbest",
		Short:        "Objective-directed value selection for finite-domain search",
		Long:         `gokanbest solves small optimisation models with lookahead, relaxation and dichotomy value selectors and compares them against plain branching.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if a.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(a.logOut, level)
			cmd.SetContext(withLogger(cmd.Context(), logger))

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.configPath != "" {
				logger.Debug("config loaded", "path", a.configPath, "family", cfg.Family, "mode", cfg.Mode)
			}
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("gokanbest %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML or TOML settings file")

	root.AddCommand(newSolveCmd(a))
	root.AddCommand(newCompareCmd(a))
	root.AddCommand(newGraphCmd(a))
	return root
}
