// Package config loads search settings from YAML or TOML files and turns
// them into a search strategy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

// Families of value selectors.
const (
	FamilyBest      = "best"
	FamilyReverse   = "reverse"
	FamilyDichotomy = "dichotomy"
	FamilyMin       = "min"
	FamilyMax       = "max"
)

// Families lists every accepted family, objective-directed ones first.
var Families = []string{FamilyBest, FamilyReverse, FamilyDichotomy, FamilyMin, FamilyMax}

// Config contains the selector and search settings.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	Family           string        `yaml:"family" toml:"family"`
	Mode             string        `yaml:"mode" toml:"mode"`
	Operator         string        `yaml:"operator" toml:"operator"`
	MaxDomain        int           `yaml:"max_domain" toml:"max_domain"`
	Pruning          bool          `yaml:"pruning" toml:"pruning"`
	FailureThreshold int           `yaml:"failure_threshold" toml:"failure_threshold"`
	Heuristic        string        `yaml:"heuristic" toml:"heuristic"`
	TimeLimit        time.Duration `yaml:"time_limit" toml:"time_limit"`
	NodeLimit        int           `yaml:"node_limit" toml:"node_limit"`
}

// Default returns the default configuration: bounded lookahead with full
// propagation and equality branching.
func Default() Config {
	return Config{
		Family:           FamilyBest,
		Mode:             "full",
		Operator:         "eq",
		MaxDomain:        fdsearch.DefaultMaxDomain,
		Pruning:          true,
		FailureThreshold: fdsearch.DefaultFailureThreshold,
		Heuristic:        "input",
	}
}

// Load merges, in order, the defaults, the file at path (if path is not
// empty) and GOKANBEST_* environment variables, then validates the result.
// Files ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	loadEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse %s as TOML: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s as YAML: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GOKANBEST_FAMILY"); v != "" {
		cfg.Family = v
	}
	if v := os.Getenv("GOKANBEST_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("GOKANBEST_MAX_DOMAIN"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxDomain = i
		}
	}
	if v := os.Getenv("GOKANBEST_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TimeLimit = d
		}
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if !isFamily(c.Family) {
		return fmt.Errorf("family must be one of %s, got %q", strings.Join(Families, "|"), c.Family)
	}
	if _, err := fdsearch.ParsePropagationMode(c.Mode); err != nil {
		return err
	}
	if _, err := fdsearch.ParseDecisionOperator(c.Operator); err != nil {
		return err
	}
	if _, err := fdsearch.ParseVariableHeuristic(c.Heuristic); err != nil {
		return err
	}
	if c.MaxDomain < 1 {
		return fmt.Errorf("max_domain must be >= 1")
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be >= 1")
	}
	if c.TimeLimit < 0 || c.NodeLimit < 0 {
		return fmt.Errorf("time_limit and node_limit must not be negative")
	}
	return nil
}

func isFamily(s string) bool {
	for _, f := range Families {
		if f == s {
			return true
		}
	}
	return false
}

// Strategy builds the search strategy the configuration describes over the
// decision variables vars of m. Extra selector options (logger, metrics) are
// appended to the ones derived from the configuration.
func (c Config) Strategy(m *fdsearch.Model, vars []*fdsearch.IntVar, extra ...fdsearch.SelectorOption) (fdsearch.Strategy, error) {
	if err := c.Validate(); err != nil {
		return fdsearch.Strategy{}, err
	}
	mode, _ := fdsearch.ParsePropagationMode(c.Mode)
	op, _ := fdsearch.ParseDecisionOperator(c.Operator)
	h, _ := fdsearch.ParseVariableHeuristic(c.Heuristic)

	opts := append([]fdsearch.SelectorOption{
		fdsearch.WithMaxDomain(c.MaxDomain),
		fdsearch.WithPruning(c.Pruning),
		fdsearch.WithOperator(op),
		fdsearch.WithFailureThreshold(c.FailureThreshold),
	}, extra...)

	var sel fdsearch.IntValueSelector
	switch c.Family {
	case FamilyBest:
		sel = fdsearch.NewLookaheadSelector(m, mode, opts...)
	case FamilyReverse:
		sel = fdsearch.NewRelaxationSelector(m, mode, opts...)
	case FamilyDichotomy:
		sel = fdsearch.NewDichotomySelector(m, opts...)
	case FamilyMax:
		sel = fdsearch.MaxValue{}
	default:
		sel = fdsearch.MinValue{}
	}
	return fdsearch.Strategy{Vars: vars, Heuristic: h, Selector: sel, Operator: op}, nil
}

// SearchOptions returns the solver limits of the configuration.
func (c Config) SearchOptions() []fdsearch.SearchOption {
	var opts []fdsearch.SearchOption
	if c.TimeLimit > 0 {
		opts = append(opts, fdsearch.WithTimeLimit(c.TimeLimit))
	}
	if c.NodeLimit > 0 {
		opts = append(opts, fdsearch.WithNodeLimit(c.NodeLimit))
	}
	return opts
}
