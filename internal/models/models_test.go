package models

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanbest/internal/config"
	"github.com/gitrdm/gokanbest/pkg/fdsearch"
)

func solve(t *testing.T, name string, cfg config.Config) *fdsearch.Result {
	t.Helper()
	inst, err := Build(name)
	require.NoError(t, err)
	st, err := cfg.Strategy(inst.Model, inst.Decisions)
	require.NoError(t, err)
	s, err := fdsearch.NewSolver(inst.Model, st)
	require.NoError(t, err)

	before := inst.Model.Env().Stats()
	res, err := s.Solve(context.Background())
	require.NoError(t, err)
	after := inst.Model.Env().Stats()
	assert.Equal(t, after.Opened-before.Opened, after.Closed-before.Closed, "checkpoints must balance")
	assert.Equal(t, 0, inst.Model.Env().Depth())
	return res
}

func TestNamesAndBuild(t *testing.T) {
	assert.Equal(t, []string{"assignment", "jobshop", "knapsack", "maxflowcut", "sum"}, Names())

	_, err := Build("tsp")
	assert.ErrorIs(t, err, ErrUnknownModel)

	for _, name := range Names() {
		inst, err := Build(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, inst.Name)
		assert.NotNil(t, inst.Model.Objective(), name)
		assert.NotEmpty(t, inst.Decisions, name)
	}
}

func TestReferenceOptimum(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Family = config.FamilyMin
			res := solve(t, name, cfg)
			inst, _ := Build(name)
			require.NotNil(t, res.Best)
			assert.True(t, res.Proven)
			assert.Equal(t, inst.Optimum, res.Best.Objective)
		})
	}
}

// Every family and propagation mode must prove the same optimum as plain
// lower-bound branching.
func TestSameOptimumAcrossFamiliesAndModes(t *testing.T) {
	families := []string{config.FamilyBest, config.FamilyReverse, config.FamilyDichotomy, config.FamilyMax}
	modes := []string{"full", "path", "subset"}
	for _, name := range Names() {
		inst, err := Build(name)
		require.NoError(t, err)
		for _, family := range families {
			for _, mode := range modes {
				if family == config.FamilyMax && mode != "full" {
					continue
				}
				t.Run(name+"/"+family+"/"+mode, func(t *testing.T) {
					cfg := config.Default()
					cfg.Family = family
					cfg.Mode = mode
					res := solve(t, name, cfg)
					require.NotNil(t, res.Best)
					assert.True(t, res.Proven)
					assert.Equal(t, inst.Optimum, res.Best.Objective)
				})
			}
		}
	}
}

// The maxflowcut objective is a sum view; the incumbent cut on it must hold
// for the whole search.
func TestSumViewObjectiveImprovesMonotonically(t *testing.T) {
	for _, family := range []string{config.FamilyMin, config.FamilyMax, config.FamilyBest, config.FamilyReverse} {
		t.Run(family, func(t *testing.T) {
			cfg := config.Default()
			cfg.Family = family
			res := solve(t, "maxflowcut", cfg)
			require.NotNil(t, res.Best)
			assert.True(t, res.Proven)
			assert.Equal(t, 5, res.Best.Objective)
			for i := 1; i < len(res.Solutions); i++ {
				assert.Greater(t, res.Solutions[i].Objective, res.Solutions[i-1].Objective)
			}
		})
	}
}

func TestSplitOperatorsReachOptimum(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping operator grid in short mode")
	}
	for _, name := range Names() {
		inst, err := Build(name)
		require.NoError(t, err)
		for _, op := range []string{"split", "reverse-split", "neq"} {
			t.Run(name+"/"+op, func(t *testing.T) {
				cfg := config.Default()
				cfg.Operator = op
				cfg.MaxDomain = 4
				res := solve(t, name, cfg)
				require.NotNil(t, res.Best)
				assert.True(t, res.Proven)
				assert.Equal(t, inst.Optimum, res.Best.Objective)
			})
		}
	}
}

func TestSolutionsAreFeasible(t *testing.T) {
	cfg := config.Default()
	res := solve(t, "assignment", cfg)
	require.NotNil(t, res.Best)

	costs := [][]int{{9, 2, 7, 8}, {6, 4, 3, 7}, {5, 8, 1, 8}, {7, 6, 9, 4}}
	seen := map[int]bool{}
	total := 0
	for i := range costs {
		task := res.Best.Values[fmt.Sprintf("task[%d]", i)]
		assert.False(t, seen[task], "task %d assigned twice", task)
		seen[task] = true
		total += costs[i][task]
	}
	assert.Equal(t, res.Best.Objective, total)
}
