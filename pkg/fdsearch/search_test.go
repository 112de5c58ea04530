package fdsearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairModel is x != y over [0,2]: six solutions, no objective.
func pairModel() (m *Model, x, y *IntVar) {
	m = NewModel("pair")
	x = m.IntVar("x", 0, 2)
	y = m.IntVar("y", 0, 2)
	m.Post(must(NewInequality(x, y, NotEqual)))
	return m, x, y
}

func solve(t *testing.T, m *Model, st Strategy, opts ...SearchOption) *Result {
	t.Helper()
	s, err := NewSolver(m, st, opts...)
	require.NoError(t, err)
	res, err := s.Solve(context.Background())
	require.NoError(t, err)
	return res
}

func TestSolver_EnumeratesAllSolutions(t *testing.T) {
	for _, op := range []DecisionOperator{OpEq, OpNeq, OpSplit, OpReverseSplit} {
		t.Run(op.String(), func(t *testing.T) {
			m, x, y := pairModel()
			res := solve(t, m, Strategy{Vars: []*IntVar{x, y}, Operator: op}, WithSolutionLimit(0))

			assert.Len(t, res.Solutions, 6)
			assert.True(t, res.Proven)
			seen := map[[2]int]bool{}
			for _, sol := range res.Solutions {
				key := [2]int{sol.Values["x"], sol.Values["y"]}
				assert.NotEqual(t, key[0], key[1])
				assert.False(t, seen[key], "duplicate solution %v", key)
				seen[key] = true
			}
		})
	}
}

func TestSolver_SatisfactionStopsAtFirstSolution(t *testing.T) {
	m, x, y := pairModel()
	res := solve(t, m, Strategy{Vars: []*IntVar{x, y}})
	require.Len(t, res.Solutions, 1)
	assert.False(t, res.Proven)
	assert.Equal(t, map[string]int{"x": 0, "y": 1}, res.Best.Values)
}

func TestSolver_RestoresModel(t *testing.T) {
	m, x, y := pairModel()
	solve(t, m, Strategy{Vars: []*IntVar{x, y}}, WithSolutionLimit(0))

	assert.Equal(t, 3, x.Size())
	assert.Equal(t, 3, y.Size())
	assert.Equal(t, 0, m.Env().Depth())
	st := m.Env().Stats()
	assert.Equal(t, st.Opened, st.Closed)
}

func TestSolver_MinimizeWithEverySelector(t *testing.T) {
	selectors := map[string]func(m *Model) IntValueSelector{
		"min":       func(*Model) IntValueSelector { return MinValue{} },
		"max":       func(*Model) IntValueSelector { return MaxValue{} },
		"best/full": func(m *Model) IntValueSelector { return NewLookaheadSelector(m, FullPropagation) },
		"best/path": func(m *Model) IntValueSelector { return NewLookaheadSelector(m, PathPropagation) },
		"best/subset": func(m *Model) IntValueSelector {
			return NewLookaheadSelector(m, SubsetPropagation)
		},
		"reverse/full":   func(m *Model) IntValueSelector { return NewRelaxationSelector(m, FullPropagation) },
		"reverse/subset": func(m *Model) IntValueSelector { return NewRelaxationSelector(m, SubsetPropagation) },
		"dichotomy":      func(m *Model) IntValueSelector { return NewDichotomySelector(m) },
	}
	for name, build := range selectors {
		t.Run(name, func(t *testing.T) {
			m, x, y, z := sumModel()
			m.Post(must(NewInequality(x, y, NotEqual)))
			m.Post(must(NewInequality(z, m.Constant(3), GreaterEqual)))

			res := solve(t, m, Strategy{Vars: []*IntVar{x, y}, Selector: build(m)})
			require.NotNil(t, res.Best)
			assert.Equal(t, 3, res.Best.Objective)
			assert.True(t, res.Proven)
			assert.Equal(t, 3, res.Best.Values["x"]+res.Best.Values["y"])
		})
	}
}

func TestSolver_Maximize(t *testing.T) {
	m := NewModel("max")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	w := m.BoundedVar("w", 0, 6)
	m.Post(must(NewLinearSum([]*IntVar{x, y}, []int{1, 2}, w)))
	m.SetObjective(Maximize, m.Sum(x, y))

	res := solve(t, m, Strategy{Vars: []*IntVar{x, y}, Selector: NewLookaheadSelector(m, FullPropagation)})
	require.NotNil(t, res.Best)
	assert.Equal(t, 5, res.Best.Objective)
	assert.True(t, res.Proven)

	objs := make([]int, len(res.Solutions))
	for i, s := range res.Solutions {
		objs[i] = s.Objective
	}
	for i := 1; i < len(objs); i++ {
		assert.Greater(t, objs[i], objs[i-1], "each solution improves on the last")
	}
}

// cappedPairModel maximises a+b with a+2b <= 6 and a != b. Once a=3 is
// decided under the cut a+b >= 5, the cap forces b <= 1 and drops a+b back
// below the incumbent unless the cut on the view keeps being enforced.
func cappedPairModel() (m *Model, a, b *IntVar) {
	m = NewModel("capped-pair")
	a = m.IntVar("a", 0, 4)
	b = m.IntVar("b", 0, 4)
	w := m.BoundedVar("w", 0, 6)
	m.Post(must(NewLinearSum([]*IntVar{a, b}, []int{1, 2}, w)))
	m.Post(must(NewInequality(a, b, NotEqual)))
	m.SetObjective(Maximize, m.Sum(a, b))
	return m, a, b
}

func TestSolver_SumViewObjectiveCutHolds(t *testing.T) {
	m, a, b := cappedPairModel()
	baseline := solve(t, m, Strategy{Vars: []*IntVar{a, b}})
	require.NotNil(t, baseline.Best)
	require.True(t, baseline.Proven)
	assert.Equal(t, 5, baseline.Best.Objective)

	selectors := map[string]func(m *Model) IntValueSelector{
		"min":            func(*Model) IntValueSelector { return MinValue{} },
		"max":            func(*Model) IntValueSelector { return MaxValue{} },
		"best/full":      func(m *Model) IntValueSelector { return NewLookaheadSelector(m, FullPropagation) },
		"best/path":      func(m *Model) IntValueSelector { return NewLookaheadSelector(m, PathPropagation) },
		"best/subset":    func(m *Model) IntValueSelector { return NewLookaheadSelector(m, SubsetPropagation) },
		"reverse/full":   func(m *Model) IntValueSelector { return NewRelaxationSelector(m, FullPropagation) },
		"reverse/path":   func(m *Model) IntValueSelector { return NewRelaxationSelector(m, PathPropagation) },
		"reverse/subset": func(m *Model) IntValueSelector { return NewRelaxationSelector(m, SubsetPropagation) },
		"dichotomy":      func(m *Model) IntValueSelector { return NewDichotomySelector(m) },
	}
	for name, build := range selectors {
		t.Run(name, func(t *testing.T) {
			m, a, b := cappedPairModel()
			res := solve(t, m, Strategy{Vars: []*IntVar{a, b}, Selector: build(m)})
			require.NotNil(t, res.Best)
			assert.True(t, res.Proven)
			assert.Equal(t, baseline.Best.Objective, res.Best.Objective)
			for i, sol := range res.Solutions {
				assert.Equal(t, sol.Values["a"]+sol.Values["b"], sol.Objective)
				assert.LessOrEqual(t, sol.Values["a"]+2*sol.Values["b"], 6)
				if i > 0 {
					assert.Greater(t, sol.Objective, res.Solutions[i-1].Objective, "each solution improves on the last")
				}
			}
		})
	}
}

func TestSolver_LeafKeepsBetterIncumbent(t *testing.T) {
	m := NewModel("leaf")
	x := m.IntVar("x", 2, 2)
	m.SetObjective(Minimize, x)
	s, err := NewSolver(m, Strategy{Vars: []*IntVar{x}})
	require.NoError(t, err)

	s.result = &Result{Best: &Solution{Objective: 1}}
	require.NoError(t, s.leaf())
	assert.Empty(t, s.result.Solutions)
	assert.Equal(t, 1, s.result.Best.Objective)
	assert.Equal(t, 1, s.Stats().Fails)

	s.result = &Result{Best: &Solution{Objective: 3}}
	require.NoError(t, s.leaf())
	require.Len(t, s.result.Solutions, 1)
	assert.Equal(t, 2, s.result.Best.Objective)
}

func TestSolver_Infeasible(t *testing.T) {
	m := NewModel("infeasible")
	m.Post(must(NewAllDifferent(m.IntVars("v", 3, 0, 1))))
	res := solve(t, m, Strategy{})
	assert.Nil(t, res.Best)
	assert.True(t, res.Proven)
	assert.Equal(t, 1, res.Stats.Fails)
}

func TestSolver_NodeLimit(t *testing.T) {
	m, x, y := pairModel()
	s, err := NewSolver(m, Strategy{Vars: []*IntVar{x, y}}, WithSolutionLimit(0), WithNodeLimit(3))
	require.NoError(t, err)
	res, err := s.Solve(context.Background())
	assert.ErrorIs(t, err, ErrSearchLimitReached)
	require.NotNil(t, res)
	assert.False(t, res.Proven)
	assert.LessOrEqual(t, res.Stats.Nodes, 3)
	assert.Equal(t, 0, m.Env().Depth())
}

func TestSolver_CancelledContext(t *testing.T) {
	m, x, y := pairModel()
	s, err := NewSolver(m, Strategy{Vars: []*IntVar{x, y}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Nil(t, res.Best)
	assert.False(t, res.Proven)
}

func TestSolver_RejectsInvalidStrategies(t *testing.T) {
	m, x, y := pairModel()
	_, err := NewSolver(m, Strategy{Vars: []*IntVar{m.Sum(x, y)}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	other := NewModel("other")
	_, err = NewSolver(m, Strategy{Vars: []*IntVar{other.IntVar("z", 0, 1)}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSolver(m, Strategy{Vars: []*IntVar{m.Offset(x, 1), m.Minus(y)}})
	assert.NoError(t, err, "offset and minus views fix their operand")
}

func TestSolver_ConfigurationErrorAborts(t *testing.T) {
	m, x, y := pairModel()
	s, err := NewSolver(m, Strategy{Vars: []*IntVar{x, y}, Selector: NewRelaxationSelector(m, FullPropagation)})
	require.NoError(t, err)
	_, err = s.Solve(context.Background())

	var cfg *ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.ErrorIs(t, err, ErrNoObjective)
	assert.Equal(t, 0, m.Env().Depth())
}

func TestSolver_Monitors(t *testing.T) {
	m, x, y := pairModel()
	var solutions, failures int
	mon := MonitorFuncs{
		Solution:      func() { solutions++ },
		Contradiction: func(error) { failures++ },
	}
	res := solve(t, m, Strategy{Vars: []*IntVar{x, y}}, WithSolutionLimit(0), WithMonitor(mon))
	assert.Equal(t, 6, solutions)
	assert.Equal(t, res.Stats.Solutions, solutions)
	assert.Equal(t, res.Stats.Fails, failures)
	assert.Positive(t, res.Stats.Nodes)
}

func TestSolver_SelectorMonitorIsPluggedIn(t *testing.T) {
	m, x, _ := floorModel()
	sel := NewRelaxationSelector(m, FullPropagation, WithFailureThreshold(1))
	res := solve(t, m, Strategy{Vars: []*IntVar{x}, Selector: sel})
	require.NotNil(t, res.Best)
	assert.Equal(t, 5, res.Best.Objective)
	assert.True(t, res.Proven)
	// The solution reset the counter; the final cut failure counted once.
	assert.Equal(t, 1, sel.Escalation().Failures())
	assert.Equal(t, 2, sel.Escalation().Initial())
}

func TestParseVariableHeuristic(t *testing.T) {
	for _, h := range []VariableHeuristic{InputOrder, MinDomain, DomOverDeg} {
		got, err := ParseVariableHeuristic(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
	_, err := ParseVariableHeuristic("random")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestPickVariable(t *testing.T) {
	m := NewModel("pick")
	a := m.IntVar("a", 0, 9)
	b := m.IntVar("b", 0, 3)
	c := m.IntVar("c", 0, 4)
	d := m.IntVar("d", 7, 7)
	m.Post(must(NewInequality(a, c, NotEqual)))
	m.Post(must(NewInequality(c, b, NotEqual)))
	vars := []*IntVar{d, a, b, c}

	assert.Same(t, a, pickVariable(vars, InputOrder))
	assert.Same(t, b, pickVariable(vars, MinDomain))
	assert.Same(t, c, pickVariable(vars, DomOverDeg))
	assert.Nil(t, pickVariable([]*IntVar{d}, MinDomain))
}

func ExampleSolver() {
	m := NewModel("example")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	z := m.BoundedVar("z", 0, 10)
	sum, _ := NewSumEquals([]*IntVar{x, y}, z)
	m.Post(sum)
	ne, _ := NewInequality(x, y, NotEqual)
	m.Post(ne)
	atLeast, _ := NewInequality(z, m.Constant(3), GreaterEqual)
	m.Post(atLeast)
	m.SetObjective(Minimize, z)

	s, _ := NewSolver(m, Strategy{
		Vars:     []*IntVar{x, y},
		Selector: NewLookaheadSelector(m, FullPropagation),
	})
	res, _ := s.Solve(context.Background())
	fmt.Println(res.Best.Objective, res.Proven)
	// Output: 3 true
}
