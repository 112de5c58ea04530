package fdsearch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modes = []PropagationMode{FullPropagation, PathPropagation, SubsetPropagation}

func TestLookahead_PicksValueMinimizingObjectiveBound(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			m, x, _, _ := sumModel()
			require.NoError(t, m.Propagate())

			before := m.Env().Stats()
			sel := NewLookaheadSelector(m, mode)
			v, err := sel.SelectValue(x)
			require.NoError(t, err)
			after := m.Env().Stats()
			assert.Equal(t, 0, v)
			assert.Equal(t, 6, sel.Stats().Evaluations)
			assert.Equal(t, after.Opened-before.Opened, after.Closed-before.Closed)
			assert.Equal(t, 6, x.Size(), "lookahead leaves the domain intact")
			assert.Equal(t, 0, m.Env().Depth())
		})
	}
}

func TestLookahead_Maximize(t *testing.T) {
	m, x, _, z := sumModel()
	m.SetObjective(Maximize, z)
	require.NoError(t, m.Propagate())

	v, err := NewLookaheadSelector(m, FullPropagation).SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

// The forbidding constraint is off every path to the objective, so only
// full propagation sees the failure.
func TestLookahead_PrunesFailedValues(t *testing.T) {
	m, x, _, _ := sumModel()
	m.Post(&forbidFixed{x: x, value: 5})
	require.NoError(t, m.Propagate())

	sel := NewLookaheadSelector(m, FullPropagation)
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.False(t, x.Contains(5))
	assert.Equal(t, 1, sel.Stats().Pruned)
	assert.Equal(t, 1, sel.Stats().Contradictions)

	for _, mode := range []PropagationMode{PathPropagation, SubsetPropagation} {
		m, x, _, _ := sumModel()
		m.Post(&forbidFixed{x: x, value: 5})
		require.NoError(t, m.Propagate())
		sel := NewLookaheadSelector(m, mode)
		_, err := sel.SelectValue(x)
		require.NoError(t, err)
		assert.True(t, x.Contains(5), mode.String())
		assert.Equal(t, 0, sel.Stats().Contradictions, mode.String())
	}
}

func TestLookahead_PruningDisabled(t *testing.T) {
	m, x, _, _ := sumModel()
	m.Post(&forbidFixed{x: x, value: 0})
	require.NoError(t, m.Propagate())

	sel := NewLookaheadSelector(m, FullPropagation, WithPruning(false))
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, x.Contains(0))
	assert.Equal(t, 0, sel.Stats().Pruned)
}

func TestLookahead_SubsetShortcutForUnreachableVariable(t *testing.T) {
	m, _, _, _ := sumModel()
	w := m.IntVar("w", 2, 7)
	require.NoError(t, m.Propagate())

	before := m.Env().Stats()
	sel := NewLookaheadSelector(m, SubsetPropagation)
	v, err := sel.SelectValue(w)
	require.NoError(t, err)
	after := m.Env().Stats()

	assert.Equal(t, 2, v)
	assert.Equal(t, 1, sel.Stats().Shortcuts)
	assert.Equal(t, 0, sel.Stats().Evaluations)
	assert.Equal(t, 1, after.Opened-before.Opened)
	assert.Equal(t, 1, after.Closed-before.Closed)
}

func TestLookahead_CheckpointsBalancedWhenEveryValueFails(t *testing.T) {
	m := NewModel("doomed")
	x := m.IntVar("x", 0, 1)
	z := m.IntVar("z", 0, 10)
	m.Post(must(NewArithmetic(x, z, 0)))
	m.Post(&forbidFixed{x: x, value: 0})
	m.Post(&forbidFixed{x: x, value: 1})
	m.SetObjective(Minimize, z)
	require.NoError(t, m.Propagate())

	cp := m.Checkpoint()
	before := m.Env().Stats()
	_, err := NewLookaheadSelector(m, FullPropagation).SelectValue(x)
	require.Error(t, err)
	assert.True(t, IsContradiction(err))

	after := m.Env().Stats()
	assert.Equal(t, after.Opened-before.Opened, after.Closed-before.Closed)
	assert.Equal(t, 1, m.Env().Depth())
	cp.Close()
	assert.Equal(t, 2, x.Size())
}

func TestLookahead_LargeDomainsScoreOnlyBounds(t *testing.T) {
	m, x, _, _ := sumModel()
	require.NoError(t, m.Propagate())

	sel := NewLookaheadSelector(m, FullPropagation, WithMaxDomain(3))
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.Equal(t, 2, sel.Stats().Evaluations)
}

func TestLookahead_TriggerHandsOverToFallback(t *testing.T) {
	m, x, _, _ := sumModel()
	require.NoError(t, m.Propagate())

	sel := NewLookaheadSelector(m, FullPropagation,
		WithTrigger(DomainAtMost(2)),
		WithFallback(MaxValue{}),
	)
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 0, sel.Stats().Evaluations)
}

func TestLookahead_SplitSkipsUpperBound(t *testing.T) {
	m, x, _, _ := sumModel()
	require.NoError(t, m.Propagate())

	sel := NewLookaheadSelector(m, FullPropagation, WithOperator(OpSplit))
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Less(t, v, x.UB())
	assert.Equal(t, 5, sel.Stats().Evaluations)
}

func TestLookahead_TieBreakOnSatisfactionModel(t *testing.T) {
	m := NewModel("sat")
	x := m.IntVar("x", 1, 4)

	keep := NewLookaheadSelector(m, FullPropagation)
	v, err := keep.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	last := NewLookaheadSelector(m, FullPropagation,
		WithTieBreak(func(*IntVar, int) bool { return true }))
	v, err = last.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestLookahead_PathModeNeedsObjective(t *testing.T) {
	m := NewModel("sat")
	x := m.IntVar("x", 1, 4)
	_, err := NewLookaheadSelector(m, PathPropagation).SelectValue(x)
	assert.ErrorIs(t, err, ErrNoObjective)
}

func TestLookahead_InstantiatedVariable(t *testing.T) {
	m, x, _, _ := sumModel()
	x.InstantiateTo(3, nil)
	sel := NewLookaheadSelector(m, FullPropagation)
	v, err := sel.SelectValue(x)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 0, sel.Stats().Evaluations)
}

func ExampleLookaheadSelector() {
	m := NewModel("example")
	x := m.IntVar("x", 0, 5)
	y := m.IntVar("y", 0, 5)
	z := m.BoundedVar("z", 0, 10)
	sum, _ := NewSumEquals([]*IntVar{x, y}, z)
	m.Post(sum)
	m.SetObjective(Maximize, z)

	sel := NewLookaheadSelector(m, SubsetPropagation)
	v, _ := sel.SelectValue(y)
	fmt.Println(v, sel.Stats().Evaluations)
	// Output: 5 6
}
