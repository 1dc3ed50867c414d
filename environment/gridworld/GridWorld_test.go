package gridworld

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	env "github.com/fiorenza2/RL-Algorithms/environment"
)

func TestReachGoal(t *testing.T) {
	g := NewDefault()
	step, err := g.Reset()
	require.NoError(t, err)
	require.Equal(t, 1.0, step.Observation.AtVec(0))

	actions := []int{Right, Right, Right, Right, Up, Up, Up}
	for _, a := range actions {
		step, done, err := g.Step(a)
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, DefaultStepReward, step.Reward)
	}

	step, done, err := g.Step(Up)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, DefaultGoalReward, step.Reward)
	require.Equal(t, 1.0, step.Observation.AtVec(DefaultRows*DefaultCols-1))

	x, y := g.Coordinates()
	require.Equal(t, 4, x)
	require.Equal(t, 4, y)

	_, _, err = g.Step(Left)
	require.Error(t, err)
}

func TestWalls(t *testing.T) {
	g := NewDefault()
	_, err := g.Reset()
	require.NoError(t, err)

	_, _, err = g.Step(Left)
	require.NoError(t, err)
	_, _, err = g.Step(Down)
	require.NoError(t, err)

	x, y := g.Coordinates()
	require.Equal(t, 0, x)
	require.Equal(t, 0, y)
}

func TestStepLimit(t *testing.T) {
	start, err := NewSingleStart(0, 0, 2, 2)
	require.NoError(t, err)
	goal, err := NewGoal([]int{1}, []int{1}, 2, 2, -1, 1)
	require.NoError(t, err)
	g, err := New(2, 2, goal, start, 3, 1.0)
	require.NoError(t, err)

	_, err = g.Reset()
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, done, err := g.Step(Left)
		require.NoError(t, err)
		require.Equal(t, i == 3, done)
	}
}

func TestInvalid(t *testing.T) {
	_, err := NewGoal([]int{5}, []int{0}, 5, 5, 0, 1)
	require.Error(t, err)
	_, err = NewGoal([]int{1, 2}, []int{0}, 5, 5, 0, 1)
	require.Error(t, err)
	_, err = NewSingleStart(0, 5, 5, 5)
	require.Error(t, err)

	goal, err := NewGoal([]int{0}, []int{0}, 3, 3, 0, 1)
	require.NoError(t, err)
	start, err := NewSingleStart(0, 0, 5, 5)
	require.NoError(t, err)
	_, err = New(5, 5, goal, start, 0, 1)
	require.Error(t, err)

	g := NewDefault()
	_, err = g.Reset()
	require.NoError(t, err)
	_, _, err = g.Step(NumActions)
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	g := NewDefault()
	_, err := g.Reset()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.Render(&buf))
	out := buf.String()
	require.Contains(t, out, "A")
	require.Contains(t, out, "G")
	require.Equal(t, 2*DefaultRows+1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestRegistered(t *testing.T) {
	e, err := env.Make("GridWorld-v0", 0)
	require.NoError(t, err)
	require.Equal(t, 4, e.ActionSpec().NumActions())
	require.Equal(t, []int{25}, e.ObservationSpec().Shape)
}
