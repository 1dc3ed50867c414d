package mountaincar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
)

func TestSeeded(t *testing.T) {
	m1, m2 := NewDefault(5), NewDefault(5)

	s1, err := m1.Reset()
	require.NoError(t, err)
	s2, err := m2.Reset()
	require.NoError(t, err)
	require.True(t, mat.Equal(s1.Observation, s2.Observation))
	require.True(t, s1.First())

	x := s1.Observation.AtVec(0)
	require.GreaterOrEqual(t, x, -0.6)
	require.LessOrEqual(t, x, -0.4)
	require.Equal(t, 0.0, s1.Observation.AtVec(1))
}

func TestStepLimit(t *testing.T) {
	m := NewDefault(1)
	_, err := m.Reset()
	require.NoError(t, err)

	// Doing nothing never reaches the goal
	for i := 1; i <= EpisodeSteps; i++ {
		step, done, err := m.Step(1)
		require.NoError(t, err)
		require.Equal(t, -1.0, step.Reward)
		require.Equal(t, i == EpisodeSteps, done)
	}

	_, _, err = m.Step(1)
	require.Error(t, err)
}

func TestReachesGoal(t *testing.T) {
	m := New(NewGoal(0, GoalPosition), NewDefault(1).starter, 1.0)
	_, err := m.Reset()
	require.NoError(t, err)

	// Accelerating with the velocity builds momentum until the goal
	// is reached
	action := 2
	for steps := 0; ; steps++ {
		require.Less(t, steps, 1000)
		step, done, err := m.Step(action)
		require.NoError(t, err)

		if done {
			require.Equal(t, 0.0, step.Reward)
			require.GreaterOrEqual(t, step.Observation.AtVec(0), GoalPosition)
			break
		}
		if step.Observation.AtVec(1) < 0 {
			action = 0
		} else {
			action = 2
		}
	}
}

func TestIllegalAction(t *testing.T) {
	m := NewDefault(0)
	_, err := m.Reset()
	require.NoError(t, err)

	_, _, err = m.Step(NumActions)
	require.Error(t, err)
	_, _, err = m.Step(-1)
	require.Error(t, err)
}

func TestRegistered(t *testing.T) {
	e, err := env.Make("MountainCar-v0", 0)
	require.NoError(t, err)
	require.Equal(t, NumActions, e.ActionSpec().NumActions())
	require.Equal(t, []int{2}, e.ObservationSpec().Shape)

	_, err = e.Reset()
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, e.(env.Renderer).Render(&b))
	require.Contains(t, b.String(), "Mountain Car")
}
