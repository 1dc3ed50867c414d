package maze

import (
	"bytes"
	"testing"

	"github.com/samuelfneumann/gomaze"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
)

// fixedStart always starts in the same cell
type fixedStart struct{ col, row int }

func (f fixedStart) Start() *mat.VecDense {
	return mat.NewVecDense(2, []float64{float64(f.col), float64(f.row)})
}

func (fixedStart) Seed(uint64) {}

// solution returns the actions of the shortest path from the agent's
// cell to the goal
func solution(t *testing.T, m *Maze) []int {
	t.Helper()

	type node struct {
		cell   *gomaze.Cell
		prev   int
		action int
	}

	col, row := m.Position()
	start, err := m.maze.CellAt(col, row)
	require.NoError(t, err)
	goalRow, goalCol := m.maze.Goal()

	queue := []node{{cell: start, prev: -1}}
	seen := map[*gomaze.Cell]bool{start: true}
	for i := 0; i < len(queue); i++ {
		c := queue[i].cell
		if c.Row() == goalRow && c.Col() == goalCol {
			var actions []int
			for j := i; queue[j].prev >= 0; j = queue[j].prev {
				actions = append([]int{queue[j].action}, actions...)
			}
			return actions
		}

		moves := []struct {
			ok     bool
			next   *gomaze.Cell
			action int
		}{
			{c.CanMoveNorth(), c.North(), North},
			{c.CanMoveSouth(), c.South(), South},
			{c.CanMoveWest(), c.West(), West},
			{c.CanMoveEast(), c.East(), East},
		}
		for _, mv := range moves {
			if mv.ok && !seen[mv.next] {
				seen[mv.next] = true
				queue = append(queue, node{mv.next, i, mv.action})
			}
		}
	}
	t.Fatal("goal is unreachable")
	return nil
}

func TestSeeded(t *testing.T) {
	m1, m2 := NewDefault(7), NewDefault(7)
	require.Equal(t, m1.maze.String(), m2.maze.String())

	s1, err := m1.Reset()
	require.NoError(t, err)
	s2, err := m2.Reset()
	require.NoError(t, err)
	require.True(t, mat.Equal(s1.Observation, s2.Observation))
	require.True(t, s1.First())

	// One-hot and never in the goal
	require.Equal(t, 1.0, mat.Sum(s1.Observation))
	require.Equal(t, 0.0, s1.Observation.AtVec(DefaultRows*DefaultCols-1))
}

func TestSolve(t *testing.T) {
	m := NewDefault(3)
	_, err := m.Reset()
	require.NoError(t, err)

	actions := solution(t, m)
	require.NotEmpty(t, actions)
	for i, a := range actions {
		step, done, err := m.Step(a)
		require.NoError(t, err)

		last := i == len(actions)-1
		require.Equal(t, last, done)
		if last {
			require.Equal(t, TerminalReward, step.Reward)
			require.True(t, m.task.AtGoal())
		} else {
			require.Equal(t, TimeStepReward, step.Reward)
		}
	}

	_, _, err = m.Step(North)
	require.Error(t, err)
}

func TestWallsBlock(t *testing.T) {
	m, err := New(NewSolve(0), 4, 4, gomaze.NewWilson(1), fixedStart{0, 0},
		1.0)
	require.NoError(t, err)
	_, err = m.Reset()
	require.NoError(t, err)

	// The top left cell has no northern or western neighbour
	for _, a := range []int{North, West} {
		step, done, err := m.Step(a)
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, TimeStepReward, step.Reward)

		col, row := m.Position()
		require.Equal(t, 0, col)
		require.Equal(t, 0, row)
	}
}

func TestStepLimit(t *testing.T) {
	const limit = 3
	m, err := New(NewSolve(limit), 10, 10, gomaze.NewWilson(2),
		fixedStart{0, 0}, 1.0)
	require.NoError(t, err)
	_, err = m.Reset()
	require.NoError(t, err)

	// The goal is at least 18 moves from the top left cell
	for i := 1; i <= limit; i++ {
		_, done, err := m.Step(North)
		require.NoError(t, err)
		require.Equal(t, i == limit, done)
	}
}

func TestInvalidStart(t *testing.T) {
	for _, start := range []fixedStart{{-1, 0}, {0, 4}, {3, 3}} {
		m, err := New(NewSolve(0), 4, 4, gomaze.NewWilson(1), start, 1.0)
		require.NoError(t, err)
		_, err = m.Reset()
		require.Error(t, err, "start %v", start)
	}

	_, err := New(NewSolve(0), 1, 1, gomaze.NewWilson(1), fixedStart{}, 1.0)
	require.Error(t, err)
}

func TestIllegalAction(t *testing.T) {
	m := NewDefault(0)
	_, _, err := m.Step(North)
	require.Error(t, err, "step before reset")

	_, err = m.Reset()
	require.NoError(t, err)
	_, _, err = m.Step(NumActions)
	require.Error(t, err)
	_, _, err = m.Step(-1)
	require.Error(t, err)
}

func TestRegistered(t *testing.T) {
	e, err := env.Make("Maze-v0", 0)
	require.NoError(t, err)
	require.Equal(t, NumActions, e.ActionSpec().NumActions())
	require.Equal(t, []int{DefaultRows * DefaultCols},
		e.ObservationSpec().Shape)

	_, err = e.Reset()
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, e.(env.Renderer).Render(&b))
	require.Contains(t, b.String(), "Maze 6 ⨉ 6")
	require.Contains(t, b.String(), " x ")
}
