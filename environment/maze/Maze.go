// Package maze implements maze environments generated with GoMaze
package maze

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gomaze"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

const (
	// Actions
	North int = iota
	South
	West
	East
	NumActions int = gomaze.Actions

	DefaultRows  int = 6
	DefaultCols  int = 6
	EpisodeSteps int = 200
)

// Maze is a perfect maze of rows ⨉ cols cells with the goal in the
// bottom right cell. Moving into a wall leaves the agent in place.
//
// Observations are one-hot encodings of the agent's cell, indexed in
// row major order.
type Maze struct {
	maze     *gomaze.Maze
	task     *Solve
	starter  env.Starter
	lastStep ts.TimeStep
	started  bool
	discount float64
}

// New returns a new Maze with a layout generated by init. Starting
// cells are drawn from starter as (column, row) vectors and must not be
// the goal.
func New(task *Solve, rows, cols int, init gomaze.Initer,
	starter env.Starter, discount float64) (*Maze, error) {
	if rows < 1 || cols < 1 || rows*cols < 2 {
		return nil, errors.Errorf("new: maze must have at least 2 cells, "+
			"have %d ⨉ %d", rows, cols)
	}

	// A negative goal places it in the bottom right cell
	m, err := gomaze.NewMaze(rows, cols, -1, -1, 0, 0, init, true)
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}
	task.register(m)

	return &Maze{
		maze:     m,
		task:     task,
		starter:  starter,
		discount: discount,
	}, nil
}

// NewDefault returns a DefaultRows ⨉ DefaultCols Maze generated with
// Wilson's algorithm. Both the layout and the starting cells are
// determined by seed.
func NewDefault(seed uint64) *Maze {
	m, err := New(NewSolve(EpisodeSteps), DefaultRows, DefaultCols,
		gomaze.NewWilson(int64(seed)), NewStarter(DefaultRows, DefaultCols,
			seed), 1.0)
	if err != nil {
		panic(err)
	}
	return m
}

// Reset resets the environment, placing the agent in a starting cell
// drawn from the environment Starter
func (m *Maze) Reset() (ts.TimeStep, error) {
	start := m.starter.Start()
	if err := m.validateStart(start); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	m.maze.Reset()
	if err := m.maze.SetCell(int(start.AtVec(0)), int(start.AtVec(1))); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	m.lastStep = ts.New(ts.First, 0, m.discount, m.observation(), 0)
	m.started = true
	return m.copyStep(m.lastStep), nil
}

// Step takes one environmental step given action a
func (m *Maze) Step(a int) (ts.TimeStep, bool, error) {
	if a < 0 || a >= NumActions {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%d ∉ [0, %d)", a, NumActions)
	}
	if !m.started || m.lastStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	if _, _, _, err := m.maze.Step(a); err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}

	nextStep := ts.New(ts.Mid, m.task.GetReward(), m.discount,
		m.observation(), m.lastStep.Number+1)
	m.task.End(&nextStep)

	m.lastStep = nextStep
	return m.copyStep(nextStep), nextStep.Last(), nil
}

// Dims returns the number of rows and columns in the maze
func (m *Maze) Dims() (r, c int) {
	return m.maze.Rows(), m.maze.Cols()
}

// Position returns the column and row of the agent
func (m *Maze) Position() (col, row int) {
	data := m.lastStep.Observation.RawVector().Data
	for i, v := range data {
		if v == 1 {
			return i % m.maze.Cols(), i / m.maze.Cols()
		}
	}
	return -1, -1
}

// ActionSpec returns the action specification of the environment
func (m *Maze) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// ObservationSpec returns the observation specification of the
// environment
func (m *Maze) ObservationSpec() env.Spec {
	n := m.maze.Len()
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = 1
	}
	return env.NewObservationSpec([]int{n}, mat.NewVecDense(n, nil),
		mat.NewVecDense(n, upper))
}

// Seed reseeds the starting cell distribution. The layout of the maze
// is fixed at construction.
func (m *Maze) Seed(seed uint64) {
	m.starter.Seed(seed)
}

// Close implements the environment.Environment interface
func (m *Maze) Close() error {
	return nil
}

// Render draws the maze, marking the agent with an x
func (m *Maze) Render(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%v%v\n", m.maze, m)
	return err
}

func (m *Maze) String() string {
	r, c := m.Dims()
	if !m.started {
		return fmt.Sprintf("Maze %d ⨉ %d  |  not started", r, c)
	}
	col, row := m.Position()
	return fmt.Sprintf("Maze %d ⨉ %d  |  Position: (%d, %d)", r, c, col,
		row)
}

func (m *Maze) observation() *mat.VecDense {
	obs := m.maze.Obs()
	return mat.NewVecDense(len(obs), obs)
}

func (m *Maze) copyStep(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.VecDenseCopyOf(t.Observation)
	return t
}

func (m *Maze) validateStart(start *mat.VecDense) error {
	if start.Len() != 2 {
		return errors.Errorf("start must be a (column, row) vector, have "+
			"length %d", start.Len())
	}

	col, row := int(start.AtVec(0)), int(start.AtVec(1))
	if col < 0 || col >= m.maze.Cols() || row < 0 || row >= m.maze.Rows() {
		return errors.Errorf("start (%d, %d) is outside the maze", col, row)
	}
	if goalRow, goalCol := m.maze.Goal(); col == goalCol && row == goalRow {
		return errors.Errorf("start (%d, %d) is the goal", col, row)
	}
	return nil
}
