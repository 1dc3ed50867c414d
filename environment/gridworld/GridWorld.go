// Package gridworld implements 2D gridworld environments
package gridworld

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Actions
const (
	Left int = iota
	Right
	Up
	Down
	NumActions
)

// Default environment settings
const (
	DefaultRows         = 5
	DefaultCols         = 5
	DefaultEpisodeSteps = 100
	DefaultStepReward   = -0.1
	DefaultGoalReward   = 1.0
)

// GridWorld represents a gridworld environment
//
// Observations are one-hot vectors of the flattened grid, with a 1.0 at
// the agent's position. Only the grid dimensions and the current agent
// position are tracked. Position (x, y) = (0, 0) is the bottom left
// corner of the grid.
type GridWorld struct {
	task    *Goal
	starter env.Starter
	ender   env.Ender

	r, c        int
	position    int
	discount    float64
	currentStep ts.TimeStep
	started     bool
}

// New creates a new gridworld with r rows and c columns, task t, starting
// state distribution s and discount factor d. Episodes are cut off after
// episodeSteps steps, or never if episodeSteps is 0.
func New(r, c int, t *Goal, s env.Starter, episodeSteps int,
	d float64) (*GridWorld, error) {
	if r < 1 || c < 1 {
		return nil, fmt.Errorf("new: invalid dimensions (%d, %d)", r, c)
	}
	if t.r != r || t.c != c {
		return nil, fmt.Errorf("new: task dimensions (%d, %d) do not match "+
			"gridworld dimensions (%d, %d)", t.r, t.c, r, c)
	}

	return &GridWorld{
		task:     t,
		starter:  s,
		ender:    env.NewStepLimit(episodeSteps),
		r:        r,
		c:        c,
		discount: d,
	}, nil
}

// NewDefault returns a 5x5 gridworld with the agent starting in the
// bottom left corner and the goal in the top right corner
func NewDefault() *GridWorld {
	start, err := NewSingleStart(0, 0, DefaultRows, DefaultCols)
	if err != nil {
		panic(err)
	}
	goal, err := NewGoal([]int{DefaultCols - 1}, []int{DefaultRows - 1},
		DefaultRows, DefaultCols, DefaultStepReward, DefaultGoalReward)
	if err != nil {
		panic(err)
	}

	g, err := New(DefaultRows, DefaultCols, goal, start, DefaultEpisodeSteps,
		1.0)
	if err != nil {
		panic(err)
	}
	return g
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.r, g.c
}

// At checks the value at position (i, j) in the gridworld. A value of 1.0
// indicates that the agent is at position (i, j).
func (g *GridWorld) At(i, j int) float64 {
	if (i*g.c)+j == g.position {
		return 1.0
	}
	return 0.0
}

// Reset resets the environment to a starting state
func (g *GridWorld) Reset() (ts.TimeStep, error) {
	start := g.starter.Start()
	position, err := g.vToInd(start)
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}
	g.position = position

	g.currentStep = ts.New(ts.First, 0, g.discount, g.observation(), 0)
	g.started = true
	return g.currentStep, nil
}

// Step moves the agent one cell in the direction of the action. Moves
// which would leave the grid leave the agent in place.
func (g *GridWorld) Step(action int) (ts.TimeStep, bool, error) {
	if action < 0 || action >= NumActions {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%d ∉ [0, %d)", action, NumActions)
	}
	if !g.started || g.currentStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	x, y := g.Coordinates()
	switch action {
	case Left:
		if x > 0 {
			x--
		}
	case Right:
		if x < g.c-1 {
			x++
		}
	case Up:
		if y < g.r-1 {
			y++
		}
	case Down:
		if y > 0 {
			y--
		}
	}
	g.position = cToInd(x, y, g.c)

	stepType := ts.Mid
	if g.task.AtGoal(g.position) {
		stepType = ts.Last
	}
	step := ts.New(stepType, g.task.GetReward(g.position), g.discount,
		g.observation(), g.currentStep.Number+1)
	g.ender.End(&step)

	g.currentStep = step
	return step, step.Last(), nil
}

// ObservationSpec returns the observation specification of the
// environment
func (g *GridWorld) ObservationSpec() env.Spec {
	n := g.r * g.c
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = 1.0
	}
	return env.NewObservationSpec([]int{n}, mat.NewVecDense(n, nil),
		mat.NewVecDense(n, upper))
}

// ActionSpec returns the action specification of the environment
func (g *GridWorld) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// Seed reseeds the starting state distribution
func (g *GridWorld) Seed(seed uint64) {
	g.starter.Seed(seed)
}

// Close implements the environment.Environment interface
func (g *GridWorld) Close() error {
	return nil
}

// Coordinates returns the (x, y) coordinates of the agent
func (g *GridWorld) Coordinates() (int, int) {
	y := g.position / g.c
	x := g.position - (y * g.c)
	return x, y
}

// Render draws the grid to w, with the agent in green and goals in blue.
// The top row of the grid is drawn first.
func (g *GridWorld) Render(w io.Writer) error {
	var b strings.Builder
	border := aurora.White("+" + strings.Repeat("---+", g.c))

	fmt.Fprintln(&b, border)
	for y := g.r - 1; y >= 0; y-- {
		fmt.Fprint(&b, aurora.White("|"))
		for x := 0; x < g.c; x++ {
			ind := cToInd(x, y, g.c)
			switch {
			case ind == g.position:
				fmt.Fprint(&b, aurora.Green(" A "))
			case g.task.AtGoal(ind):
				fmt.Fprint(&b, aurora.Blue(" G "))
			default:
				fmt.Fprint(&b, "   ")
			}
			fmt.Fprint(&b, aurora.White("|"))
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, border)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (g *GridWorld) String() string {
	x, y := g.Coordinates()
	str := "GridWorld | At: (%d, %d)  |  Goal: %v  |  Bounds: (%d, %d)"
	return fmt.Sprintf(str, x, y, g.task, g.r, g.c)
}

func (g *GridWorld) observation() *mat.VecDense {
	obs := mat.NewVecDense(g.r*g.c, nil)
	obs.SetVec(g.position, 1.0)
	return obs
}

// vToInd converts a one-hot vector into the index of its single 1.0
// value
func (g *GridWorld) vToInd(v *mat.VecDense) (int, error) {
	if v.Len() != g.r*g.c {
		return 0, errors.Errorf("invalid state size\n\twant(%d)\n\thave(%d)",
			g.r*g.c, v.Len())
	}
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0.0 {
			return i, nil
		}
	}
	return 0, errors.New("state is not one-hot")
}

func cToInd(x, y, c int) int {
	return y*c + x
}

// cToV converts coordinates (x, y) to a one-hot vector
func cToV(x, y, r, c int) *mat.VecDense {
	vec := mat.NewVecDense(r*c, nil)
	vec.SetVec(cToInd(x, y, c), 1.0)
	return vec
}
