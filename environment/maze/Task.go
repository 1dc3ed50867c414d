package maze

import (
	"github.com/samuelfneumann/gomaze"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

const (
	TimeStepReward float64 = -1.0
	TerminalReward float64 = 0
)

// Solve implements the task of reaching the goal cell of a maze.
// Rewards are TimeStepReward on each timestep and TerminalReward for
// the step which reaches the goal. Episodes end after a step limit or
// when the goal is reached.
type Solve struct {
	maze        *gomaze.Maze
	stepLimiter *env.StepLimit
}

// NewSolve returns a new Solve task. An episodeSteps of 0 disables the
// step limit.
func NewSolve(episodeSteps int) *Solve {
	return &Solve{stepLimiter: env.NewStepLimit(episodeSteps)}
}

func (s *Solve) register(m *gomaze.Maze) {
	s.maze = m
}

// AtGoal returns whether the agent is in the goal cell
func (s *Solve) AtGoal() bool {
	return s.maze.AtGoal()
}

// GetReward returns the reward for the agent's current cell
func (s *Solve) GetReward() float64 {
	if s.AtGoal() {
		return TerminalReward
	}
	return TimeStepReward
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (s *Solve) End(t *ts.TimeStep) bool {
	if s.AtGoal() {
		t.StepType = ts.Last
		return true
	}
	return s.stepLimiter.End(t)
}

// Starter draws starting cells uniformly from every cell of a maze
// except the goal in the bottom right
type Starter struct {
	rows, cols int
	rng        *rand.Rand
}

// NewStarter returns a new Starter for a rows ⨉ cols maze
func NewStarter(rows, cols int, seed uint64) *Starter {
	return &Starter{rows, cols, rand.New(rand.NewSource(seed))}
}

// Start returns a starting (column, row) vector
func (s *Starter) Start() *mat.VecDense {
	i := s.rng.Intn(s.rows*s.cols - 1)
	return mat.NewVecDense(2, []float64{float64(i % s.cols),
		float64(i / s.cols)})
}

// Seed reseeds the starting cell distribution
func (s *Starter) Seed(seed uint64) {
	s.rng.Seed(seed)
}
