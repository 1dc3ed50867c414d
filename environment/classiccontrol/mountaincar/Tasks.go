package mountaincar

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// GoalPosition is the commonly used x position of the goal
const GoalPosition float64 = 0.5

// Goal implements the task of driving the car up to a goal position.
// Rewards are -1 on each timestep and 0 for the step which reaches the
// goal. Episodes end after a step limit or when the goal is reached.
type Goal struct {
	stepLimiter *env.StepLimit
	goalX       float64
}

// NewGoal returns a new Goal task. An episodeSteps of 0 disables the
// step limit.
func NewGoal(episodeSteps int, goalX float64) *Goal {
	return &Goal{env.NewStepLimit(episodeSteps), goalX}
}

// AtGoal returns whether the state is at or past the goal
func (g *Goal) AtGoal(state mat.Vector) bool {
	return state.AtVec(0) >= g.goalX
}

// GetReward returns the reward for transitioning to nextState
func (g *Goal) GetReward(nextState mat.Vector) float64 {
	if g.AtGoal(nextState) {
		return 0
	}
	return -1
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (g *Goal) End(t *ts.TimeStep) bool {
	if g.AtGoal(t.Observation) {
		t.StepType = ts.Last
		return true
	}
	return g.stepLimiter.End(t)
}

// Starter starts the car at rest at a position drawn uniformly from an
// interval
type Starter struct {
	position r1.Interval
	rng      *rand.Rand
}

// NewStarter returns a new Starter
func NewStarter(position r1.Interval, seed uint64) *Starter {
	return &Starter{position, rand.New(rand.NewSource(seed))}
}

// Start returns a starting state
func (s *Starter) Start() *mat.VecDense {
	x := s.position.Min + s.rng.Float64()*(s.position.Max-s.position.Min)
	return mat.NewVecDense(2, []float64{x, 0})
}

// Seed reseeds the starting position distribution
func (s *Starter) Seed(seed uint64) {
	s.rng.Seed(seed)
}
