package acrobot

import (
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// GoalHeight is the height above the base which the tip must pass
const GoalHeight float64 = LinkLength1

// SwingUp implements the task of swinging the tip of the second link
// above a goal height. Rewards are -1 on each timestep and 0 for the
// step which reaches the goal. Episodes end after a step limit or when
// the goal is reached.
type SwingUp struct {
	stepLimiter *env.StepLimit
	goalHeight  float64
}

// NewSwingUp returns a new SwingUp task. An episodeSteps of 0 disables
// the step limit.
func NewSwingUp(episodeSteps int, goalHeight float64) *SwingUp {
	return &SwingUp{env.NewStepLimit(episodeSteps), goalHeight}
}

// TipHeight returns the height of the tip of the second link above the
// base
func TipHeight(state mat.Vector) float64 {
	theta1, theta2 := state.AtVec(0), state.AtVec(1)
	return -LinkLength1*math.Cos(theta1) - LinkLength2*math.Cos(theta1+theta2)
}

// AtGoal returns whether the tip is above the goal height in state
func (s *SwingUp) AtGoal(state mat.Vector) bool {
	return TipHeight(state) > s.goalHeight
}

// GetReward returns the reward for transitioning to nextState
func (s *SwingUp) GetReward(nextState mat.Vector) float64 {
	if s.AtGoal(nextState) {
		return 0
	}
	return -1
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (s *SwingUp) End(t *ts.TimeStep) bool {
	if s.AtGoal(t.Observation) {
		t.StepType = ts.Last
		return true
	}
	return s.stepLimiter.End(t)
}
