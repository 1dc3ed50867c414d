package lunarlander

import (
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

const (
	CrashReward float64 = -100
	LandReward  float64 = 100

	// Fuel costs per frame of firing
	MainEngineCost float64 = 0.30
	SideEngineCost float64 = 0.03
)

// Outcome describes how a flight has ended, if at all
type Outcome int

const (
	Flying Outcome = iota
	Crashed
	Landed // At rest
)

func (o Outcome) String() string {
	switch o {
	case Crashed:
		return "Crashed"
	case Landed:
		return "Landed"
	default:
		return "Flying"
	}
}

// Land implements the task of landing gently on the pad. Rewards are
// the change in a shaping potential which grows as the lander
// approaches the pad, slows down, levels out, and puts its legs down,
// less the fuel spent. Crashing ends the episode with CrashReward and
// coming to rest ends it with LandReward.
type Land struct {
	stepLimiter *env.StepLimit
	prevShaping float64
	shaped      bool
}

// NewLand returns a new Land task. An episodeSteps of 0 disables the
// step limit.
func NewLand(episodeSteps int) *Land {
	return &Land{stepLimiter: env.NewStepLimit(episodeSteps)}
}

func (l *Land) reset() {
	l.shaped = false
	l.prevShaping = 0
}

// GetReward returns the reward for transitioning to nextState after
// firing the main and side engines at the given power
func (l *Land) GetReward(nextState mat.Vector, mPower, sPower float64,
	outcome Outcome) float64 {
	s := func(i int) float64 { return nextState.AtVec(i) }
	shaping := -100*math.Hypot(s(0), s(1)) -
		100*math.Hypot(s(2), s(3)) -
		100*math.Abs(s(4)) +
		10*s(6) + 10*s(7)

	var reward float64
	if l.shaped {
		reward = shaping - l.prevShaping
	}
	l.prevShaping = shaping
	l.shaped = true

	reward -= mPower * MainEngineCost
	reward -= sPower * SideEngineCost

	switch outcome {
	case Crashed:
		return CrashReward
	case Landed:
		return LandReward
	}
	return reward
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (l *Land) End(t *ts.TimeStep, outcome Outcome) bool {
	if outcome != Flying {
		t.StepType = ts.Last
		return true
	}
	return l.stepLimiter.End(t)
}
