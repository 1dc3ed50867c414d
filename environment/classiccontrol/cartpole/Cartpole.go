// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Starting states are sampled uniformly from [-StartBound, StartBound]
	// in each dimension
	StartBound float64 = 0.05

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
	NumActions        int = MaxDiscreteAction + 1

	// Default episode cutoff
	EpisodeSteps int = 200
)

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The agent must keep the pole upright for as long as
// possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. All state features are
// bounded by the constants defined in this file.
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
type Cartpole struct {
	task     *Balance
	starter  env.Starter
	lastStep ts.TimeStep
	started  bool
	discount float64

	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// New constructs a new Cartpole environment. The environment must be
// Reset before the first Step.
func New(task *Balance, starter env.Starter, discount float64) *Cartpole {
	return &Cartpole{
		task:     task,
		starter:  starter,
		discount: discount,

		positionBounds: r1.Interval{Min: -PositionBounds,
			Max: PositionBounds},
		speedBounds: r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds: r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds,
			Max: AngularVelocityBounds},
	}
}

// NewDefault returns a Cartpole environment with the default Balance
// task and starting state distribution
func NewDefault(seed uint64) *Cartpole {
	bounds := make([]r1.Interval, 4)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	starter := env.NewUniformStarter(bounds, seed)
	task := NewBalance(EpisodeSteps, FailAngle, FailPosition)

	return New(task, starter, 1.0)
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.starter.Start()
	if err := c.validateState(state); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	c.lastStep = ts.New(ts.First, 0, c.discount, state, 0)
	c.started = true
	return c.copyStep(c.lastStep), nil
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (c *Cartpole) Step(a int) (ts.TimeStep, bool, error) {
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%v ∉ {0, 1, 2}", a)
	}
	if !c.started || c.lastStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	// Magnify the action force in the appropriate direction
	force := float64(a-1) * ForceMag

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	x = floatutils.ClipInterval(x, c.positionBounds)
	xDot += Dt * xAcc
	th += Dt * thDot
	th = normalizeAngle(th, c.angleBounds)
	thDot += Dt * thAcc

	newState := mat.NewVecDense(4, []float64{x, xDot, th, thDot})
	reward := c.task.GetReward(newState)
	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.lastStep.Number+1)

	// Check if the step ends the episode
	c.task.End(&nextStep)

	c.lastStep = nextStep
	return c.copyStep(nextStep), nextStep.Last(), nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}

	return env.NewObservationSpec([]int{4}, mat.NewVecDense(4, lower),
		mat.NewVecDense(4, upper))
}

// Seed reseeds the starting state distribution
func (c *Cartpole) Seed(seed uint64) {
	c.starter.Seed(seed)
}

// Close implements the environment.Environment interface
func (c *Cartpole) Close() error {
	return nil
}

// State returns a copy of the current state
func (c *Cartpole) State() []float64 {
	return c.lastStep.ObservationData()
}

// Render writes a one line description of the current state to w
func (c *Cartpole) Render(w io.Writer) error {
	_, err := fmt.Fprintln(w, c)
	return err
}

// copyStep returns a copy of t which shares no memory with the
// environment
func (c *Cartpole) copyStep(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.VecDenseCopyOf(t.Observation)
	return t
}

// validateState ensures that a state observation is valid and between
// the physical bounds of the Cartpole environment
func (c *Cartpole) validateState(obs *mat.VecDense) error {
	bounds := []r1.Interval{c.positionBounds, c.speedBounds,
		c.angleBounds, c.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}

	for i, b := range bounds {
		if v := obs.AtVec(i); v < b.Min || v > b.Max {
			return errors.Errorf("%v %v is not within bounds %v", names[i],
				v, b)
		}
	}
	return nil
}

func (c *Cartpole) String() string {
	if !c.started {
		return "Cartpole  |  not started"
	}
	msg := "Cartpole  |  Position: %.3f  |  Speed: %.3f  |  Angle: %.3f" +
		"  |  Angular Velocity: %.3f"

	state := c.lastStep.Observation
	return fmt.Sprintf(msg, state.AtVec(0), state.AtVec(1), state.AtVec(2),
		state.AtVec(3))
}

// normalizeAngle wraps the pole angle into the angle bounds
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}
