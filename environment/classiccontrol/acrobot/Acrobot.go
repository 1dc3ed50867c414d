// Package acrobot implements the Acrobot classic control environment
// with discrete actions
package acrobot

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
	dt float64 = 0.2

	// Physical constants
	LinkLength1 float64 = 1.0 // Metres, length of link 1
	LinkLength2 float64 = 1.0 // Metres, length of link 2
	LinkMass1   float64 = 1.0 // Kg, mass of link 1
	LinkMass2   float64 = 1.0 // Kg, mass of link 2
	LinkCOMPos1 float64 = 0.5 // Metres, centre of mass link 1
	LinkCOMPos2 float64 = 0.5 // Metres, centre of mass link 2
	LinkMOI     float64 = 1.0 // Moments of inertia for both links
	MaxVel1     float64 = 4 * math.Pi
	MaxVel2     float64 = 9 * math.Pi
	Gravity     float64 = 9.8
	MaxAngle    float64 = math.Pi

	// Starting states are sampled uniformly from [-StartBound, StartBound]
	// in each dimension
	StartBound float64 = 0.1

	// Discrete Actions apply torques of -1, 0, and +1
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
	NumActions        int = MaxDiscreteAction + 1

	// Default episode cutoff
	EpisodeSteps int = 500
)

// Acrobot implements the classic control environment Acrobot. A double
// pendulum hangs from a fixed base, and torque can be applied at the
// joint between the two links to swing the tip of the second link up.
//
// Observations have the form [θ1, θ2, θ̇1, θ̇2], where θ1 is the angle of
// the first link from the negative y-axis, θ2 is the angle of the second
// link relative to the first, and θ̇1 and θ̇2 are their angular
// velocities. Angles are wrapped to [-π, π] and velocities are clipped.
//
// Dynamics follow Sutton and Barto's book.
type Acrobot struct {
	task     *SwingUp
	starter  env.Starter
	lastStep ts.TimeStep
	started  bool
	discount float64

	angleBounds     r1.Interval
	velocity1Bounds r1.Interval
	velocity2Bounds r1.Interval
}

// New constructs a new Acrobot environment. The environment must be
// Reset before the first Step.
func New(task *SwingUp, starter env.Starter, discount float64) *Acrobot {
	return &Acrobot{
		task:            task,
		starter:         starter,
		discount:        discount,
		angleBounds:     r1.Interval{Min: -MaxAngle, Max: MaxAngle},
		velocity1Bounds: r1.Interval{Min: -MaxVel1, Max: MaxVel1},
		velocity2Bounds: r1.Interval{Min: -MaxVel2, Max: MaxVel2},
	}
}

// NewDefault returns an Acrobot environment with the default SwingUp
// task and starting state distribution
func NewDefault(seed uint64) *Acrobot {
	bounds := make([]r1.Interval, 4)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	starter := env.NewUniformStarter(bounds, seed)
	return New(NewSwingUp(EpisodeSteps, GoalHeight), starter, 1.0)
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (a *Acrobot) Reset() (ts.TimeStep, error) {
	state := a.starter.Start()
	if err := a.validateState(state); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	a.lastStep = ts.New(ts.First, 0, a.discount, state, 0)
	a.started = true
	return a.copyStep(a.lastStep), nil
}

// Step takes one environmental step given action act
func (a *Acrobot) Step(act int) (ts.TimeStep, bool, error) {
	if act < MinDiscreteAction || act > MaxDiscreteAction {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%v ∉ {0, 1, 2}", act)
	}
	if !a.started || a.lastStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	torque := float64(act - 1)
	s := a.lastStep.Observation
	augmented := []float64{s.AtVec(0), s.AtVec(1), s.AtVec(2), s.AtVec(3),
		torque}

	// The torque is the last component, which stays constant
	ns := rk4(dsDt, augmented, dt)[:4]
	ns[0] = floatutils.WrapInterval(ns[0], a.angleBounds)
	ns[1] = floatutils.WrapInterval(ns[1], a.angleBounds)
	ns[2] = floatutils.ClipInterval(ns[2], a.velocity1Bounds)
	ns[3] = floatutils.ClipInterval(ns[3], a.velocity2Bounds)

	newState := mat.NewVecDense(4, ns)
	nextStep := ts.New(ts.Mid, a.task.GetReward(newState), a.discount,
		newState, a.lastStep.Number+1)
	a.task.End(&nextStep)

	a.lastStep = nextStep
	return a.copyStep(nextStep), nextStep.Last(), nil
}

// ActionSpec returns the action specification of the environment
func (a *Acrobot) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// ObservationSpec returns the observation specification of the
// environment
func (a *Acrobot) ObservationSpec() env.Spec {
	lower := mat.NewVecDense(4, []float64{a.angleBounds.Min,
		a.angleBounds.Min, a.velocity1Bounds.Min, a.velocity2Bounds.Min})
	upper := mat.NewVecDense(4, []float64{a.angleBounds.Max,
		a.angleBounds.Max, a.velocity1Bounds.Max, a.velocity2Bounds.Max})
	return env.NewObservationSpec([]int{4}, lower, upper)
}

// Seed reseeds the starting state distribution
func (a *Acrobot) Seed(seed uint64) {
	a.starter.Seed(seed)
}

// Close implements the environment.Environment interface
func (a *Acrobot) Close() error {
	return nil
}

// Render writes a one line description of the current state to w
func (a *Acrobot) Render(w io.Writer) error {
	_, err := fmt.Fprintln(w, a)
	return err
}

func (a *Acrobot) copyStep(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.VecDenseCopyOf(t.Observation)
	return t
}

func (a *Acrobot) validateState(obs *mat.VecDense) error {
	bounds := []r1.Interval{a.angleBounds, a.angleBounds, a.velocity1Bounds,
		a.velocity2Bounds}
	names := []string{"angle 1", "angle 2", "angular velocity 1",
		"angular velocity 2"}

	for i, b := range bounds {
		if v := obs.AtVec(i); v < b.Min || v > b.Max {
			return errors.Errorf("%v %v is not within bounds %v", names[i],
				v, b)
		}
	}
	return nil
}

func (a *Acrobot) String() string {
	if !a.started {
		return "Acrobot  |  not started"
	}
	s := a.lastStep.Observation
	return fmt.Sprintf("Acrobot  |  θ1: %.3f  |  θ2: %.3f  |  θ̇1: %.3f  |  "+
		"θ̇2: %.3f", s.AtVec(0), s.AtVec(1), s.AtVec(2), s.AtVec(3))
}

// dsDt returns the time derivative of the augmented state
// [θ1, θ2, θ̇1, θ̇2, torque]
func dsDt(s []float64) []float64 {
	m1, m2 := LinkMass1, LinkMass2
	l1 := LinkLength1
	lc1, lc2 := LinkCOMPos1, LinkCOMPos2
	i1, i2 := LinkMOI, LinkMOI
	g := Gravity

	theta1, theta2 := s[0], s[1]
	dtheta1, dtheta2 := s[2], s[3]
	torque := s[4]

	d1 := m1*lc1*lc1 + m2*(l1*l1+lc2*lc2+2*l1*lc2*math.Cos(theta2)) + i1 + i2
	d2 := m2*(lc2*lc2+l1*lc2*math.Cos(theta2)) + i2

	phi2 := m2 * lc2 * g * math.Cos(theta1+theta2-math.Pi/2)
	phi1 := -m2*l1*lc2*dtheta2*dtheta2*math.Sin(theta2) -
		2*m2*l1*lc2*dtheta2*dtheta1*math.Sin(theta2) +
		(m1*lc1+m2*l1)*g*math.Cos(theta1-math.Pi/2) + phi2

	ddtheta2 := (torque + d2/d1*phi1 -
		m2*l1*lc2*dtheta1*dtheta1*math.Sin(theta2) - phi2) /
		(m2*lc2*lc2 + i2 - d2*d2/d1)
	ddtheta1 := -(d2*ddtheta2 + phi1) / d1

	return []float64{dtheta1, dtheta2, ddtheta1, ddtheta2, 0}
}

// rk4 integrates y' = derivs(y) from y0 over a single step of length h
// using 4th order Runge-Kutta
func rk4(derivs func([]float64) []float64, y0 []float64, h float64) []float64 {
	shift := func(k []float64, scale float64) []float64 {
		y := make([]float64, len(y0))
		for i := range y {
			y[i] = y0[i] + scale*k[i]
		}
		return y
	}

	k1 := derivs(y0)
	k2 := derivs(shift(k1, h/2))
	k3 := derivs(shift(k2, h/2))
	k4 := derivs(shift(k3, h))

	y := make([]float64, len(y0))
	for i := range y {
		y[i] = y0[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return y
}
