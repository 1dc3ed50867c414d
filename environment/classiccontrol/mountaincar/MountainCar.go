// Package mountaincar implements the Mountain Car classic control
// environment with discrete actions
package mountaincar

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.001 // Engine power
	Gravity     float64 = 0.0025

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
	NumActions        int = MaxDiscreteAction + 1

	// Default episode cutoff
	EpisodeSteps int = 200
)

// MountainCar implements the classic control Mountain Car environment.
// The agent controls an underpowered car in a valley between two hills
// and must rock back and forth to build enough momentum to reach the
// goal on top of the right hill.
//
// Observations are the car's x position and velocity. Upon hitting the
// left wall, the velocity of the car is set to 0.
//
// Actions determine in which direction full force is applied:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
type MountainCar struct {
	task     *Goal
	starter  env.Starter
	lastStep ts.TimeStep
	started  bool
	discount float64

	positionBounds r1.Interval
	speedBounds    r1.Interval
}

// New constructs a new MountainCar environment. The environment must be
// Reset before the first Step.
func New(task *Goal, starter env.Starter, discount float64) *MountainCar {
	return &MountainCar{
		task:           task,
		starter:        starter,
		discount:       discount,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
	}
}

// NewDefault returns a MountainCar environment with the default Goal
// task and starting state distribution
func NewDefault(seed uint64) *MountainCar {
	starter := NewStarter(r1.Interval{Min: -0.6, Max: -0.4}, seed)
	return New(NewGoal(EpisodeSteps, GoalPosition), starter, 1.0)
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (m *MountainCar) Reset() (ts.TimeStep, error) {
	state := m.starter.Start()
	if err := m.validateState(state); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	m.lastStep = ts.New(ts.First, 0, m.discount, state, 0)
	m.started = true
	return m.copyStep(m.lastStep), nil
}

// Step takes one environmental step given action a
func (m *MountainCar) Step(a int) (ts.TimeStep, bool, error) {
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%v ∉ {0, 1, 2}", a)
	}
	if !m.started || m.lastStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	state := m.lastStep.Observation
	position, velocity := state.AtVec(0), state.AtVec(1)
	force := float64(a - 1)

	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.ClipInterval(velocity, m.speedBounds)
	position += velocity
	position = floatutils.ClipInterval(position, m.positionBounds)

	// The left wall is inelastic
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	newState := mat.NewVecDense(2, []float64{position, velocity})
	nextStep := ts.New(ts.Mid, m.task.GetReward(newState), m.discount,
		newState, m.lastStep.Number+1)
	m.task.End(&nextStep)

	m.lastStep = nextStep
	return m.copyStep(nextStep), nextStep.Last(), nil
}

// ActionSpec returns the action specification of the environment
func (m *MountainCar) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// ObservationSpec returns the observation specification of the
// environment
func (m *MountainCar) ObservationSpec() env.Spec {
	lower := mat.NewVecDense(2, []float64{m.positionBounds.Min,
		m.speedBounds.Min})
	upper := mat.NewVecDense(2, []float64{m.positionBounds.Max,
		m.speedBounds.Max})
	return env.NewObservationSpec([]int{2}, lower, upper)
}

// Seed reseeds the starting state distribution
func (m *MountainCar) Seed(seed uint64) {
	m.starter.Seed(seed)
}

// Close implements the environment.Environment interface
func (m *MountainCar) Close() error {
	return nil
}

// Render draws the hill and the position of the car as text
func (m *MountainCar) Render(w io.Writer) error {
	const width = 16

	var b strings.Builder
	for i := 1; i <= width/2; i++ {
		b.WriteString(strings.Repeat("=", i))
		b.WriteString(strings.Repeat(" ", width-2*i))
		b.WriteString(strings.Repeat("=", i))
		if i == 1 {
			b.WriteString("🏁")
		}
		b.WriteByte('\n')
	}

	x := 0
	if m.started {
		frac := (m.lastStep.Observation.AtVec(0) - m.positionBounds.Min) /
			(m.positionBounds.Max - m.positionBounds.Min)
		x = int(frac * float64(width-1))
	}
	for i := 0; i < width; i++ {
		switch {
		case i == x:
			b.WriteString("🚗")
		case i == width-1:
			b.WriteString("🏁")
		default:
			b.WriteByte('=')
		}
	}

	_, err := fmt.Fprintf(w, "%v\n%v\n", &b, m)
	return err
}

func (m *MountainCar) copyStep(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.VecDenseCopyOf(t.Observation)
	return t
}

func (m *MountainCar) validateState(obs *mat.VecDense) error {
	if p := obs.AtVec(0); p < m.positionBounds.Min || p > m.positionBounds.Max {
		return errors.Errorf("position %v is not within bounds %v", p,
			m.positionBounds)
	}
	if s := obs.AtVec(1); s < m.speedBounds.Min || s > m.speedBounds.Max {
		return errors.Errorf("speed %v is not within bounds %v", s,
			m.speedBounds)
	}
	return nil
}

func (m *MountainCar) String() string {
	if !m.started {
		return "Mountain Car  |  not started"
	}
	state := m.lastStep.Observation
	return fmt.Sprintf("Mountain Car  |  Position: %.3f  |  Speed: %.4f",
		state.AtVec(0), state.AtVec(1))
}
