//go:build gym

// Package gym provides access to OpenAI Gym environments with discrete
// action sets through the Go bindings for OpenAI Gym, found at
// https://github.com/samuelfneumann/GoGym.
//
// The package requires a Python installation with Gym and is only built
// with the gym build tag. Importing it registers the environments listed
// in IDs.
package gym

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Prefix is prepended to Gym environment names to form their registered
// ids, keeping them apart from the native environments of the same name
const Prefix = "gym/"

// IDs are the Gym environments registered by this package, each under
// Prefix + id
var IDs = []string{
	"CartPole-v1",
	"MountainCar-v0",
	"Acrobot-v1",
	"LunarLander-v2",
	"FlappyBird-v0",
}

func init() {
	for _, id := range IDs {
		id := id
		env.Register(Prefix+id, func(s env.Settings) (env.Environment, error) {
			return New(id, s.Seed, s.ObservationShape)
		})
	}
}

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	obsShape    []int
	numActions  int
	low, high   *mat.VecDense
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite with a discrete action space. The
// observation shape is taken from the observation space unless
// obsShape is given, which is needed for image observations.
func New(name string, seed uint64, obsShape []int) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create environment")
	}

	if _, ok := goGymEnv.ActionSpace().(*gogym.DiscreteSpace); !ok {
		goGymEnv.Close()
		return nil, errors.Errorf("new: %v does not have discrete actions",
			name)
	}
	numActions := int(goGymEnv.ActionSpace().High()[0].AtVec(0)) + 1

	var low, high *mat.VecDense
	switch space := goGymEnv.ObservationSpace().(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		low = mat.VecDenseCopyOf(space.Low()[0])
		high = mat.VecDenseCopyOf(space.High()[0])
	default:
		goGymEnv.Close()
		return nil, errors.Errorf("new: unsupported observation space %T",
			space)
	}

	shape := []int{low.Len()}
	if len(obsShape) > 0 {
		shape = append([]int{}, obsShape...)
		if n := env.NewObservationSpec(shape, nil, nil).Len(); n != low.Len() {
			goGymEnv.Close()
			return nil, fmt.Errorf("new: observation shape %v holds %d "+
				"values, but observations have %d", shape, n, low.Len())
		}
	}

	goGymEnv.Seed(int(seed))
	return &GymEnv{
		Environment: goGymEnv,
		obsShape:    shape,
		numActions:  numActions,
		low:         low,
		high:        high,
	}, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	g.currentStep = ts.New(ts.First, 0, 1.0, mat.VecDenseCopyOf(obs), 0)
	return g.currentStep, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(a int) (ts.TimeStep, bool, error) {
	if a < 0 || a >= g.numActions {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%d ∉ [0, %d)", a, g.numActions)
	}

	action := mat.NewVecDense(1, []float64{float64(a)})
	obs, reward, done, err := g.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, true, errors.Wrap(err, "step: could not step "+
			"GoGym environment")
	}

	t := ts.New(ts.Mid, reward, 1.0, mat.VecDenseCopyOf(obs),
		g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return env.NewObservationSpec(g.obsShape, g.low, g.high)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return env.NewActionSpec(g.numActions)
}

// Seed seeds the underlying Gym environment
func (g *GymEnv) Seed(seed uint64) {
	g.Environment.Seed(int(seed))
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
