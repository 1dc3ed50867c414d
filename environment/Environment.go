// Package environment outlines the interfaces and structs needed to
// implement concrete environments, along with a registry from which
// environments can be created by identifier.
package environment

import (
	"io"

	"gonum.org/v1/gonum/mat"

	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Environment implements a simulated environment with a discrete set of
// actions. Actions are enumerated from 0 to ActionSpec().NumActions()-1.
//
// Observations returned in TimeSteps are owned by the caller and are
// never modified by the Environment after they are returned. Any error
// returned by Reset or Step is fatal to the episode, since the state of
// the Environment is undefined afterwards.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action int) (ts.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec

	// Seed reseeds the Environment's source of randomness. The seed
	// takes effect at the next call to Reset.
	Seed(seed uint64)
	Close() error
}

// Renderer is an Environment that can draw its current state
type Renderer interface {
	Render(w io.Writer) error
}

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
	Seed(seed uint64)
}

// Ender determines when an episode ends. If End returns true, it has set
// the StepType of the TimeStep to timestep.Last.
type Ender interface {
	End(t *ts.TimeStep) bool
}
