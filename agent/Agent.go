// Package agent defines the agent interfaces used by the training and
// testing loops
package agent

import (
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses the resulting transitions to update the
// Policy. Both share the same online weights.
type Agent interface {
	Learner
	Policy
	Stepper
	Persister
}

// Policy represents a policy that an agent can have.
//
// In training mode the policy explores according to its exploration
// schedule. Otherwise, the policy acts greedily unless an evaluation
// epsilon has been forced.
type Policy interface {
	SelectAction(state []float64, training bool) (int, error)

	// RandomAction returns an action chosen uniformly at random, which
	// is used to fill the replay buffer before learning starts
	RandomAction() int
	NumActions() int
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Learn performs a single update using a batch of transitions and
	// returns the loss on the batch before the update
	Learn(batch []ts.Transition) (float64, error)

	// SyncTarget copies the online weights into the target weights
	SyncTarget() error
}

// Stepper tracks the global step counter that drives exploration. Only
// the training loop advances the counter.
type Stepper interface {
	Step() int
	SetStep(int)
	Epsilon() float64
}

// Persister saves and restores the online weights of an agent
type Persister interface {
	Save(path string) error
	Load(path string) error
}

// ExplorationSchedule maps a global step to the probability of taking a
// random action
type ExplorationSchedule interface {
	Epsilon(step int) float64
}
