package expreplay

import (
	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/timestep"
)

// Batch is a batch of transitions laid out in row major order so that
// it can be fed directly to a neural network input node
type Batch struct {
	States     []float64
	Actions    []int
	Rewards    []float64
	NextStates []float64
	Dones      []bool
	Features   int
}

// NewBatch packs transitions into a Batch. All transitions must have
// states of the same length.
func NewBatch(transitions []timestep.Transition) (Batch, error) {
	if len(transitions) == 0 {
		return Batch{}, errors.New("newBatch: no transitions")
	}

	features := len(transitions[0].State)
	b := Batch{
		States:     make([]float64, 0, features*len(transitions)),
		Actions:    make([]int, len(transitions)),
		Rewards:    make([]float64, len(transitions)),
		NextStates: make([]float64, 0, features*len(transitions)),
		Dones:      make([]bool, len(transitions)),
		Features:   features,
	}

	for i, t := range transitions {
		if len(t.State) != features || len(t.NextState) != features {
			return Batch{}, errors.Errorf("newBatch: transition %d has "+
				"inconsistent features\n\twant(%d)\n\thave(%d, %d)", i,
				features, len(t.State), len(t.NextState))
		}
		b.States = append(b.States, t.State...)
		b.NextStates = append(b.NextStates, t.NextState...)
		b.Actions[i] = t.Action
		b.Rewards[i] = t.Reward
		b.Dones[i] = t.Done
	}
	return b, nil
}

// Size returns the number of transitions in the batch
func (b Batch) Size() int {
	return len(b.Actions)
}

// Discounts returns the per-transition bootstrap discounts, which are
// gamma for non-terminal transitions and 0 otherwise
func (b Batch) Discounts(gamma float64) []float64 {
	discounts := make([]float64, len(b.Dones))
	for i, done := range b.Dones {
		if !done {
			discounts[i] = gamma
		}
	}
	return discounts
}

// OneHotActions returns the actions as a row major matrix of one-hot
// rows with numActions columns
func (b Batch) OneHotActions(numActions int) []float64 {
	oneHot := make([]float64, len(b.Actions)*numActions)
	for i, a := range b.Actions {
		oneHot[i*numActions+a] = 1.0
	}
	return oneHot
}
