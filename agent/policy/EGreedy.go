package policy

import (
	"golang.org/x/exp/rand"

	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

// Greedy returns the index of the largest action value. Ties are broken
// by the lowest index so that action selection is deterministic.
func Greedy(actionValues []float64) int {
	return floatutils.ArgMax(actionValues)
}

// EGreedy implements ε-greedy action selection over action values
type EGreedy struct {
	rng *rand.Rand
}

// NewEGreedy returns a new EGreedy selector seeded with seed
func NewEGreedy(seed uint64) *EGreedy {
	return &EGreedy{rng: rand.New(rand.NewSource(seed))}
}

// Select returns a uniformly random action with probability epsilon and
// the greedy action otherwise. Select panics if there are no action
// values.
func (e *EGreedy) Select(actionValues []float64, epsilon float64) int {
	if len(actionValues) == 0 {
		panic("select: no action values")
	}
	if epsilon > 0 && e.rng.Float64() < epsilon {
		return e.Random(len(actionValues))
	}
	return Greedy(actionValues)
}

// Explore reports whether an action should be chosen at random given
// epsilon, consuming one draw from the selector's random source
func (e *EGreedy) Explore(epsilon float64) bool {
	return epsilon > 0 && e.rng.Float64() < epsilon
}

// Random returns an action chosen uniformly from [0, numActions)
func (e *EGreedy) Random(numActions int) int {
	return e.rng.Intn(numActions)
}
