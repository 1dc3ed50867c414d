package timestep

import "fmt"

// Transition is a single (state, action, reward, next state, done)
// experience record. Transitions own their state slices and are never
// mutated after construction.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// NewTransition returns a new Transition. The state and next state are
// copied so that the caller may reuse its buffers.
func NewTransition(state []float64, action int, reward float64,
	nextState []float64, done bool) Transition {
	s := make([]float64, len(state))
	copy(s, state)

	next := make([]float64, len(nextState))
	copy(next, nextState)

	return Transition{
		State:     s,
		Action:    action,
		Reward:    reward,
		NextState: next,
		Done:      done,
	}
}

// Discount returns the bootstrapping discount for the transition given
// the discount factor gamma. Terminal transitions are not bootstrapped.
func (t Transition) Discount(gamma float64) float64 {
	if t.Done {
		return 0.0
	}
	return gamma
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %v  |  Reward: %.2f  |  "+
		"Done: %v  |  Features: %v", t.Action, t.Reward, t.Done,
		len(t.State))
}
