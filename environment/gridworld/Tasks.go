package gridworld

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Goal represents the task of reaching goal states in a GridWorld
type Goal struct {
	goals          map[int]bool // indices of goal states
	r, c           int          // total rows and columns in environment
	timeStepReward float64
	goalReward     float64
}

// NewGoal creates and returns a new goal task with goals at positions
// (x[i], y[i]), given that the gridworld has r rows and c columns. Each
// step gives reward tr, and reaching a goal gives reward gr.
func NewGoal(x, y []int, r, c int, tr, gr float64) (*Goal, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("x length (%d) != y length (%d)",
			len(x), len(y))
	}

	goals := make(map[int]bool, len(x))
	for i := range x {
		// Ensure that the goal is within the proper bounds
		if x[i] < 0 || x[i] >= c {
			return nil, fmt.Errorf("x[%d] = %d outside cols [0, %d)", i,
				x[i], c)
		} else if y[i] < 0 || y[i] >= r {
			return nil, fmt.Errorf("y[%d] = %d outside rows [0, %d)", i,
				y[i], r)
		}
		goals[cToInd(x[i], y[i], c)] = true
	}

	return &Goal{goals, r, c, tr, gr}, nil
}

// GetReward returns the reward for moving to position next
func (g *Goal) GetReward(next int) float64 {
	if g.AtGoal(next) {
		return g.goalReward
	}
	return g.timeStepReward
}

// AtGoal returns whether the position is a goal state
func (g *Goal) AtGoal(position int) bool {
	return g.goals[position]
}

// String returns the goal coordinates
func (g *Goal) String() string {
	coords := make([]string, 0, len(g.goals))
	for ind := 0; ind < g.r*g.c; ind++ {
		if g.goals[ind] {
			y := ind / g.c
			coords = append(coords, fmt.Sprintf("(%d, %d)", ind-y*g.c, y))
		}
	}
	return strings.Join(coords, " ")
}

// SingleStart is a Starter which always starts in the same cell
type SingleStart struct {
	state *mat.VecDense
}

// NewSingleStart returns a Starter which always starts at (x, y) in a
// gridworld of r rows and c columns
func NewSingleStart(x, y, r, c int) (*SingleStart, error) {
	if x < 0 || x >= c {
		return nil, fmt.Errorf("x = %d outside cols [0, %d)", x, c)
	} else if y < 0 || y >= r {
		return nil, fmt.Errorf("y = %d outside rows [0, %d)", y, r)
	}

	return &SingleStart{cToV(x, y, r, c)}, nil
}

// Start returns the starting state
func (s *SingleStart) Start() *mat.VecDense {
	return mat.VecDenseCopyOf(s.state)
}

// Seed is a no-op since the starting state is fixed
func (s *SingleStart) Seed(uint64) {}
