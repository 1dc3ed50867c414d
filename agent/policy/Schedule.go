// Package policy implements the exploration machinery of value-based
// agents: epsilon schedules, greedy and epsilon greedy action selection
// over action values, and the training phase state machine.
package policy

import "fmt"

// Default schedule endpoints
const (
	EpsilonStart = 1.0
	EpsilonEnd   = 0.01
)

// LinearSchedule anneals epsilon linearly from Start at step 0 to End at
// step FinalStep, after which epsilon stays at End.
type LinearSchedule struct {
	Start     float64
	End       float64
	FinalStep int
}

// NewLinearSchedule returns a schedule annealing from 1.0 to 0.01 over
// finalStep steps
func NewLinearSchedule(finalStep int) LinearSchedule {
	return LinearSchedule{
		Start:     EpsilonStart,
		End:       EpsilonEnd,
		FinalStep: finalStep,
	}
}

// Epsilon returns the value of epsilon at the given step
func (l LinearSchedule) Epsilon(step int) float64 {
	if l.FinalStep <= 0 || step >= l.FinalStep {
		return l.End
	}
	if step <= 0 {
		return l.Start
	}

	frac := float64(step) / float64(l.FinalStep)
	return l.Start + frac*(l.End-l.Start)
}

// Validate checks that the schedule anneals within [0, 1]
func (l LinearSchedule) Validate() error {
	if l.Start < 0 || l.Start > 1 || l.End < 0 || l.End > 1 {
		return fmt.Errorf("schedule: epsilon must lie in [0, 1] "+
			"(start = %v, end = %v)", l.Start, l.End)
	}
	if l.End > l.Start {
		return fmt.Errorf("schedule: epsilon must not increase "+
			"(start = %v, end = %v)", l.Start, l.End)
	}
	return nil
}

func (l LinearSchedule) String() string {
	return fmt.Sprintf("linear(%v -> %v over %d steps)", l.Start, l.End,
		l.FinalStep)
}
