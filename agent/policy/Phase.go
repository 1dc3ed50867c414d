package policy

// Phase is the training phase of an agent, determined by the global step
type Phase int

const (
	// Warmup is the phase in which the replay buffer is filled with
	// uniformly random actions and no learning happens
	Warmup Phase = iota

	// Exploring is the phase in which epsilon is annealed
	Exploring

	// Exploiting is the phase in which epsilon is at its floor
	Exploiting
)

func (p Phase) String() string {
	switch p {
	case Warmup:
		return "warmup"
	case Exploring:
		return "exploring"
	case Exploiting:
		return "exploiting"
	default:
		return "unknown"
	}
}

// PhaseAt returns the phase at a global step, given the number of
// warmup steps and the step at which epsilon reaches its floor
func PhaseAt(step, warmup, finalStep int) Phase {
	switch {
	case step < warmup:
		return Warmup
	case step < finalStep:
		return Exploring
	default:
		return Exploiting
	}
}

// PhaseTracker follows the phase of a training run. Phases only ever
// move forward: Warmup, then Exploring, then Exploiting.
type PhaseTracker struct {
	warmup    int
	finalStep int
	current   Phase
}

// NewPhaseTracker returns a PhaseTracker starting in the Warmup phase
func NewPhaseTracker(warmup, finalStep int) *PhaseTracker {
	return &PhaseTracker{
		warmup:    warmup,
		finalStep: finalStep,
		current:   PhaseAt(0, warmup, finalStep),
	}
}

// Advance moves the tracker to the phase of the given step and returns
// the current phase and whether it changed. A step belonging to an
// earlier phase leaves the tracker unchanged.
func (p *PhaseTracker) Advance(step int) (Phase, bool) {
	next := PhaseAt(step, p.warmup, p.finalStep)
	if next <= p.current {
		return p.current, false
	}
	p.current = next
	return p.current, true
}

// Phase returns the current phase
func (p *PhaseTracker) Phase() Phase {
	return p.current
}
