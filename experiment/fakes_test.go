package experiment

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// fakeEnv ends each episode after length steps and rewards every step
// with 1. Observations are (step, action).
type fakeEnv struct {
	length  int
	steps   int
	resets  int
	actions []int
}

func (f *fakeEnv) Reset() (ts.TimeStep, error) {
	f.steps = 0
	f.resets++
	return ts.New(ts.First, 0, 1, mat.NewVecDense(2, nil), 0), nil
}

func (f *fakeEnv) Step(a int) (ts.TimeStep, bool, error) {
	if f.steps >= f.length {
		return ts.TimeStep{}, true, errors.New("step: episode is over")
	}
	f.steps++
	f.actions = append(f.actions, a)

	done := f.steps == f.length
	stepType := ts.Mid
	if done {
		stepType = ts.Last
	}
	obs := mat.NewVecDense(2, []float64{float64(f.steps), float64(a)})
	return ts.New(stepType, 1, 1, obs, f.steps), done, nil
}

func (f *fakeEnv) ObservationSpec() env.Spec {
	return env.NewObservationSpec([]int{2}, nil, nil)
}

func (f *fakeEnv) ActionSpec() env.Spec { return env.NewActionSpec(3) }
func (f *fakeEnv) Seed(uint64)          {}
func (f *fakeEnv) Close() error         { return nil }

func (f *fakeEnv) Render(w io.Writer) error {
	_, err := fmt.Fprintf(w, "step %d\n", f.steps)
	return err
}

// fakeAgent always chooses the same action and records its calls
type fakeAgent struct {
	action  int
	step    int
	learns  int
	batches []int
	syncs   int
	randoms int
	greedy  int
	saved   []string
}

func (f *fakeAgent) Learn(batch []ts.Transition) (float64, error) {
	f.learns++
	f.batches = append(f.batches, len(batch))
	return 0.5, nil
}

func (f *fakeAgent) SyncTarget() error { f.syncs++; return nil }

func (f *fakeAgent) SelectAction(_ []float64, training bool) (int, error) {
	if !training {
		f.greedy++
	}
	return f.action, nil
}

func (f *fakeAgent) RandomAction() int { f.randoms++; return 0 }
func (f *fakeAgent) NumActions() int   { return 3 }
func (f *fakeAgent) Step() int         { return f.step }
func (f *fakeAgent) SetStep(s int)     { f.step = s }
func (f *fakeAgent) Epsilon() float64  { return 0.1 }

func (f *fakeAgent) Save(path string) error {
	f.saved = append(f.saved, path)
	return nil
}

// Load succeeds only for paths previously passed to Save
func (f *fakeAgent) Load(path string) error {
	for _, p := range f.saved {
		if p == path {
			return nil
		}
	}
	return &deepq.CheckpointError{Op: "load", Path: path,
		Err: errors.New("no such file")}
}
