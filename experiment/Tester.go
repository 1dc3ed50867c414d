package experiment

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/agent"
	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
	"github.com/fiorenza2/RL-Algorithms/preprocess"
)

// TestConfig configures a Tester
type TestConfig struct {
	FrameSkip   int
	FrameStack  int
	MaxEpSteps  int
	NumEpisodes int
	Visualise   bool // Render the environment after each decision
}

// Validate checks that c can configure a Tester
func (c TestConfig) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"frame_skip", c.FrameSkip},
		{"frame_stack", c.FrameStack},
		{"max_ep_steps", c.MaxEpSteps},
		{"num_episodes", c.NumEpisodes},
	}
	for _, p := range positive {
		if p.value < 1 {
			return env.NewConfigurationError("validate", "%v must be "+
				"positive (have %d)", p.name, p.value)
		}
	}
	return nil
}

// Tester runs greedy evaluation episodes with an agent. The Tester
// never shapes rewards, learns, or stores transitions.
type Tester struct {
	env   env.Environment
	agent agent.Agent
	cfg   TestConfig

	logger   *slog.Logger
	tracker  tracker.Tracker
	out      io.Writer
	renderer env.Renderer
	observer *preprocess.Observer

	// loaded is set once a checkpoint has been loaded into the agent
	loaded bool
}

// NewTester returns a new Tester
func NewTester(e env.Environment, a agent.Agent, cfg TestConfig,
	opts ...Option) (*Tester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "newTester")
	}

	o := newOptions(opts)
	observer, err := preprocess.NewObserver(e.ObservationSpec().Shape,
		cfg.FrameStack)
	if err != nil {
		return nil, errors.Wrap(err, "newTester")
	}

	t := &Tester{
		env:      e,
		agent:    a,
		cfg:      cfg,
		logger:   o.logger,
		tracker:  tracker.Multi(o.trackers...),
		out:      o.out,
		observer: observer,
	}

	if cfg.Visualise {
		r, ok := e.(env.Renderer)
		if !ok {
			o.logger.Warn("environment cannot be rendered, visualisation " +
				"disabled")
		}
		t.renderer = r
	}
	return t, nil
}

// LoadCheckpoint loads the agent's parameters from path. A missing or
// incompatible checkpoint is fatal for testing.
func (t *Tester) LoadCheckpoint(path string) error {
	if err := t.agent.Load(path); err != nil {
		return err
	}
	t.loaded = true
	t.logger.Info("checkpoint loaded", "path", path)
	return nil
}

// Run runs NumEpisodes greedy episodes and returns the unshaped return
// of each. Cancelling ctx stops testing at the next episode boundary.
// Trackers are closed when Run returns. Run returns a
// *deepq.CheckpointError if no checkpoint has been loaded.
func (t *Tester) Run(ctx context.Context) (returns []float64, err error) {
	defer func() {
		if cerr := t.tracker.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "run: close trackers")
		}
	}()

	if !t.loaded {
		return nil, &deepq.CheckpointError{Op: "run",
			Err: errors.New("no checkpoint loaded")}
	}

	for i := 0; i < t.cfg.NumEpisodes; i++ {
		if ctx.Err() != nil {
			t.logger.Info("testing interrupted", "episodes", i)
			break
		}

		result, err := t.RunEpisode(i + 1)
		if err != nil {
			return returns, errors.Wrap(err, "run")
		}
		returns = append(returns, result.Return)
	}
	return returns, nil
}

// RunEpisode runs a single greedy episode
func (t *Tester) RunEpisode(episode int) (EpisodeResult, error) {
	result := EpisodeResult{Episode: episode, Phase: "test"}

	step, err := t.env.Reset()
	if err != nil {
		return result, errors.Wrap(err, "runEpisode: environment reset")
	}
	state, err := t.observer.Reset(step.ObservationData())
	if err != nil {
		return result, errors.Wrap(err, "runEpisode")
	}
	if err := t.render(); err != nil {
		return result, err
	}

	for result.Steps < t.cfg.MaxEpSteps {
		a, err := t.agent.SelectAction(state, false)
		if err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}

		step, raw, done, _, err := repeat(t.env, a, t.cfg.FrameSkip)
		if err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}
		result.Return += raw
		result.Steps++

		if err := t.render(); err != nil {
			return result, err
		}
		if done {
			break
		}

		if state, err = t.observer.Observe(step.ObservationData()); err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}
	}

	t.logger.Info("test episode finished", "episode", episode,
		"steps", result.Steps, "return", result.Return)

	if err := t.tracker.Track(result); err != nil {
		return result, errors.Wrap(err, "runEpisode")
	}
	return result, nil
}

func (t *Tester) render() error {
	if t.renderer == nil {
		return nil
	}
	return errors.Wrap(t.renderer.Render(t.out), "render")
}
