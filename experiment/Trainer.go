package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/agent"
	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	"github.com/fiorenza2/RL-Algorithms/agent/policy"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/experiment/checkpointer"
	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
	"github.com/fiorenza2/RL-Algorithms/expreplay"
	"github.com/fiorenza2/RL-Algorithms/preprocess"
	"github.com/fiorenza2/RL-Algorithms/reward"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
	"github.com/fiorenza2/RL-Algorithms/utils/progressbar"
)

// progressWidth is the width of the pre-fill progress bar
const progressWidth = 40

// TrainConfig configures a Trainer
type TrainConfig struct {
	FrameSkip     int
	FrameStack    int
	RewardShaping bool // Add the living bonus before clipping rewards
	BatchSize     int
	MemorySize    int // Replay buffer capacity
	MaxEpSteps    int
	ResetTarget   int // Target sync interval, in global steps
	SaveFreq      int // Checkpoint interval, in global steps
	NumEpisodes   int
	NumSamplesPre int // Random decisions taken to fill the buffer
	FinalExpFrame int // Step at which exploration reaches its floor

	CheckpointDir    string
	CheckpointPrefix string

	Seed uint64
}

// Validate checks that c can configure a Trainer
func (c TrainConfig) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"frame_skip", c.FrameSkip},
		{"frame_stack", c.FrameStack},
		{"batch_size", c.BatchSize},
		{"memory_size", c.MemorySize},
		{"max_ep_steps", c.MaxEpSteps},
		{"reset_target", c.ResetTarget},
		{"save_freq", c.SaveFreq},
		{"num_episodes", c.NumEpisodes},
	}
	for _, p := range positive {
		if p.value < 1 {
			return env.NewConfigurationError("validate", "%v must be "+
				"positive (have %d)", p.name, p.value)
		}
	}

	if c.NumSamplesPre < 0 {
		return env.NewConfigurationError("validate", "num_samples_pre "+
			"must not be negative (have %d)", c.NumSamplesPre)
	}
	if c.FinalExpFrame < 0 {
		return env.NewConfigurationError("validate", "final_exp_frame "+
			"must not be negative (have %d)", c.FinalExpFrame)
	}
	if c.BatchSize > c.MemorySize {
		return env.NewConfigurationError("validate", "batch_size %d "+
			"exceeds memory_size %d", c.BatchSize, c.MemorySize)
	}
	return nil
}

// LearnThreshold returns the number of transitions the replay buffer
// must hold before learning starts
func (c TrainConfig) LearnThreshold() int {
	return max(c.BatchSize, min(c.NumSamplesPre, c.MemorySize))
}

// Stats is the step accounting of a Trainer
type Stats struct {
	Steps         int // Global action decisions, including pre-fill
	Episodes      int
	Learns        int
	SkippedLearns int // Learning steps skipped for lack of data
	Syncs         int
	Checkpoints   int
	EnvSteps      int // Environment steps, counting skipped frames
}

func (s Stats) String() string {
	return fmt.Sprintf("Stats | Steps: %d  |  Episodes: %d  |  Learns: %d"+
		"  |  Skipped: %d  |  Syncs: %d  |  Checkpoints: %d  |  "+
		"Env Steps: %d", s.Steps, s.Episodes, s.Learns, s.SkippedLearns,
		s.Syncs, s.Checkpoints, s.EnvSteps)
}

// Trainer runs the training loop of an agent on an environment. The
// Trainer owns the replay buffer.
type Trainer struct {
	env   env.Environment
	agent agent.Agent
	cfg   TrainConfig

	logger       *slog.Logger
	tracker      tracker.Tracker
	checkpointer checkpointer.Checkpointer
	shaper       reward.Transform
	progress     io.Writer

	observer *preprocess.Observer
	store    *expreplay.Store
	phases   *policy.PhaseTracker

	prefilled bool
	stats     Stats
}

// NewTrainer returns a new Trainer. Unless replaced by options, rewards
// are shaped with reward.NewShaper(cfg.RewardShaping) and checkpoints
// are written every cfg.SaveFreq steps to enumerated files
// <CheckpointDir>/<CheckpointPrefix><n>.ckpt.
func NewTrainer(e env.Environment, a agent.Agent, cfg TrainConfig,
	opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "newTrainer")
	}

	o := newOptions(opts)

	observer, err := preprocess.NewObserver(e.ObservationSpec().Shape,
		cfg.FrameStack)
	if err != nil {
		return nil, errors.Wrap(err, "newTrainer")
	}

	store, err := expreplay.New(cfg.MemorySize, cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "newTrainer")
	}

	if o.shaper == nil {
		o.shaper = reward.NewShaper(cfg.RewardShaping)
	}
	if o.checkpointer == nil {
		o.checkpointer, err = checkpointer.NewNStep(cfg.SaveFreq, a,
			checkpointer.Enumerated(cfg.CheckpointDir, cfg.CheckpointPrefix))
		if err != nil {
			return nil, errors.Wrap(err, "newTrainer")
		}
	}

	t := &Trainer{
		env:          e,
		agent:        a,
		cfg:          cfg,
		logger:       o.logger,
		tracker:      tracker.Multi(o.trackers...),
		checkpointer: o.checkpointer,
		shaper:       o.shaper,
		progress:     o.progress,
		observer:     observer,
		store:        store,
		phases:       policy.NewPhaseTracker(cfg.NumSamplesPre, cfg.FinalExpFrame),
	}
	t.stats.Steps = a.Step()
	t.phases.Advance(t.stats.Steps)
	return t, nil
}

// Stats returns the step accounting of the Trainer so far
func (t *Trainer) Stats() Stats {
	return t.stats
}

// Prefill fills the replay buffer with NumSamplesPre random action
// decisions. Prefill runs at most once per Trainer, and stops early at
// an episode boundary if ctx is cancelled.
func (t *Trainer) Prefill(ctx context.Context) error {
	if t.prefilled {
		return nil
	}
	t.prefilled = true

	n := t.cfg.NumSamplesPre
	if n == 0 {
		return nil
	}
	t.logger.Info("pre-filling replay buffer", "samples", n)

	var bar *progressbar.ProgressBar
	if t.progress != nil {
		bar = progressbar.New(t.progress, progressWidth, n)
		defer bar.Finish()
	}

	state, err := t.reset()
	if err != nil {
		return errors.Wrap(err, "prefill")
	}
	episodeSteps := 0

	for i := 0; i < n; i++ {
		a := t.agent.RandomAction()
		next, raw, done, err := t.act(a)
		if err != nil {
			return errors.Wrap(err, "prefill")
		}

		t.store.Push(ts.NewTransition(state, a, t.shaper(raw), next, done))
		episodeSteps++
		if err := t.advance(); err != nil {
			return errors.Wrap(err, "prefill")
		}

		if bar != nil {
			bar.Increment()
			if interval := n / 100; interval == 0 || (i+1)%interval == 0 {
				bar.Display()
			}
		}
		if interval := n / 10; interval > 0 && (i+1)%interval == 0 {
			t.logger.Info("pre-fill progress",
				"percent", 100*(i+1)/n, "buffer", t.store.Len())
		}

		if !done && episodeSteps < t.cfg.MaxEpSteps {
			state = next
			continue
		}

		if ctx.Err() != nil {
			t.logger.Info("pre-fill interrupted", "buffer", t.store.Len())
			return nil
		}
		if i+1 < n {
			if state, err = t.reset(); err != nil {
				return errors.Wrap(err, "prefill")
			}
			episodeSteps = 0
		}
	}
	return nil
}

// RunEpisode runs a single training episode, which ends when the
// environment signals the end of the episode or after MaxEpSteps
// action decisions
func (t *Trainer) RunEpisode(ctx context.Context) (EpisodeResult, error) {
	result := EpisodeResult{Episode: t.stats.Episodes + 1}

	state, err := t.reset()
	if err != nil {
		return result, errors.Wrap(err, "runEpisode")
	}

	for result.Steps < t.cfg.MaxEpSteps {
		a, err := t.agent.SelectAction(state, true)
		if err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}

		next, raw, done, err := t.act(a)
		if err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}
		result.Return += raw

		t.store.Push(ts.NewTransition(state, a, t.shaper(raw), next, done))

		loss, learned, err := t.learn()
		if err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}
		if learned {
			result.Loss += loss
			result.Learns++
		}

		result.Steps++
		if err := t.advance(); err != nil {
			return result, errors.Wrap(err, "runEpisode")
		}

		if done {
			break
		}
		state = next
	}

	if result.Learns > 0 {
		result.Loss /= float64(result.Learns)
	}
	result.Epsilon = t.agent.Epsilon()
	result.Phase = t.phases.Phase().String()
	t.stats.Episodes++

	t.logger.Info("episode finished", "episode", result.Episode,
		"steps", result.Steps, "return", result.Return,
		"epsilon", result.Epsilon, "phase", result.Phase,
		"loss", result.Loss)

	if err := t.tracker.Track(result); err != nil {
		return result, errors.Wrap(err, "runEpisode")
	}
	return result, nil
}

// Run pre-fills the replay buffer, then runs NumEpisodes episodes and
// saves a final checkpoint. Cancelling ctx stops training at the next
// episode boundary, after which the final checkpoint is still saved.
// Trackers are closed when Run returns.
func (t *Trainer) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := t.tracker.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "run: close trackers")
		}
	}()

	if err := t.Prefill(ctx); err != nil {
		return errors.Wrap(err, "run")
	}

	for t.stats.Episodes < t.cfg.NumEpisodes {
		if ctx.Err() != nil {
			t.logger.Info("training interrupted", "episodes",
				t.stats.Episodes, "steps", t.stats.Steps)
			break
		}
		if _, err := t.RunEpisode(ctx); err != nil {
			return errors.Wrap(err, "run")
		}
	}

	path, err := t.checkpointer.Save()
	if err != nil {
		return errors.Wrap(err, "run: final checkpoint")
	}
	t.stats.Checkpoints++
	t.logger.Info("checkpoint written", "path", path, "step", t.stats.Steps)

	t.logger.Info("training finished", "stats", t.stats.String())
	return nil
}

// reset starts a new episode and returns its first state
func (t *Trainer) reset() ([]float64, error) {
	step, err := t.env.Reset()
	if err != nil {
		return nil, errors.Wrap(err, "environment reset")
	}
	return t.observer.Reset(step.ObservationData())
}

// act repeats action for FrameSkip environment steps and returns the
// resulting state and the summed raw reward
func (t *Trainer) act(action int) ([]float64, float64, bool, error) {
	step, raw, done, n, err := repeat(t.env, action, t.cfg.FrameSkip)
	t.stats.EnvSteps += n
	if err != nil {
		return nil, 0, true, err
	}

	next, err := t.observer.Observe(step.ObservationData())
	if err != nil {
		return nil, 0, true, err
	}
	return next, raw, done, nil
}

// learn performs a single learning step if the replay buffer holds
// enough data. A skipped step is not an error.
func (t *Trainer) learn() (float64, bool, error) {
	if t.store.Len() < t.cfg.LearnThreshold() {
		t.skip("buffer below threshold")
		return 0, false, nil
	}

	batch, err := t.store.Sample(t.cfg.BatchSize)
	if err != nil {
		if expreplay.IsInsufficientSamples(err) {
			t.skip(err.Error())
			return 0, false, nil
		}
		return 0, false, err
	}

	loss, err := t.agent.Learn(batch)
	if err != nil {
		if deepq.IsNotReady(err) {
			t.skip(err.Error())
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "learn")
	}

	t.stats.Learns++
	return loss, true, nil
}

func (t *Trainer) skip(reason string) {
	t.stats.SkippedLearns++
	t.logger.Debug("learning step skipped", "reason", reason,
		"buffer", t.store.Len())
}

// advance increments the global step after an action decision, then
// synchronizes the target network and checkpoints when they are due
func (t *Trainer) advance() error {
	t.stats.Steps++
	step := t.stats.Steps
	t.agent.SetStep(step)

	if phase, changed := t.phases.Advance(step); changed {
		t.logger.Info("phase changed", "phase", phase.String(),
			"step", step)
	}

	if step%t.cfg.ResetTarget == 0 {
		if err := t.agent.SyncTarget(); err != nil {
			return errors.Wrap(err, "sync target")
		}
		t.stats.Syncs++
		t.logger.Debug("target synchronized", "step", step)
	}

	path, err := t.checkpointer.Checkpoint(step)
	if err != nil {
		return err
	}
	if path != "" {
		t.stats.Checkpoints++
		t.logger.Info("checkpoint written", "path", path, "step", step)
	}
	return nil
}
