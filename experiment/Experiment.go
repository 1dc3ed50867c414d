// Package experiment implements the training and testing loops of a
// deep Q-learning experiment.
//
// A Trainer pre-fills a replay buffer with random experience, then runs
// episodes in which the agent acts ε-greedily, learns from sampled
// batches, periodically synchronizes its target network, and is
// periodically checkpointed. A Tester runs greedy episodes with a
// loaded agent and reports their returns.
//
// Both loops repeat each chosen action for FrameSkip environment steps
// and sum the rewards of the repeated steps. The global step counter
// and the per-episode step limit count action decisions, not
// environment steps.
package experiment

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/experiment/checkpointer"
	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
	"github.com/fiorenza2/RL-Algorithms/reward"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// EpisodeResult summarizes a single episode
type EpisodeResult = tracker.Episode

// options holds the optional collaborators of a Trainer or Tester
type options struct {
	logger       *slog.Logger
	trackers     []tracker.Tracker
	checkpointer checkpointer.Checkpointer
	shaper       reward.Transform
	out          io.Writer
	progress     io.Writer
}

// Option configures a Trainer or Tester
type Option func(*options)

// WithLogger sets the logger. A nil logger discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTrackers adds Trackers which are given every finished episode and
// are closed when the run ends
func WithTrackers(t ...tracker.Tracker) Option {
	return func(o *options) { o.trackers = append(o.trackers, t...) }
}

// WithCheckpointer replaces the default checkpointing policy of a
// Trainer. It is ignored by Testers.
func WithCheckpointer(c checkpointer.Checkpointer) Option {
	return func(o *options) { o.checkpointer = c }
}

// WithShaper replaces the reward pipeline of a Trainer. It is ignored
// by Testers, which never shape rewards.
func WithShaper(s reward.Transform) Option {
	return func(o *options) { o.shaper = s }
}

// WithOutput sets where environments are rendered when visualising.
// The default is standard output.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithProgress draws a progress bar of the replay buffer pre-fill on w.
// It is ignored by Testers.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

func newOptions(opts []Option) options {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// repeat issues action to e frameSkip times, stopping early if the
// episode ends. It returns the last TimeStep, the summed reward, whether
// the episode ended, and the number of environment steps taken.
func repeat(e env.Environment, action, frameSkip int) (ts.TimeStep, float64,
	bool, int, error) {
	var (
		step  ts.TimeStep
		total float64
		done  bool
		err   error
	)

	n := 0
	for n < frameSkip && !done {
		step, done, err = e.Step(action)
		if err != nil {
			return ts.TimeStep{}, 0, true, n, errors.Wrap(err,
				"environment step")
		}
		total += step.Reward
		n++
	}
	return step, total, done, n, nil
}
