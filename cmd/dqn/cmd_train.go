package main

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	"github.com/fiorenza2/RL-Algorithms/config"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/experiment"
	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
	"github.com/fiorenza2/RL-Algorithms/internal/logging"
	"github.com/fiorenza2/RL-Algorithms/preprocess"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DQN agent",
		Long: `Train a DQN agent. The replay buffer is first filled with
num_samples_pre random decisions, after which the agent learns from a
batch of experience at every decision. Checkpoints are written to
checkpoint_dir every save_freq steps and when training stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config.ModeTrain)
		},
	}

	cmd.Flags().Bool("progress", false, "Draw a progress bar while pre-filling the replay buffer")
	return cmd
}

func runTrain(cmd *cobra.Command, cfg config.Config) error {
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	e, a, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	trackers, err := openTrackers(cfg)
	if err != nil {
		return err
	}

	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithTrackers(trackers...),
		experiment.WithOutput(cmd.OutOrStdout()),
	}
	// Only defined on the train subcommand
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		opts = append(opts, experiment.WithProgress(cmd.ErrOrStderr()))
	}

	trainer, err := experiment.NewTrainer(e, a, cfg.TrainConfig(), opts...)
	if err != nil {
		tracker.Multi(trackers...).Close()
		return err
	}

	return trainer.Run(cmd.Context())
}

// setup creates the environment and agent of a run
func setup(cfg config.Config, logger *slog.Logger) (env.Environment,
	*deepq.DeepQ, error) {
	e, err := env.Make(cfg.Env.ID, cfg.Env.Seed, cfg.EnvOptions()...)
	if err != nil {
		return nil, nil, err
	}

	observer, err := preprocess.NewObserver(e.ObservationSpec().Shape,
		cfg.Train.FrameStack)
	if err != nil {
		e.Close()
		return nil, nil, env.NewConfigurationError("setup", "%v", err)
	}

	a, err := deepq.New(cfg.AgentConfig(), observer.StateShape(),
		e.ActionSpec().NumActions(), cfg.Env.Seed)
	if err != nil {
		e.Close()
		return nil, nil, errors.Wrap(err, "setup")
	}

	logger.Info("run configured", "mode", cfg.Mode, "env", e,
		"observations", e.ObservationSpec(), "actions", e.ActionSpec(),
		"agent", a)
	return e, a, nil
}

// openTrackers opens the per-episode trackers of a monitored run
func openTrackers(cfg config.Config) ([]tracker.Tracker, error) {
	if !cfg.Tracking.Monitor {
		return nil, nil
	}

	db, err := tracker.OpenSQLite(cfg.Tracking.SQLitePath, tracker.RunMeta{
		Mode:  cfg.Mode,
		EnvID: cfg.Env.ID,
	})
	if err != nil {
		return nil, err
	}

	returns := tracker.NewReturn(returnsPath(cfg.Tracking.ReturnsPath,
		cfg.Mode))
	return []tracker.Tracker{db, returns}, nil
}

// returnsPath inserts the mode before the extension of path so that
// testing does not overwrite the returns saved by training
func returnsPath(path, mode string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + mode + ext
}
