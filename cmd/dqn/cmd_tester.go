package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/fiorenza2/RL-Algorithms/config"
	"github.com/fiorenza2/RL-Algorithms/experiment"
	"github.com/fiorenza2/RL-Algorithms/experiment/tracker"
	"github.com/fiorenza2/RL-Algorithms/internal/logging"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test a trained DQN agent",
		Long: `Test a trained DQN agent. Parameters are loaded from testfile
and the agent acts greedily for num_episodes episodes without learning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config.ModeTest)
		},
	}
}

func runTest(cmd *cobra.Command, cfg config.Config) error {
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

	tester, err := experiment.NewTester(e, a, cfg.TestConfig(),
		experiment.WithLogger(logger),
		experiment.WithTrackers(trackers...),
		experiment.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		tracker.Multi(trackers...).Close()
		return err
	}
	if err := tester.LoadCheckpoint(cfg.Test.Testfile); err != nil {
		tracker.Multi(trackers...).Close()
		return err
	}

	returns, err := tester.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range returns {
		fmt.Fprintf(out, "episode %d: return %v\n", i+1, r)
	}
	if len(returns) > 0 {
		mean, std := stat.MeanStdDev(returns, nil)
		fmt.Fprintf(out, "mean return %.3f ± %.3f over %d episodes\n", mean,
			std, len(returns))
	}
	return nil
}
