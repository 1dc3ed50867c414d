// Command dqn trains and tests deep Q-learning agents.
//
// Usage:
//
//	dqn train --env CartPole-v0 --num_episodes 500
//	dqn test --env CartPole-v0 --testfile ./params/dqn3.ckpt --visualise
//	dqn --mode train --config dqn.yaml
//	dqn report --db ./runs/runs.db --out report.html
//	dqn serve-env --env CartPole-v0 --addr :50051
//
// Settings are taken from defaults, the --config YAML file, a .env file,
// DQN_* environment variables, and finally command line flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fiorenza2/RL-Algorithms/config"
	env "github.com/fiorenza2/RL-Algorithms/environment"

	// Registered environments
	_ "github.com/fiorenza2/RL-Algorithms/environment/box2d/lunarlander"
	_ "github.com/fiorenza2/RL-Algorithms/environment/classiccontrol/acrobot"
	_ "github.com/fiorenza2/RL-Algorithms/environment/classiccontrol/cartpole"
	_ "github.com/fiorenza2/RL-Algorithms/environment/classiccontrol/mountaincar"
	_ "github.com/fiorenza2/RL-Algorithms/environment/gridworld"
	_ "github.com/fiorenza2/RL-Algorithms/environment/maze"
	_ "github.com/fiorenza2/RL-Algorithms/environment/remote"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dqn",
		Short: "Train and test deep Q-learning agents",
		Long: `dqn trains deep Q-network agents on environments with discrete
actions, and tests trained agents greedily from a checkpoint.

Use the train and test subcommands, or select the mode with --mode.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			if mode == "" {
				return cmd.Help()
			}
			return run(cmd, mode)
		},
	}

	rootCmd.PersistentFlags().String("mode", "", "Run mode: train or test")
	registerRunFlags(rootCmd)

	rootCmd.AddCommand(
		newTrainCmd(),
		newTestCmd(),
		newReportCmd(),
		newServeEnvCmd(),
		newEnvsCmd(),
	)
	return rootCmd
}

// run loads the configuration of a run in the given mode and runs it
func run(cmd *cobra.Command, mode string) error {
	cfg, err := loadConfig(cmd, mode)
	if err != nil {
		return err
	}

	switch cfg.Mode {
	case config.ModeTrain:
		return runTrain(cmd, cfg)
	default:
		return runTest(cmd, cfg)
	}
}

func newEnvsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List the registered environments",
		Run: func(cmd *cobra.Command, args []string) {
			for _, id := range env.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	}
}
