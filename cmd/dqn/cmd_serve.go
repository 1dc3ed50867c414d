package main

import (
	"net"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fiorenza2/RL-Algorithms/config"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/environment/remote"
	"github.com/fiorenza2/RL-Algorithms/internal/logging"
)

func newServeEnvCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-env",
		Short: "Serve an environment over gRPC",
		Long: `Serve a registered environment over gRPC so that it can be
trained on or tested with the Remote environment from another process:

  dqn serve-env --env CartPole-v0 --addr :50051
  dqn train --env Remote --remote_addr localhost:50051`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			if cfg.Env.ID == "Remote" {
				return env.NewConfigurationError("serve-env", "cannot serve "+
					"a Remote environment")
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			e, err := env.Make(cfg.Env.ID, cfg.Env.Seed, cfg.EnvOptions()...)
			if err != nil {
				return err
			}
			defer e.Close()

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrap(err, "serve-env")
			}
			return remote.Serve(cmd.Context(), lis, e, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":50051", "Address to listen on")
	return cmd
}
