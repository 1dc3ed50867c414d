package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fiorenza2/RL-Algorithms/config"
)

// registerRunFlags registers the flags of training and testing runs as
// persistent flags of cmd. Defaults shown are those of config.Default,
// and only flags given explicitly override the configuration.
func registerRunFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.PersistentFlags()

	f.String("config", "", "YAML configuration file")
	f.String("log-level", d.Logging.Level, "Log level: debug, info, warn, or error")

	f.String("env", d.Env.ID, "Environment identifier")
	f.Uint64("seed", d.Env.Seed, "Random seed")
	f.String("remote_addr", "", "Address of an environment server for the Remote environment")
	f.String("observation_shape", "", "Observation shape override, e.g. 288,512,3")
	f.String("testfile", d.Test.Testfile, "Checkpoint to test")
	f.Bool("monitor", d.Tracking.Monitor, "Record per-episode data to SQLite and gob files")

	f.Int("frame_skip", d.Train.FrameSkip, "Environment steps per action decision")
	f.Int("frame_stack", d.Train.FrameStack, "Frames stacked into a state for image observations")
	f.Bool("reward_shaping", d.Train.RewardShaping, "Add a living bonus before clipping rewards")
	f.Float64("gamma", d.Agent.Gamma, "Discount factor")
	f.Int("batch_size", d.Agent.BatchSize, "Batch size")
	f.Int("memory_size", d.Agent.MemorySize, "Replay buffer capacity")
	f.Int("max_ep_steps", d.Train.MaxEpSteps, "Maximum action decisions per episode")
	f.Int("reset_target", d.Train.ResetTarget, "Steps between target network syncs")
	f.Int("final_exp_frame", d.Agent.FinalExpFrame, "Step at which exploration reaches its floor")
	f.Int("save_freq", d.Train.SaveFreq, "Steps between checkpoints")
	f.Int("num_episodes", d.Train.NumEpisodes, "Number of episodes")
	f.Int("num_samples_pre", d.Train.NumSamplesPre, "Random decisions filling the replay buffer before learning")
	f.Bool("visualise", d.Test.Visualise, "Render the environment while testing")
	f.Float64("weight_decay", d.Agent.Solver.WeightDecay, "L2 weight decay")
	f.String("checkpoint_dir", d.Train.CheckpointDir, "Directory of training checkpoints")
}

// loadConfig loads the configuration given by the --config file,
// environment variables, and explicitly set flags, and validates it for
// the given mode
func loadConfig(cmd *cobra.Command, mode string) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	cfg.Mode = mode
	if err := applyFlags(cmd, &cfg); err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	str := func(p *string) func(string) error {
		return func(name string) (err error) {
			*p, err = f.GetString(name)
			return
		}
	}
	integer := func(p *int) func(string) error {
		return func(name string) (err error) {
			*p, err = f.GetInt(name)
			return
		}
	}
	float := func(p *float64) func(string) error {
		return func(name string) (err error) {
			*p, err = f.GetFloat64(name)
			return
		}
	}
	boolean := func(p *bool) func(string) error {
		return func(name string) (err error) {
			*p, err = f.GetBool(name)
			return
		}
	}

	episodes := &cfg.Train.NumEpisodes
	if cfg.Mode == config.ModeTest {
		episodes = &cfg.Test.NumEpisodes
	}

	flags := []struct {
		name  string
		apply func(string) error
	}{
		{"log-level", str(&cfg.Logging.Level)},
		{"env", str(&cfg.Env.ID)},
		{"seed", func(name string) (err error) {
			cfg.Env.Seed, err = f.GetUint64(name)
			return
		}},
		{"remote_addr", str(&cfg.Env.RemoteAddr)},
		{"observation_shape", func(name string) error {
			s, err := f.GetString(name)
			if err != nil {
				return err
			}
			cfg.Env.ObservationShape, err = config.ParseShape(s)
			return err
		}},
		{"testfile", str(&cfg.Test.Testfile)},
		{"monitor", boolean(&cfg.Tracking.Monitor)},
		{"frame_skip", integer(&cfg.Train.FrameSkip)},
		{"frame_stack", integer(&cfg.Train.FrameStack)},
		{"reward_shaping", boolean(&cfg.Train.RewardShaping)},
		{"gamma", float(&cfg.Agent.Gamma)},
		{"batch_size", integer(&cfg.Agent.BatchSize)},
		{"memory_size", integer(&cfg.Agent.MemorySize)},
		{"max_ep_steps", integer(&cfg.Train.MaxEpSteps)},
		{"reset_target", integer(&cfg.Train.ResetTarget)},
		{"final_exp_frame", integer(&cfg.Agent.FinalExpFrame)},
		{"save_freq", integer(&cfg.Train.SaveFreq)},
		{"num_episodes", integer(episodes)},
		{"num_samples_pre", integer(&cfg.Train.NumSamplesPre)},
		{"visualise", boolean(&cfg.Test.Visualise)},
		{"weight_decay", float(&cfg.Agent.Solver.WeightDecay)},
		{"checkpoint_dir", str(&cfg.Train.CheckpointDir)},
	}

	for _, fl := range flags {
		if !f.Changed(fl.name) {
			continue
		}
		if err := fl.apply(fl.name); err != nil {
			return errors.Wrapf(err, "flag --%v", fl.name)
		}
	}
	return nil
}
