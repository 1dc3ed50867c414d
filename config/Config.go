// Package config provides configuration loading for the dqn command.
// Settings are read from defaults, an optional YAML file, and DQN_*
// environment variables, in that order. Command line flags are applied
// last by the command itself.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/experiment"
)

// Modes of the dqn command
const (
	ModeTrain = "train"
	ModeTest  = "test"
)

// Config contains all settings of a training or testing run
type Config struct {
	Mode     string         `yaml:"mode"`
	Env      EnvConfig      `yaml:"env"`
	Agent    AgentConfig    `yaml:"agent"`
	Train    TrainConfig    `yaml:"train"`
	Test     TestConfig     `yaml:"test"`
	Tracking TrackingConfig `yaml:"tracking"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EnvConfig selects and seeds the environment
type EnvConfig struct {
	ID   string `yaml:"id"`
	Seed uint64 `yaml:"seed"`

	// ObservationShape overrides the observation shape reported by the
	// environment, which is needed for pixel games served remotely or
	// through Gym
	ObservationShape []int `yaml:"observation_shape,omitempty"`

	// RemoteAddr is the address of an environment server, used by the
	// Remote environment
	RemoteAddr string `yaml:"remote_addr,omitempty"`
}

// AgentConfig configures the DeepQ agent and its replay buffer
type AgentConfig struct {
	deepq.Config `yaml:",inline"`

	// MemorySize is the capacity of the replay buffer
	MemorySize int `yaml:"memory_size"`
}

// TrainConfig configures the training loop
type TrainConfig struct {
	FrameSkip        int    `yaml:"frame_skip"`
	FrameStack       int    `yaml:"frame_stack"`
	RewardShaping    bool   `yaml:"reward_shaping"`
	MaxEpSteps       int    `yaml:"max_ep_steps"`
	ResetTarget      int    `yaml:"reset_target"`
	SaveFreq         int    `yaml:"save_freq"`
	NumEpisodes      int    `yaml:"num_episodes"`
	NumSamplesPre    int    `yaml:"num_samples_pre"`
	CheckpointDir    string `yaml:"checkpoint_dir"`
	CheckpointPrefix string `yaml:"checkpoint_prefix"`
}

// TestConfig configures the testing loop
type TestConfig struct {
	Testfile    string `yaml:"testfile"`
	Visualise   bool   `yaml:"visualise"`
	NumEpisodes int    `yaml:"num_episodes"`
}

// TrackingConfig configures where per-episode data is recorded. Data is
// only recorded when Monitor is set.
type TrackingConfig struct {
	Monitor     bool   `yaml:"monitor"`
	SQLitePath  string `yaml:"sqlite_path"`
	ReturnsPath string `yaml:"returns_path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	// Level is one of debug, info, warn, or error
	Level string `yaml:"level"`
}

// Default returns a Config with the default settings
func Default() Config {
	agent := deepq.DefaultConfig()
	agent.Gamma = 0.9
	agent.BatchSize = 32
	agent.FinalExpFrame = 500000

	return Config{
		Mode: ModeTrain,
		Env: EnvConfig{
			ID: "CartPole-v0",
		},
		Agent: AgentConfig{
			Config:     agent,
			MemorySize: 100000,
		},
		Train: TrainConfig{
			FrameSkip:        3,
			FrameStack:       4,
			RewardShaping:    true,
			MaxEpSteps:       1000000,
			ResetTarget:      10000,
			SaveFreq:         10000,
			NumEpisodes:      100000000,
			NumSamplesPre:    3000,
			CheckpointDir:    "./params",
			CheckpointPrefix: "dqn",
		},
		Test: TestConfig{
			Testfile:    "./params/trained_params.ckpt",
			Visualise:   false,
			NumEpisodes: 10,
		},
		Tracking: TrackingConfig{
			SQLitePath:  "./runs/runs.db",
			ReturnsPath: "./runs/returns.bin",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the default Config overridden by the YAML file at path,
// if path is not empty, and then by DQN_* environment variables
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		var err error
		if c, err = LoadFromFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&c, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFromFile returns the default Config overridden by the YAML file at
// path. Unknown keys are an error.
func LoadFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "loadFromFile: reading config file")
	}
	defer f.Close()

	c := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, env.NewConfigurationError("loadFromFile",
			"parsing config file %v: %v", path, err)
	}
	return c, nil
}

// Validate checks that the Config describes a run which can start
func (c Config) Validate() error {
	if c.Mode != ModeTrain && c.Mode != ModeTest {
		return env.NewConfigurationError("validate", "invalid mode %q "+
			"(valid: %v, %v)", c.Mode, ModeTrain, ModeTest)
	}

	if !env.Registered(c.Env.ID) {
		return env.NewConfigurationError("validate", "unknown environment "+
			"%q (registered: %v)", c.Env.ID, env.IDs())
	}

	if err := c.AgentConfig().Validate(); err != nil {
		return &env.ConfigurationError{Op: "validate", Err: err}
	}

	switch c.Mode {
	case ModeTrain:
		return c.TrainConfig().Validate()

	case ModeTest:
		if c.Test.Testfile == "" {
			return env.NewConfigurationError("validate", "testfile must "+
				"be set in test mode")
		}
		return c.TestConfig().Validate()
	}
	return nil
}

// AgentConfig returns the configuration of the DeepQ agent. Actions are
// random while the replay buffer is pre-filled.
func (c Config) AgentConfig() deepq.Config {
	agent := c.Agent.Config
	agent.Hidden = append([]int{}, c.Agent.Hidden...)
	agent.Warmup = c.Train.NumSamplesPre
	return agent
}

// TrainConfig returns the configuration of the training loop
func (c Config) TrainConfig() experiment.TrainConfig {
	return experiment.TrainConfig{
		FrameSkip:        c.Train.FrameSkip,
		FrameStack:       c.Train.FrameStack,
		RewardShaping:    c.Train.RewardShaping,
		BatchSize:        c.Agent.BatchSize,
		MemorySize:       c.Agent.MemorySize,
		MaxEpSteps:       c.Train.MaxEpSteps,
		ResetTarget:      c.Train.ResetTarget,
		SaveFreq:         c.Train.SaveFreq,
		NumEpisodes:      c.Train.NumEpisodes,
		NumSamplesPre:    c.Train.NumSamplesPre,
		FinalExpFrame:    c.Agent.FinalExpFrame,
		CheckpointDir:    c.Train.CheckpointDir,
		CheckpointPrefix: c.Train.CheckpointPrefix,
		Seed:             c.Env.Seed,
	}
}

// TestConfig returns the configuration of the testing loop
func (c Config) TestConfig() experiment.TestConfig {
	return experiment.TestConfig{
		FrameSkip:   c.Train.FrameSkip,
		FrameStack:  c.Train.FrameStack,
		MaxEpSteps:  c.Train.MaxEpSteps,
		NumEpisodes: c.Test.NumEpisodes,
		Visualise:   c.Test.Visualise,
	}
}

// EnvOptions returns the options used to create the environment
func (c Config) EnvOptions() []env.Option {
	var opts []env.Option
	if c.Env.RemoteAddr != "" {
		opts = append(opts, env.WithAddress(c.Env.RemoteAddr))
	}
	if len(c.Env.ObservationShape) > 0 {
		opts = append(opts, env.WithObservationShape(c.Env.ObservationShape))
	}
	return opts
}

// applyEnvOverrides applies DQN_* environment variable overrides to c.
// Malformed values are a ConfigurationError.
func applyEnvOverrides(c *Config, lookup func(string) (string, bool)) error {
	str := func(p *string) func(string) error {
		return func(v string) error { *p = v; return nil }
	}
	integer := func(p *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			*p = n
			return err
		}
	}
	float := func(p *float64) func(string) error {
		return func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			*p = f
			return err
		}
	}
	boolean := func(p *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			*p = b
			return err
		}
	}

	overrides := []struct {
		name  string
		apply func(string) error
	}{
		{"DQN_MODE", str(&c.Mode)},
		{"DQN_ENV", str(&c.Env.ID)},
		{"DQN_SEED", func(v string) error {
			seed, err := strconv.ParseUint(v, 10, 64)
			c.Env.Seed = seed
			return err
		}},
		{"DQN_REMOTE_ADDR", str(&c.Env.RemoteAddr)},
		{"DQN_OBSERVATION_SHAPE", func(v string) error {
			shape, err := ParseShape(v)
			c.Env.ObservationShape = shape
			return err
		}},
		{"DQN_GAMMA", float(&c.Agent.Gamma)},
		{"DQN_BATCH_SIZE", integer(&c.Agent.BatchSize)},
		{"DQN_MEMORY_SIZE", integer(&c.Agent.MemorySize)},
		{"DQN_FINAL_EXP_FRAME", integer(&c.Agent.FinalExpFrame)},
		{"DQN_WEIGHT_DECAY", float(&c.Agent.Solver.WeightDecay)},
		{"DQN_FRAME_SKIP", integer(&c.Train.FrameSkip)},
		{"DQN_FRAME_STACK", integer(&c.Train.FrameStack)},
		{"DQN_REWARD_SHAPING", boolean(&c.Train.RewardShaping)},
		{"DQN_MAX_EP_STEPS", integer(&c.Train.MaxEpSteps)},
		{"DQN_RESET_TARGET", integer(&c.Train.ResetTarget)},
		{"DQN_SAVE_FREQ", integer(&c.Train.SaveFreq)},
		{"DQN_NUM_EPISODES", integer(&c.Train.NumEpisodes)},
		{"DQN_NUM_SAMPLES_PRE", integer(&c.Train.NumSamplesPre)},
		{"DQN_CHECKPOINT_DIR", str(&c.Train.CheckpointDir)},
		{"DQN_TESTFILE", str(&c.Test.Testfile)},
		{"DQN_VISUALISE", boolean(&c.Test.Visualise)},
		{"DQN_MONITOR", boolean(&c.Tracking.Monitor)},
		{"DQN_SQLITE_PATH", str(&c.Tracking.SQLitePath)},
		{"DQN_RETURNS_PATH", str(&c.Tracking.ReturnsPath)},
		{"DQN_LOG_LEVEL", str(&c.Logging.Level)},
	}

	for _, o := range overrides {
		v, ok := lookup(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(strings.TrimSpace(v)); err != nil {
			return env.NewConfigurationError("applyEnvOverrides",
				"invalid %v=%q: %v", o.name, v, err)
		}
	}
	return nil
}

// ParseShape parses a comma separated shape such as "84,84,3"
func ParseShape(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	shape := make([]int, len(fields))
	for i, f := range fields {
		dim, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || dim < 1 {
			return nil, errors.Errorf("parseShape: invalid dimension %q", f)
		}
		shape[i] = dim
	}
	return shape, nil
}
