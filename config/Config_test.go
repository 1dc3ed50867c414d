package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	_ "github.com/fiorenza2/RL-Algorithms/environment/classiccontrol/cartpole"
	"github.com/fiorenza2/RL-Algorithms/solver"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, 3, c.Train.FrameSkip)
	assert.Equal(t, 4, c.Train.FrameStack)
	assert.True(t, c.Train.RewardShaping)
	assert.Equal(t, 0.9, c.Agent.Gamma)
	assert.Equal(t, 32, c.Agent.BatchSize)
	assert.Equal(t, 100000, c.Agent.MemorySize)
	assert.Equal(t, 1000000, c.Train.MaxEpSteps)
	assert.Equal(t, 10000, c.Train.ResetTarget)
	assert.Equal(t, 500000, c.Agent.FinalExpFrame)
	assert.Equal(t, 10000, c.Train.SaveFreq)
	assert.Equal(t, 100000000, c.Train.NumEpisodes)
	assert.Equal(t, 3000, c.Train.NumSamplesPre)
	assert.Equal(t, "./params/trained_params.ckpt", c.Test.Testfile)
	assert.False(t, c.Test.Visualise)
	assert.Equal(t, 0.0, c.Agent.Solver.WeightDecay)

	agent := c.AgentConfig()
	assert.Equal(t, 3000, agent.Warmup)

	train := c.TrainConfig()
	assert.Equal(t, 32, train.BatchSize)
	assert.Equal(t, 500000, train.FinalExpFrame)
	assert.Equal(t, 3000, train.LearnThreshold())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dqn.yaml")
	data := `
env:
  id: CartPole-v0
  seed: 7
agent:
  gamma: 0.99
  batch_size: 64
  memory_size: 5000
  hidden: [32]
  solver:
    type: rmsprop
    step_size: 0.00025
    weight_decay: 0.001
train:
  frame_skip: 1
  reward_shaping: false
  num_samples_pre: 500
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, uint64(7), c.Env.Seed)
	assert.Equal(t, 0.99, c.Agent.Gamma)
	assert.Equal(t, 64, c.Agent.BatchSize)
	assert.Equal(t, 5000, c.Agent.MemorySize)
	assert.Equal(t, []int{32}, c.Agent.Hidden)
	assert.Equal(t, solver.RMSProp, c.Agent.Solver.Type)
	assert.Equal(t, 0.001, c.Agent.Solver.WeightDecay)
	assert.Equal(t, 1, c.Train.FrameSkip)
	assert.False(t, c.Train.RewardShaping)

	// Unset keys keep their defaults
	assert.Equal(t, 4, c.Train.FrameStack)
	assert.Equal(t, 500000, c.Agent.FinalExpFrame)
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dqn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train:\n  frameskip: 2\n"),
		0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.True(t, env.IsConfigurationError(err))

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	vars := map[string]string{
		"DQN_ENV":               "GridWorld-v0",
		"DQN_SEED":              "18446744073709551615",
		"DQN_GAMMA":             "0.5",
		"DQN_FRAME_SKIP":        "2",
		"DQN_REWARD_SHAPING":    "false",
		"DQN_OBSERVATION_SHAPE": "84, 84, 3",
		"DQN_LOG_LEVEL":         "debug",
		"DQN_MONITOR":           "1",
		"DQN_TESTFILE":          "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}

	c := Default()
	require.NoError(t, applyEnvOverrides(&c, lookup))
	assert.Equal(t, "GridWorld-v0", c.Env.ID)
	assert.Equal(t, uint64(1<<64-1), c.Env.Seed)
	assert.Equal(t, 0.5, c.Agent.Gamma)
	assert.Equal(t, 2, c.Train.FrameSkip)
	assert.False(t, c.Train.RewardShaping)
	assert.Equal(t, []int{84, 84, 3}, c.Env.ObservationShape)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.True(t, c.Tracking.Monitor)
	assert.Equal(t, Default().Test.Testfile, c.Test.Testfile)

	vars = map[string]string{"DQN_BATCH_SIZE": "many"}
	err := applyEnvOverrides(&c, lookup)
	require.Error(t, err)
	assert.True(t, env.IsConfigurationError(err))
}

func TestEnvOverridesFromProcess(t *testing.T) {
	t.Setenv("DQN_NUM_EPISODES", "12")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, c.Train.NumEpisodes)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"mode":        func(c *Config) { c.Mode = "evaluate" },
		"environment": func(c *Config) { c.Env.ID = "NoSuchEnv-v0" },
		"gamma":       func(c *Config) { c.Agent.Gamma = 1.5 },
		"batch":       func(c *Config) { c.Agent.BatchSize = c.Agent.MemorySize + 1 },
		"frame skip":  func(c *Config) { c.Train.FrameSkip = 0 },
		"frame stack": func(c *Config) { c.Train.FrameStack = 0 },
		"reset":       func(c *Config) { c.Train.ResetTarget = -1 },
		"testfile": func(c *Config) {
			c.Mode = ModeTest
			c.Test.Testfile = ""
		},
	}

	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, env.IsConfigurationError(err),
				"want(ConfigurationError)\nhave(%T)", err)
		})
	}

	c := Default()
	c.Mode = ModeTest
	require.NoError(t, c.Validate())
}

func TestParseShape(t *testing.T) {
	shape, err := ParseShape("2,84,84")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 84, 84}, shape)

	shape, err = ParseShape("")
	require.NoError(t, err)
	assert.Nil(t, shape)

	_, err = ParseShape("2,x")
	assert.Error(t, err)
	_, err = ParseShape("0")
	assert.Error(t, err)
}
