package deepq

import (
	"fmt"

	"github.com/fiorenza2/RL-Algorithms/agent/policy"
	"github.com/fiorenza2/RL-Algorithms/initwfn"
	"github.com/fiorenza2/RL-Algorithms/network"
	"github.com/fiorenza2/RL-Algorithms/solver"
)

// Config implements a configuration of a DeepQ agent
type Config struct {
	Gamma     float64 `yaml:"gamma"`
	BatchSize int     `yaml:"batch_size"`

	// Exploration schedule: epsilon anneals linearly from EpsilonStart
	// to EpsilonEnd over FinalExpFrame global steps
	FinalExpFrame int     `yaml:"final_exp_frame"`
	EpsilonStart  float64 `yaml:"epsilon_start"`
	EpsilonEnd    float64 `yaml:"epsilon_end"`

	// Warmup is the number of initial global steps during which actions
	// are chosen uniformly at random
	Warmup int `yaml:"-"`

	// Hidden layer sizes and activation of the MLP used for vector
	// observations. Image observations always use the convolutional
	// network.
	Hidden     []int  `yaml:"hidden"`
	Activation string `yaml:"activation"`

	Solver solver.Config  `yaml:"solver"`
	Init   initwfn.Config `yaml:"init"`
}

// DefaultConfig returns the default DeepQ configuration
func DefaultConfig() Config {
	return Config{
		Gamma:         0.9,
		BatchSize:     32,
		FinalExpFrame: 500000,
		EpsilonStart:  policy.EpsilonStart,
		EpsilonEnd:    policy.EpsilonEnd,
		Hidden:        []int{64, 64},
		Activation:    "relu",
		Solver:        solver.Default(),
		Init:          initwfn.Default(),
	}
}

// Validate checks a Config for invalid values
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %v", c.BatchSize)
	}
	if c.FinalExpFrame < 0 {
		return fmt.Errorf("final exploration frame must be non-negative, "+
			"got %v", c.FinalExpFrame)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be non-negative, got %v", c.Warmup)
	}
	for _, h := range c.Hidden {
		if h < 1 {
			return fmt.Errorf("hidden layer sizes must be positive, got %v",
				c.Hidden)
		}
	}
	if _, err := network.ParseActivation(c.Activation); err != nil {
		return err
	}
	if err := c.Schedule().Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	return c.Init.Validate()
}

// Schedule returns the exploration schedule described by the Config
func (c Config) Schedule() policy.LinearSchedule {
	return policy.LinearSchedule{
		Start:     c.EpsilonStart,
		End:       c.EpsilonEnd,
		FinalStep: c.FinalExpFrame,
	}
}
