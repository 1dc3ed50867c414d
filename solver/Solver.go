// Package solver implements configurations of Gorgonia Solvers so that
// they can be described in YAML configuration files.
package solver

import (
	"fmt"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "adam"
	RMSProp Type = "rmsprop"
	Vanilla Type = "vanilla"
)

// Config describes a Gorgonia Solver. Fields which do not apply to the
// chosen Type are ignored.
type Config struct {
	Type     Type    `yaml:"type"`
	StepSize float64 `yaml:"step_size"`
	Epsilon  float64 `yaml:"epsilon"` // Smoothing factor
	Beta1    float64 `yaml:"beta1"`
	Beta2    float64 `yaml:"beta2"`
	Rho      float64 `yaml:"rho"`

	// Clip is the gradient clipping value, <= 0 if no clipping
	Clip float64 `yaml:"clip"`

	// WeightDecay is the L2 regularization coefficient, <= 0 if none
	WeightDecay float64 `yaml:"weight_decay"`
}

// Default returns the default solver configuration, Adam with a step
// size of 1e-4
func Default() Config {
	return Config{
		Type:     Adam,
		StepSize: 1e-4,
		Epsilon:  1e-8,
		Beta1:    0.9,
		Beta2:    0.999,
		Rho:      0.95,
	}
}

// Validate checks that the configuration describes a valid Solver
func (c Config) Validate() error {
	switch c.normalizedType() {
	case Adam, RMSProp, Vanilla:
	default:
		return fmt.Errorf("invalid solver type: %q (valid: adam, rmsprop, "+
			"vanilla)", c.Type)
	}

	if c.StepSize <= 0 {
		return fmt.Errorf("solver step size must be positive, got %v",
			c.StepSize)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("weight decay must be non-negative, got %v",
			c.WeightDecay)
	}
	return nil
}

// Create returns the Gorgonia Solver described by the configuration for
// gradients computed over batches of the given size
func (c Config) Create(batchSize int) (G.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	switch c.normalizedType() {
	case Adam:
		return newAdam(c, batchSize), nil
	case RMSProp:
		return newRMSProp(c, batchSize), nil
	default:
		return newVanilla(c, batchSize), nil
	}
}

// commonOpts returns the options shared by all solvers
func (c Config) commonOpts(batchSize int) []G.SolverOpt {
	opts := []G.SolverOpt{
		G.WithLearnRate(c.StepSize),
		G.WithBatchSize(float64(batchSize)),
	}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}
	if c.WeightDecay > 0 {
		opts = append(opts, G.WithL2Reg(c.WeightDecay))
	}
	return opts
}

func (c Config) normalizedType() Type {
	return Type(strings.ToLower(string(c.Type)))
}
