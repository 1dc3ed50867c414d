package solver

import G "gorgonia.org/gorgonia"

// NewVanilla returns the configuration of a vanilla gradient descent
// solver
func NewVanilla(stepSize, clip float64) Config {
	return Config{
		Type:     Vanilla,
		StepSize: stepSize,
		Clip:     clip,
	}
}

// newVanilla returns a Gorgonia Vanilla Solver as described by the
// Config
func newVanilla(c Config, batchSize int) G.Solver {
	return G.NewVanillaSolver(c.commonOpts(batchSize)...)
}
