package solver

import G "gorgonia.org/gorgonia"

// NewAdam returns the configuration of an Adam solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64) Config {
	return Config{
		Type:     Adam,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}
}

// newAdam returns a new Gorgonia Adam Solver as described by the
// Config
func newAdam(c Config, batchSize int) G.Solver {
	opts := c.commonOpts(batchSize)
	if c.Epsilon > 0 {
		opts = append(opts, G.WithEps(c.Epsilon))
	}
	if c.Beta1 > 0 {
		opts = append(opts, G.WithBeta1(c.Beta1))
	}
	if c.Beta2 > 0 {
		opts = append(opts, G.WithBeta2(c.Beta2))
	}
	return G.NewAdamSolver(opts...)
}
