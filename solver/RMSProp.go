package solver

import G "gorgonia.org/gorgonia"

// NewRMSProp returns the configuration of an RMSProp solver
func NewRMSProp(stepSize, epsilon, rho float64) Config {
	return Config{
		Type:     RMSProp,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
	}
}

// newRMSProp returns a new Gorgonia RMSProp Solver as described by the
// Config
func newRMSProp(c Config, batchSize int) G.Solver {
	opts := c.commonOpts(batchSize)
	if c.Epsilon > 0 {
		opts = append(opts, G.WithEps(c.Epsilon))
	}
	if c.Rho > 0 {
		opts = append(opts, G.WithRho(c.Rho))
	}
	return G.NewRMSPropSolver(opts...)
}
