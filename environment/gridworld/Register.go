package gridworld

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("GridWorld-v0", func(s env.Settings) (env.Environment, error) {
		g := NewDefault()
		g.Seed(s.Seed)
		return g, nil
	})
}
