package cartpole

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("CartPole-v0", func(s env.Settings) (env.Environment, error) {
		return NewDefault(s.Seed), nil
	})
	env.Register("CartPolePixels-v0",
		func(s env.Settings) (env.Environment, error) {
			return NewPixels(s.Seed), nil
		})
}
