package acrobot

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("Acrobot-v1", func(s env.Settings) (env.Environment, error) {
		return NewDefault(s.Seed), nil
	})
}
