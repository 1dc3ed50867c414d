package lunarlander

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("LunarLander-v2", func(s env.Settings) (env.Environment, error) {
		return NewDefault(s.Seed), nil
	})
}
