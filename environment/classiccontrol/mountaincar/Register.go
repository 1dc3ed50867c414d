package mountaincar

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("MountainCar-v0", func(s env.Settings) (env.Environment, error) {
		return NewDefault(s.Seed), nil
	})
}
