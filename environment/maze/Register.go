package maze

import env "github.com/fiorenza2/RL-Algorithms/environment"

func init() {
	env.Register("Maze-v0", func(s env.Settings) (env.Environment, error) {
		return NewDefault(s.Seed), nil
	})
}
