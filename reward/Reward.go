// Package reward implements transforms from raw environment rewards to
// bounded training signals.
package reward

import (
	"math"

	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

// LivingBonus is the reward added on each step for staying alive when
// living bonuses are enabled
const LivingBonus float64 = 0.1

// Bounds of shaped rewards
const (
	MinReward float64 = -1.0
	MaxReward float64 = 1.0
)

// Transform is a single stage of a reward pipeline
type Transform func(float64) float64

// Shape adds the living bonus to raw if livingBonus is true, then clips
// the result to [MinReward, MaxReward].
func Shape(raw float64, livingBonus bool) float64 {
	return NewShaper(livingBonus)(raw)
}

// NewShaper returns the reward pipeline used in training. If
// livingBonus is true the LivingBonus is added before clipping.
func NewShaper(livingBonus bool) Transform {
	if livingBonus {
		return Pipeline(Bonus(LivingBonus), Clip(MinReward, MaxReward))
	}
	return Pipeline(Clip(MinReward, MaxReward))
}

// Pipeline composes transforms, applying them in the order given
func Pipeline(transforms ...Transform) Transform {
	return func(r float64) float64 {
		for _, t := range transforms {
			r = t(r)
		}
		return r
	}
}

// Bonus returns a Transform which adds b to the reward
func Bonus(b float64) Transform {
	return func(r float64) float64 {
		return r + b
	}
}

// Clip returns a Transform which clamps the reward to [min, max]. A NaN
// reward carries no signal and is treated as 0.
func Clip(min, max float64) Transform {
	return func(r float64) float64 {
		if math.IsNaN(r) {
			r = 0
		}
		return floatutils.Clip(r, min, max)
	}
}

// Identity leaves rewards unchanged
func Identity(r float64) float64 {
	return r
}
