package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
	assert.Equal(t, 2.0, ClipInterval(5, r1.Interval{Min: 0, Max: 2}))
}

func TestWrap(t *testing.T) {
	assert.InDelta(t, -math.Pi+1, Wrap(math.Pi+1, -math.Pi, math.Pi), 1e-12)
	assert.InDelta(t, math.Pi-1, Wrap(-math.Pi-1, -math.Pi, math.Pi), 1e-12)
	assert.Equal(t, 0.5, WrapInterval(0.5, r1.Interval{Min: 0, Max: 1}))
	assert.InDelta(t, 0.5, WrapInterval(3.5, r1.Interval{Min: 0, Max: 1}), 1e-12)
}

func TestArgMaxLowestIndex(t *testing.T) {
	assert.Equal(t, 0, ArgMax([]float64{1, 1, 1}))
	assert.Equal(t, 1, ArgMax([]float64{0, 3, 3, 2}))
	assert.Equal(t, 3, ArgMax([]float64{-4, -3, -2, -1}))
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, got)
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 0))
}
