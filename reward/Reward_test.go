package reward

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeScenario(t *testing.T) {
	assert.Equal(t, 1.0, Shape(5, true))
	assert.Equal(t, -1.0, Shape(-5, true))
	assert.Equal(t, 0.05, Shape(0.05, false))
	assert.InDelta(t, 0.6, Shape(0.5, true), 1e-12)
	assert.InDelta(t, -0.9, Shape(-1, true), 1e-12)
}

func TestShapeBounded(t *testing.T) {
	rewards := []float64{
		math.Inf(-1), -1e9, -1.1, -1, -0.95, 0, 0.9, 0.95, 1, 3.5, 1e12,
		math.Inf(1), math.NaN(),
	}
	for _, r := range rewards {
		for _, b := range []bool{true, false} {
			shaped := Shape(r, b)
			if !(shaped >= MinReward && shaped <= MaxReward) {
				t.Errorf("shape(%v, %v) out of bounds\n\twant([-1, 1])"+
					"\n\thave(%v)", r, b, shaped)
			}
		}
	}
}

func TestShapeNaN(t *testing.T) {
	// The bonus of a NaN reward is also NaN, so both pipelines give 0
	assert.Equal(t, 0.0, Shape(math.NaN(), false))
	assert.Equal(t, 0.0, Shape(math.NaN(), true))
	assert.Equal(t, 0.5, Clip(0.5, 1)(math.NaN()))
}

func TestPipelineOrder(t *testing.T) {
	// Clipping before the bonus can exceed the bound, after cannot
	before := Pipeline(Clip(-1, 1), Bonus(0.1))
	after := Pipeline(Bonus(0.1), Clip(-1, 1))

	assert.InDelta(t, 1.1, before(2), 1e-12)
	assert.Equal(t, 1.0, after(2))
	assert.Equal(t, 2.0, Pipeline()(2))
	assert.Equal(t, 3.0, Identity(3))
}
