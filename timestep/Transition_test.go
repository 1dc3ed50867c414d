package timestep

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewTransitionCopiesStates(t *testing.T) {
	state := []float64{1, 2, 3}
	next := []float64{4, 5, 6}

	tr := NewTransition(state, 1, 0.5, next, false)
	state[0] = 100
	next[0] = 100

	require.Equal(t, []float64{1, 2, 3}, tr.State)
	require.Equal(t, []float64{4, 5, 6}, tr.NextState)
}

func TestTransitionDiscount(t *testing.T) {
	tr := NewTransition(nil, 0, 0, nil, false)
	if d := tr.Discount(0.9); d != 0.9 {
		t.Errorf("discount:\n\twant(%v)\n\thave(%v)", 0.9, d)
	}

	tr = NewTransition(nil, 0, 0, nil, true)
	if d := tr.Discount(0.9); d != 0.0 {
		t.Errorf("terminal discount:\n\twant(%v)\n\thave(%v)", 0.0, d)
	}
}

func TestObservationDataIsCopy(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})
	step := New(First, 0, 1, obs, 0)

	data := step.ObservationData()
	data[0] = 10
	require.Equal(t, 1.0, obs.AtVec(0))
	require.True(t, step.First())

	empty := New(Mid, 0, 1, nil, 1)
	require.Nil(t, empty.ObservationData())
}
