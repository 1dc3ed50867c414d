package lunarlander

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/fiorenza2/RL-Algorithms/environment"
)

func TestSeeded(t *testing.T) {
	l1, l2 := NewDefault(4), NewDefault(4)

	s1, err := l1.Reset()
	require.NoError(t, err)
	s2, err := l2.Reset()
	require.NoError(t, err)
	require.True(t, s1.First())
	require.Equal(t, 0.0, s1.Reward)
	require.True(t, mat.Equal(s1.Observation, s2.Observation))

	// The lander starts above the pad with its legs in the air
	require.Less(t, math.Abs(s1.Observation.AtVec(0)), 0.1)
	require.Greater(t, s1.Observation.AtVec(1), 0.0)
	require.Equal(t, 0.0, s1.Observation.AtVec(6))
	require.Equal(t, 0.0, s1.Observation.AtVec(7))

	for i := 0; i < 40; i++ {
		a := i % NumActions
		step1, done1, err := l1.Step(a)
		require.NoError(t, err)
		step2, done2, err := l2.Step(a)
		require.NoError(t, err)

		require.Equal(t, done1, done2)
		require.Equal(t, step1.Reward, step2.Reward)
		require.True(t, mat.Equal(step1.Observation, step2.Observation))
	}
}

func TestMainEngine(t *testing.T) {
	fired, falling := NewDefault(9), NewDefault(9)
	_, err := fired.Reset()
	require.NoError(t, err)
	_, err = falling.Reset()
	require.NoError(t, err)

	var firedStep, fallingStep float64
	for i := 0; i < 15; i++ {
		step, _, err := fired.Step(FireMain)
		require.NoError(t, err)
		firedStep = step.Observation.AtVec(3)

		step, _, err = falling.Step(NoOp)
		require.NoError(t, err)
		fallingStep = step.Observation.AtVec(3)
	}
	require.Greater(t, firedStep, fallingStep)
}

func TestFreeFallEnds(t *testing.T) {
	l := New(NewLand(0), NewDefault(2).starter, 1.0, 2)
	_, err := l.Reset()
	require.NoError(t, err)

	for steps := 0; ; steps++ {
		require.Less(t, steps, 3000)
		step, done, err := l.Step(NoOp)
		require.NoError(t, err)
		if done {
			require.Equal(t, 100.0, math.Abs(step.Reward))
			break
		}
	}

	_, _, err = l.Step(NoOp)
	require.Error(t, err)
}

func TestLandReward(t *testing.T) {
	task := NewLand(2)
	state := mat.NewVecDense(StateObservations, []float64{
		0.5, 0, 0, 0, 0, 0, 0, 0,
	})
	closer := mat.NewVecDense(StateObservations, []float64{
		0.25, 0, 0, 0, 0, 0, 1, 0,
	})

	// The first reward after a reset carries no shaping
	assert.InDelta(t, -MainEngineCost, task.GetReward(state, 1, 0, Flying),
		1e-9)
	assert.InDelta(t, 25+10-SideEngineCost,
		task.GetReward(closer, 0, 1, Flying), 1e-9)
	assert.Equal(t, CrashReward, task.GetReward(state, 1, 1, Crashed))
	assert.Equal(t, LandReward, task.GetReward(state, 0, 0, Landed))

	task.reset()
	assert.Equal(t, 0.0, task.GetReward(closer, 0, 0, Flying))
}

func TestLandEnd(t *testing.T) {
	l := NewDefault(0)
	step, err := l.Reset()
	require.NoError(t, err)

	task := NewLand(2)
	step.Number = 1
	require.False(t, task.End(&step, Flying))
	require.True(t, task.End(&step, Landed))
	require.True(t, step.Last())

	step, err = l.Reset()
	require.NoError(t, err)
	step.Number = 2
	require.True(t, task.End(&step, Flying))
}

func TestInvalidStart(t *testing.T) {
	w, h := ViewportW/Scale, ViewportH/Scale
	for _, bounds := range [][]r1.Interval{
		{{Min: 0, Max: 0}, {Min: h, Max: h}, {Min: 0, Max: 0}},
		{{Min: w / 2, Max: w / 2}, {Min: 1, Max: 1}, {Min: 0, Max: 0}},
		{{Min: w / 2, Max: w / 2}, {Min: h, Max: h}, {Min: -1, Max: -1}},
		{{Min: w / 2, Max: w / 2}, {Min: h, Max: h}},
	} {
		l := New(NewLand(0), env.NewUniformStarter(bounds, 0), 1.0, 0)
		_, err := l.Reset()
		require.Error(t, err, "bounds %v", bounds)
	}
}

func TestIllegalAction(t *testing.T) {
	l := NewDefault(0)
	_, _, err := l.Step(NoOp)
	require.Error(t, err, "step before reset")

	_, err = l.Reset()
	require.NoError(t, err)
	_, _, err = l.Step(NumActions)
	require.Error(t, err)
	_, _, err = l.Step(-1)
	require.Error(t, err)

	require.NoError(t, l.Close())
	_, _, err = l.Step(NoOp)
	require.Error(t, err, "step after close")
}

func TestImage(t *testing.T) {
	l := NewDefault(1)
	_, err := l.Reset()
	require.NoError(t, err)

	img := l.Image()
	require.Equal(t, int(ViewportW), img.Bounds().Dx())
	require.Equal(t, int(ViewportH), img.Bounds().Dy())

	sky := color.RGBAModel.Convert(img.At(5, 5)).(color.RGBA)
	require.Equal(t, color.RGBA{R: 30, G: 30, B: 30, A: 255}, sky)
	ground := color.RGBAModel.Convert(img.At(int(ViewportW)/2,
		int(ViewportH)-5)).(color.RGBA)
	require.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, ground)
}

func TestRegistered(t *testing.T) {
	e, err := env.Make("LunarLander-v2", 0)
	require.NoError(t, err)
	require.Equal(t, NumActions, e.ActionSpec().NumActions())
	require.Equal(t, []int{StateObservations}, e.ObservationSpec().Shape)

	_, err = e.Reset()
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, e.(env.Renderer).Render(&b))
	require.Contains(t, b.String(), "Lunar Lander")
}
